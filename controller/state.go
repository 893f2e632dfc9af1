package controller

import (
	"errors"

	"wpatui/gowpasupplicant"
	"wpatui/scanner"
)

var (
	// ErrCredentialRejected means the access point refused the association.
	ErrCredentialRejected = errors.New("credentials rejected")
	// ErrConnectTimedOut means no outcome was seen within the verify budget.
	ErrConnectTimedOut = errors.New("connection attempt timed out")
)

// State is the controller's position in the scan/connect workflow.
type State int

const (
	Idle State = iota
	Scanning
	PresentingResults
	AwaitingCredentials
	Connecting
	VerifyingOutcome
	Connected
	ConnectionFailed
	Disconnecting
	ShuttingDown
)

var stateNames = [...]string{
	Idle:                "idle",
	Scanning:            "scanning",
	PresentingResults:   "presenting_results",
	AwaitingCredentials: "awaiting_credentials",
	Connecting:          "connecting",
	VerifyingOutcome:    "verifying_outcome",
	Connected:           "connected",
	ConnectionFailed:    "connection_failed",
	Disconnecting:       "disconnecting",
	ShuttingDown:        "shutting_down",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// FailureReason says why a connection attempt ended unsuccessfully.
type FailureReason int

const (
	ReasonSetupError FailureReason = iota
	ReasonCredentialRejected
	ReasonTimedOut
)

func (r FailureReason) String() string {
	switch r {
	case ReasonCredentialRejected:
		return "credential_rejected"
	case ReasonTimedOut:
		return "timed_out"
	default:
		return "setup_error"
	}
}

// Target identifies the network a connection attempt is for.
type Target struct {
	ESSID    string
	BSSID    string
	Security string
	Hidden   bool
	Open     bool
	// SavedID is the daemon's id for a known network, -1 for a new one.
	SavedID int
}

// TargetFrom builds a connection target from a scan result.
func TargetFrom(r scanner.ScanResult) Target {
	t := Target{
		BSSID:    r.BSSID,
		Security: r.Security,
		Hidden:   r.Hidden(),
		Open:     r.IsOpen(),
		SavedID:  -1,
	}
	if !t.Hidden {
		t.ESSID = r.SSID
	}
	return t
}

// Name is the label used for the target in dialogs.
func (t Target) Name() string {
	if t.ESSID == "" {
		return scanner.HiddenSSID
	}
	return t.ESSID
}

// View is what the UI should render. Exactly one variant is current.
type View interface {
	isView()
}

type IdleView struct{}

type ScanningView struct {
	Pass   int
	Passes int
}

type ResultsView struct {
	Visible []scanner.ScanResult
	Hidden  []scanner.ScanResult
	Status  gowpasupplicant.Status
	// ScanErr is set when every pass of the last scan failed.
	ScanErr error
	// Notice is a one-off message about the last operation, if any.
	Notice string
	// Busy is set while a selection is being looked up.
	Busy bool
}

type CredentialsView struct {
	Target       Target
	NeedESSID    bool
	NeedPassword bool
	// Retry is set when the previous password was rejected.
	Retry bool
}

type ConnectingView struct {
	Target Target
	Phase  string
	Tick   int
	Ticks  int
}

type FailedView struct {
	Target           Target
	Reason           FailureReason
	Err              error
	CanRetryPassword bool
}

type DisconnectingView struct{}

type ShuttingDownView struct{}

func (IdleView) isView()          {}
func (ScanningView) isView()      {}
func (ResultsView) isView()       {}
func (CredentialsView) isView()   {}
func (ConnectingView) isView()    {}
func (FailedView) isView()        {}
func (DisconnectingView) isView() {}
func (ShuttingDownView) isView()  {}
