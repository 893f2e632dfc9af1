package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"wpatui/gowpasupplicant"
	"wpatui/metrics"
	"wpatui/poll"
	"wpatui/scanner"
)

// Supplicant is the daemon control surface the controller drives.
type Supplicant interface {
	scanner.Backend
	Interface() string
	Status(ctx context.Context) gowpasupplicant.Status
	FindSavedNetwork(ctx context.Context, bssid string) (int, bool, error)
	AddNetwork(ctx context.Context) (int, error)
	SetNetwork(ctx context.Context, id int, field, value string) error
	EnableNetwork(ctx context.Context, id int) error
	SelectNetwork(ctx context.Context, id int) error
	RemoveNetwork(ctx context.Context, id int) error
	Disconnect(ctx context.Context) error
	SaveConfig(ctx context.Context) error
	Note(ctx context.Context, text string) error
	ResetEventLog(ctx context.Context) error
	TailEventLog(since int64) ([]string, int64, error)
}

// DHCP acquires and releases leases for the controlled interface.
type DHCP interface {
	Acquire(ctx context.Context) error
	Release(ctx context.Context) error
}

// AddressSource reports the IPv4 address of an interface.
type AddressSource interface {
	IPv4(iface string) (string, error)
}

// Options tunes the controller. Zero budgets fall back to the defaults.
type Options struct {
	Scan        poll.Budget
	Verify      poll.Budget
	AutoConnect poll.Budget
	// Settle is the wait after acquiring a lease in autoconnect mode.
	Settle    time.Duration
	Addresses AddressSource
	Metrics   *metrics.Metrics
	Logger    *logrus.Logger
}

var (
	defaultScan        = poll.Budget{Attempts: 3, Interval: 2 * time.Second}
	defaultVerify      = poll.Budget{Attempts: 10, Interval: time.Second}
	defaultAutoConnect = poll.Budget{Attempts: 15, Interval: time.Second}
)

// attempt is the connection attempt in progress. Only the controller sees it.
type attempt struct {
	target    Target
	password  string
	id        int
	added     bool
	started   time.Time
	offset    int64
	sawMarker bool
	tick      int
	connected bool
}

// Controller is the scan/connect state machine. All methods must be called
// from the Bubble Tea update loop; the returned commands do the I/O.
type Controller struct {
	ctx     context.Context
	sup     Supplicant
	dhcp    DHCP
	scanner *scanner.Scanner
	opts    Options
	logger  *logrus.Logger
	metrics *metrics.Metrics

	state State
	gen   int

	results scanner.Results
	status  gowpasupplicant.Status
	scanErr error
	notice  string
	lookup  bool

	creds   CredentialsView
	attempt *attempt
	phase   string
	failure *FailedView
	pending *FailedView

	// Commands in flight that must finish before shutdown.
	setups   int
	cleanups int
}

// New returns a controller in the Idle state. ctx bounds every command.
func New(ctx context.Context, sup Supplicant, dhcp DHCP, opts Options) *Controller {
	if opts.Scan.Attempts <= 0 {
		opts.Scan = defaultScan
	}
	if opts.Verify.Attempts <= 0 {
		opts.Verify = defaultVerify
	}
	if opts.AutoConnect.Attempts <= 0 {
		opts.AutoConnect = defaultAutoConnect
	}
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}
	return &Controller{
		ctx:     ctx,
		sup:     sup,
		dhcp:    dhcp,
		scanner: scanner.New(sup, opts.Scan.Attempts, opts.Logger),
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		state:   Idle,
	}
}

// State returns the current workflow state.
func (c *Controller) State() State { return c.state }

func (c *Controller) setState(s State) {
	if s != c.state {
		c.logger.Debugf("Controller state %s -> %s", c.state, s)
	}
	c.state = s
}

// --- Intents ---

// Init starts the first scan.
func (c *Controller) Init() tea.Cmd {
	return c.startScan()
}

// Rescan starts a new scan cycle from a resting state.
func (c *Controller) Rescan() tea.Cmd {
	switch c.state {
	case Idle, PresentingResults:
		if c.lookup {
			return nil
		}
		return c.startScan()
	}
	return nil
}

func (c *Controller) startScan() tea.Cmd {
	c.gen++
	c.notice = ""
	c.scanErr = nil
	c.scanner.Reset()
	c.setState(Scanning)
	c.logger.Infof("Starting scan (%d passes)", c.scanner.Passes())
	return c.scanPassCmd(c.gen)
}

// Select picks a network from the presented results. The daemon's saved
// networks are checked first so a known BSSID reuses its block.
func (c *Controller) Select(r scanner.ScanResult) tea.Cmd {
	if c.state != PresentingResults || c.lookup {
		return nil
	}
	target := TargetFrom(r)
	c.notice = ""
	c.gen++
	c.lookup = true
	return c.lookupCmd(c.gen, target)
}

// SubmitCredentials continues a selection with the user's input. An empty
// required field cancels the selection.
func (c *Controller) SubmitCredentials(essid, password string) tea.Cmd {
	if c.state != AwaitingCredentials {
		return nil
	}
	target := c.creds.Target
	if c.creds.NeedESSID {
		if essid == "" {
			c.logger.Debug("Empty ESSID submitted, cancelling")
			return c.CancelCredentials()
		}
		target.ESSID = essid
	}
	if c.creds.NeedPassword && password == "" {
		c.logger.Debug("Empty password submitted, cancelling")
		return c.CancelCredentials()
	}
	return c.startConnect(target, password)
}

// CancelCredentials abandons the credential prompt.
func (c *Controller) CancelCredentials() tea.Cmd {
	if c.state != AwaitingCredentials {
		return nil
	}
	c.creds = CredentialsView{}
	c.setState(PresentingResults)
	return nil
}

// RetryPassword asks for a new password after a failed attempt.
func (c *Controller) RetryPassword() tea.Cmd {
	if c.state != ConnectionFailed || c.failure == nil || !c.failure.CanRetryPassword {
		return nil
	}
	target := c.failure.Target
	target.SavedID = -1
	c.failure = nil
	c.creds = CredentialsView{Target: target, NeedPassword: true, Retry: true}
	c.setState(AwaitingCredentials)
	return nil
}

// Dismiss closes the failure dialog and returns to the results.
func (c *Controller) Dismiss() tea.Cmd {
	if c.state != ConnectionFailed {
		return nil
	}
	c.failure = nil
	c.setState(PresentingResults)
	return c.statusCmd(c.gen)
}

// Disconnect drops the association and any attempt in progress. In Idle
// the daemon is told to disconnect but the state does not change.
func (c *Controller) Disconnect() tea.Cmd {
	switch c.state {
	case ShuttingDown, Disconnecting:
		return nil
	case Idle:
		c.gen++
		return c.disconnectCmd(c.gen, nil)
	}
	var ids []int
	if a := c.attempt; a != nil && a.added && !a.connected {
		ids = append(ids, a.id)
		c.metrics.ObserveConnect("abandoned", a.started)
	}
	c.attempt = nil
	c.pending = nil
	c.failure = nil
	c.lookup = false
	c.gen++
	c.setState(Disconnecting)
	c.logger.Info("Disconnecting")
	return c.disconnectCmd(c.gen, ids)
}

// Quit moves to ShuttingDown. ShutdownMsg follows once in-flight setup has
// returned and abandoned network blocks are removed.
func (c *Controller) Quit() tea.Cmd {
	if c.state == ShuttingDown {
		return nil
	}
	c.gen++
	c.setState(ShuttingDown)
	var cmd tea.Cmd
	if a := c.attempt; a != nil && a.added && !a.connected {
		c.metrics.ObserveConnect("abandoned", a.started)
		cmd = c.cleanupCmd(c.gen, []int{a.id}, true)
	}
	c.attempt = nil
	if cmd != nil {
		return cmd
	}
	return c.maybeShutdown()
}

func (c *Controller) maybeShutdown() tea.Cmd {
	if c.state != ShuttingDown || c.setups > 0 || c.cleanups > 0 {
		return nil
	}
	return shutdownCmd
}

func (c *Controller) startConnect(target Target, password string) tea.Cmd {
	c.gen++
	c.creds = CredentialsView{}
	c.failure = nil
	c.pending = nil
	c.attempt = &attempt{target: target, password: password, id: target.SavedID, started: time.Now()}
	c.phase = "Configuring network"
	c.setups++
	c.setState(Connecting)
	c.logger.Infof("Connecting to %s (%s)", target.Name(), target.BSSID)
	return c.setupCmd(c.gen, target, password)
}

// --- Update ---

// Update applies a message produced by one of the controller's commands.
// Unknown messages are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case scanPassMsg:
		return c.onScanPass(msg)
	case scanTickMsg:
		if msg.gen != c.gen || c.state != Scanning {
			return nil
		}
		return c.scanPassCmd(c.gen)
	case statusMsg:
		if msg.gen != c.gen {
			return nil
		}
		c.status = msg.status
		if c.state == Scanning {
			c.setState(PresentingResults)
		}
		return nil
	case lookupMsg:
		return c.onLookup(msg)
	case setupMsg:
		return c.onSetup(msg)
	case verifyTickMsg:
		if msg.gen != c.gen || c.state != VerifyingOutcome || c.attempt == nil {
			return nil
		}
		return c.verifyCmd(c.gen, c.attempt.offset)
	case verifyMsg:
		return c.onVerify(msg)
	case connectedMsg:
		return c.onConnected(msg)
	case cleanupMsg:
		return c.onCleanup(msg)
	case disconnectedMsg:
		if msg.gen != c.gen || c.state != Disconnecting {
			return nil
		}
		c.status = msg.status
		c.notice = "Disconnected"
		c.setState(PresentingResults)
		return nil
	}
	return nil
}

func (c *Controller) onScanPass(msg scanPassMsg) tea.Cmd {
	if msg.gen != c.gen || c.state != Scanning {
		return nil
	}
	c.metrics.ObserveScanPass(msg.err)
	if !c.scanner.Record(msg.results, msg.err) {
		return tickAfter(c.opts.Scan, scanTickMsg{gen: c.gen})
	}
	results, err := c.scanner.Finish()
	c.results = results
	c.scanErr = err
	if err != nil {
		c.logger.Errorf("Scan failed: %v", err)
		c.notice = "Scan failed, press R to retry"
	} else {
		c.logger.Infof("Scan found %d visible and %d hidden networks", len(results.Visible), len(results.Hidden))
	}
	return c.statusCmd(c.gen)
}

func (c *Controller) onLookup(msg lookupMsg) tea.Cmd {
	if msg.gen != c.gen || !c.lookup {
		return nil
	}
	c.lookup = false
	if c.state != PresentingResults {
		return nil
	}
	if msg.err != nil {
		c.logger.Warnf("Saved network lookup failed, treating %s as new: %v", msg.target.BSSID, msg.err)
	}
	target := msg.target
	if msg.err == nil && msg.found {
		c.logger.Infof("Using saved network %d for %s", msg.id, target.BSSID)
		target.SavedID = msg.id
		return c.startConnect(target, "")
	}
	if target.Open && !target.Hidden {
		return c.startConnect(target, "")
	}
	c.creds = CredentialsView{
		Target:       target,
		NeedESSID:    target.Hidden,
		NeedPassword: !target.Open,
	}
	c.setState(AwaitingCredentials)
	return nil
}

func (c *Controller) onSetup(msg setupMsg) tea.Cmd {
	c.setups--
	if msg.gen != c.gen || c.attempt == nil || c.state != Connecting {
		// The attempt was abandoned while the daemon was being configured.
		if msg.added {
			c.logger.Infof("Removing network %d from abandoned attempt", msg.id)
			return c.cleanupCmd(c.gen, []int{msg.id}, c.state == ShuttingDown)
		}
		return c.maybeShutdown()
	}

	a := c.attempt
	a.id, a.added = msg.id, msg.added
	if msg.err != nil {
		c.logger.Errorf("Connection setup for %s failed: %v", a.target.BSSID, msg.err)
		var cmdErr *gowpasupplicant.CommandError
		canRetry := errors.As(msg.err, &cmdErr) && cmdErr.Field() == gowpasupplicant.FieldPSK
		return c.fail(ReasonSetupError, msg.err, canRetry)
	}

	a.password = ""
	c.phase = "Waiting for association"
	c.setState(VerifyingOutcome)
	return tickAfter(c.opts.Verify, verifyTickMsg{gen: c.gen})
}

func (c *Controller) onVerify(msg verifyMsg) tea.Cmd {
	if msg.gen != c.gen || c.state != VerifyingOutcome || c.attempt == nil {
		return nil
	}
	a := c.attempt
	a.tick++
	if msg.err != nil {
		c.logger.Warnf("Reading event log failed: %v", msg.err)
	} else {
		a.offset = msg.next
	}

	switch ev := c.firstOutcome(a, msg.lines); {
	case ev == gowpasupplicant.EventConnected:
		return c.succeed()
	case ev.IsRejection():
		c.logger.Warnf("Association with %s rejected (%s)", a.target.BSSID, ev)
		return c.fail(ReasonCredentialRejected, fmt.Errorf("%w: %s", ErrCredentialRejected, ev), true)
	}

	// The event log is only one witness; the daemon state is the other.
	if msg.status.Connected() && msg.status.BSSID == a.target.BSSID {
		return c.succeed()
	}
	if c.opts.Verify.Exhausted(a.tick) {
		c.logger.Warnf("No outcome for %s after %d checks", a.target.BSSID, a.tick)
		return c.fail(ReasonTimedOut, ErrConnectTimedOut, false)
	}
	return tickAfter(c.opts.Verify, verifyTickMsg{gen: c.gen})
}

// firstOutcome returns the first outcome event logged after the attempt's
// marker. Until the marker shows up every line counts.
func (c *Controller) firstOutcome(a *attempt, lines []string) gowpasupplicant.Event {
	if !a.sawMarker {
		marker := markerText(c.gen)
		for i, line := range lines {
			if strings.Contains(line, marker) {
				a.sawMarker = true
				lines = lines[i+1:]
				break
			}
		}
	}
	return gowpasupplicant.FirstEvent(lines)
}

func (c *Controller) succeed() tea.Cmd {
	a := c.attempt
	a.connected = true
	c.metrics.ObserveConnect("connected", a.started)
	c.logger.Infof("Associated with %s", a.target.BSSID)
	c.phase = "Obtaining IP address"
	c.setState(Connected)
	return c.connectedCmd(c.gen)
}

// fail cleans up the attempt and then presents the failure. A saved network
// whose stored key was just rejected is removed along with anything added.
func (c *Controller) fail(reason FailureReason, err error, canRetry bool) tea.Cmd {
	a := c.attempt
	c.metrics.ObserveConnect(reason.String(), a.started)
	var ids []int
	if a.added || (reason == ReasonCredentialRejected && a.id >= 0) {
		ids = append(ids, a.id)
	}
	c.pending = &FailedView{Target: a.target, Reason: reason, Err: err, CanRetryPassword: canRetry && !a.target.Open}
	c.attempt = nil
	c.phase = "Cleaning up"
	return c.cleanupCmd(c.gen, ids, true)
}

func (c *Controller) onCleanup(msg cleanupMsg) tea.Cmd {
	c.cleanups--
	if c.state == ShuttingDown {
		return c.maybeShutdown()
	}
	if msg.gen != c.gen || c.pending == nil {
		return nil
	}
	c.failure = c.pending
	c.pending = nil
	c.setState(ConnectionFailed)
	return nil
}

func (c *Controller) onConnected(msg connectedMsg) tea.Cmd {
	if msg.gen != c.gen || c.state != Connected || c.attempt == nil {
		return nil
	}
	name := c.attempt.target.Name()
	c.attempt = nil
	c.status = msg.status
	switch {
	case msg.dhcpErr != nil:
		c.logger.Errorf("DHCP failed after associating with %s: %v", name, msg.dhcpErr)
		c.notice = fmt.Sprintf("Connected to %s, but no address was obtained", name)
	case msg.saveErr != nil:
		c.logger.Warnf("Could not save supplicant config: %v", msg.saveErr)
		c.notice = fmt.Sprintf("Connected to %s (configuration not saved)", name)
	default:
		c.notice = fmt.Sprintf("Connected to %s", name)
	}
	c.setState(PresentingResults)
	return nil
}

// --- View ---

// View returns the variant the UI should render for the current state.
func (c *Controller) View() View {
	switch c.state {
	case Scanning:
		return ScanningView{Pass: c.scanner.Current(), Passes: c.scanner.Passes()}
	case PresentingResults:
		return ResultsView{
			Visible: c.results.Visible,
			Hidden:  c.results.Hidden,
			Status:  c.status,
			ScanErr: c.scanErr,
			Notice:  c.notice,
			Busy:    c.lookup,
		}
	case AwaitingCredentials:
		return c.creds
	case Connecting, VerifyingOutcome, Connected:
		v := ConnectingView{Phase: c.phase, Ticks: c.opts.Verify.Attempts}
		if a := c.attempt; a != nil {
			v.Target, v.Tick = a.target, a.tick
		} else if c.pending != nil {
			v.Target = c.pending.Target
		}
		return v
	case ConnectionFailed:
		if c.failure != nil {
			return *c.failure
		}
		return FailedView{}
	case Disconnecting:
		return DisconnectingView{}
	case ShuttingDown:
		return ShuttingDownView{}
	}
	return IdleView{}
}
