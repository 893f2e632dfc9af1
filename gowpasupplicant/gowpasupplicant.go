// wpatui/gowpasupplicant/gowpasupplicant.go
package gowpasupplicant

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// --- Constants for wpa_cli commands and network fields ---
const (
	CmdScan          = "scan"
	CmdScanResults   = "scan_results"
	CmdAddNetwork    = "add_network"
	CmdSetNetwork    = "set_network"
	CmdEnableNetwork = "enable_network"
	CmdSelectNetwork = "select_network"
	CmdRemoveNetwork = "remove_network"
	CmdListNetworks  = "list_networks"
	CmdDisconnect    = "disconnect"
	CmdSaveConfig    = "save_config"
	CmdStatus        = "status"
	CmdNote          = "note"
	CmdRelog         = "relog"
	CmdPing          = "ping"

	FieldBSSID    = "bssid"
	FieldSSID     = "ssid"
	FieldPSK      = "psk"
	FieldKeyMgmt  = "key_mgmt"
	FieldScanSSID = "scan_ssid"

	KeyMgmtNone = "NONE"

	replyOK       = "OK"
	replyPong     = "PONG"
	replyFail     = "FAIL"
	replyFailBusy = "FAIL-BUSY"
)

var (
	// ErrBackendUnavailable means the control daemon could not be reached.
	ErrBackendUnavailable = errors.New("supplicant backend unavailable")
	// ErrCommandRejected means the daemon answered a command with a failure reply.
	ErrCommandRejected = errors.New("supplicant command rejected")
	// ErrParse means the daemon answered with output that could not be parsed.
	ErrParse = errors.New("malformed supplicant output")
)

// CommandError describes a failed wpa_cli invocation. It unwraps to one of the
// package sentinels and to the underlying process error, if any.
type CommandError struct {
	Args  []string
	Reply string
	Kind  error
	Err   error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("wpa_cli %s: %v", strings.Join(e.Args, " "), e.Kind)
	if e.Reply != "" {
		msg += fmt.Sprintf(" (reply %q)", e.Reply)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Field returns the network field a rejected set_network targeted, or "".
func (e *CommandError) Field() string {
	if len(e.Args) >= 3 && e.Args[0] == CmdSetNetwork {
		return e.Args[2]
	}
	return ""
}

// Runner executes a program and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs the program with os/exec, folding stderr into the error.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	stderrStr := strings.TrimSpace(stderr.String())
	if err != nil && stderrStr != "" {
		return stdout.String(), fmt.Errorf("%s failed: %s (underlying error: %w)", name, stderrStr, err)
	}
	if err != nil {
		return stdout.String(), fmt.Errorf("%s failed: %w", name, err)
	}
	return stdout.String(), nil
}

// Options configures a Client.
type Options struct {
	// CLI is the wpa_cli binary. Defaults to "wpa_cli".
	CLI string
	// LogFile is the file the daemon writes its event log to.
	LogFile string
	// Runner overrides process execution. Defaults to ExecRunner.
	Runner Runner
}

// Client talks to one wpa_supplicant interface through wpa_cli.
type Client struct {
	iface   string
	cli     string
	logFile string
	run     Runner
	logger  *logrus.Logger
}

// NewClient returns a client bound to iface.
func NewClient(iface string, opts Options, logger *logrus.Logger) *Client {
	if opts.CLI == "" {
		opts.CLI = "wpa_cli"
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		iface:   iface,
		cli:     opts.CLI,
		logFile: opts.LogFile,
		run:     opts.Runner,
		logger:  logger,
	}
}

// Interface returns the wireless interface the client drives.
func (c *Client) Interface() string { return c.iface }

// LogFile returns the path of the daemon event log.
func (c *Client) LogFile() string { return c.logFile }

// --- Core wpa_cli interaction ---

func (c *Client) runWpaCli(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-i", c.iface}, args...)
	c.logger.Debugf("Executing wpa_cli command: %v", redact(args))
	out, err := c.run(ctx, c.cli, full...)
	reply := strings.TrimSpace(out)
	if strings.HasPrefix(lastLine(reply), replyFail) {
		c.logger.Warnf("wpa_cli %s rejected: %s", args[0], lastLine(reply))
		return reply, &CommandError{Args: redact(args), Reply: lastLine(reply), Kind: ErrCommandRejected, Err: err}
	}
	if err != nil {
		c.logger.Errorf("wpa_cli %s failed: %v", args[0], err)
		return reply, &CommandError{Args: redact(args), Reply: reply, Kind: ErrBackendUnavailable, Err: err}
	}
	return reply, nil
}

// runExpectOK runs a command whose only successful reply is OK.
func (c *Client) runExpectOK(ctx context.Context, args ...string) error {
	reply, err := c.runWpaCli(ctx, args...)
	if err != nil {
		return err
	}
	if lastLine(reply) != replyOK {
		return &CommandError{Args: redact(args), Reply: reply, Kind: ErrCommandRejected}
	}
	return nil
}

// --- Public API ---

// Ping checks that the control interface answers.
func (c *Client) Ping(ctx context.Context) error {
	reply, err := c.runWpaCli(ctx, CmdPing)
	if err != nil {
		return err
	}
	if lastLine(reply) != replyPong {
		return &CommandError{Args: []string{CmdPing}, Reply: reply, Kind: ErrBackendUnavailable}
	}
	return nil
}

// ScanTrigger asks the daemon to start an asynchronous scan. A scan that is
// already running is not an error.
func (c *Client) ScanTrigger(ctx context.Context) error {
	err := c.runExpectOK(ctx, CmdScan)
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Reply == replyFailBusy {
		c.logger.Debug("Scan already in progress")
		return nil
	}
	return err
}

// ScanResults returns the raw scan_results lines without the header line.
func (c *Client) ScanResults(ctx context.Context) ([]string, error) {
	out, err := c.run(ctx, c.cli, "-i", c.iface, CmdScanResults)
	if err != nil {
		return nil, &CommandError{Args: []string{CmdScanResults}, Kind: ErrBackendUnavailable, Err: err}
	}
	return parseScanResultsOutput(out)
}

// AddNetwork creates a new, disabled network block and returns its id.
func (c *Client) AddNetwork(ctx context.Context) (int, error) {
	reply, err := c.runWpaCli(ctx, CmdAddNetwork)
	if err != nil {
		return -1, err
	}
	id, convErr := strconv.Atoi(lastLine(reply))
	if convErr != nil {
		return -1, &CommandError{Args: []string{CmdAddNetwork}, Reply: reply, Kind: ErrParse, Err: convErr}
	}
	return id, nil
}

// SetNetwork sets a field of a network block. value is passed verbatim, so
// string fields must already be quoted (see Quote and SSIDValue).
func (c *Client) SetNetwork(ctx context.Context, id int, field, value string) error {
	return c.runExpectOK(ctx, CmdSetNetwork, strconv.Itoa(id), field, value)
}

// EnableNetwork enables a network block.
func (c *Client) EnableNetwork(ctx context.Context, id int) error {
	return c.runExpectOK(ctx, CmdEnableNetwork, strconv.Itoa(id))
}

// SelectNetwork selects a network block and disables all others.
func (c *Client) SelectNetwork(ctx context.Context, id int) error {
	return c.runExpectOK(ctx, CmdSelectNetwork, strconv.Itoa(id))
}

// RemoveNetwork deletes a network block.
func (c *Client) RemoveNetwork(ctx context.Context, id int) error {
	return c.runExpectOK(ctx, CmdRemoveNetwork, strconv.Itoa(id))
}

// Disconnect drops the current association.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.runExpectOK(ctx, CmdDisconnect)
}

// SaveConfig persists the daemon's network blocks to its config file.
func (c *Client) SaveConfig(ctx context.Context) error {
	return c.runExpectOK(ctx, CmdSaveConfig)
}

// Note writes text into the daemon's event log.
func (c *Client) Note(ctx context.Context, text string) error {
	return c.runExpectOK(ctx, CmdNote, text)
}

// Relog makes the daemon reopen its log file.
func (c *Client) Relog(ctx context.Context) error {
	return c.runExpectOK(ctx, CmdRelog)
}

// Status queries the daemon state. It never fails: an unreachable daemon or
// unreadable output reads as disconnected.
func (c *Client) Status(ctx context.Context) Status {
	reply, err := c.runWpaCli(ctx, CmdStatus)
	if err != nil {
		c.logger.Debugf("Status unavailable, reporting disconnected: %v", err)
		return Status{State: StateDisconnected}
	}
	return parseStatus(reply)
}

// ListNetworks returns the network blocks the daemon knows about.
func (c *Client) ListNetworks(ctx context.Context) ([]SavedNetwork, error) {
	reply, err := c.runWpaCli(ctx, CmdListNetworks)
	if err != nil {
		return nil, err
	}
	networks, skipped := parseListNetworks(reply)
	if skipped > 0 {
		c.logger.Warnf("Skipped %d malformed list_networks lines", skipped)
	}
	return networks, nil
}

// FindSavedNetwork looks up a configured network block by BSSID.
func (c *Client) FindSavedNetwork(ctx context.Context, bssid string) (int, bool, error) {
	networks, err := c.ListNetworks(ctx)
	if err != nil {
		return -1, false, err
	}
	for _, n := range networks {
		if strings.EqualFold(n.BSSID, bssid) {
			return n.ID, true, nil
		}
	}
	return -1, false, nil
}

// Quote wraps s in double quotes as wpa_cli expects for string fields.
func Quote(s string) string {
	return `"` + s + `"`
}

// SSIDValue encodes an SSID for set_network. Printable SSIDs without quote
// characters are quoted; anything else is sent as hex.
func SSIDValue(ssid string) string {
	if utf8.ValidString(ssid) && !strings.ContainsAny(ssid, "\"\\") && isPrintable(ssid) {
		return Quote(ssid)
	}
	return hex.EncodeToString([]byte(ssid))
}

func isPrintable(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// redact hides passphrases from logs and errors.
func redact(args []string) []string {
	if len(args) >= 4 && args[0] == CmdSetNetwork && args[2] == FieldPSK {
		out := append([]string(nil), args...)
		out[3] = `"********"`
		return out
	}
	return args
}
