// wpatui/gowpasupplicant/eventlog.go
package gowpasupplicant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// Event is a connection outcome found in the daemon event log.
type Event int

const (
	EventNone Event = iota
	EventConnected
	EventDisconnected
	EventAssocReject
	EventAuthReject
)

const (
	tokenConnected    = "CTRL-EVENT-CONNECTED"
	tokenDisconnected = "CTRL-EVENT-DISCONNECTED"
	tokenAssocReject  = "CTRL-EVENT-ASSOC-REJECT"
	tokenAuthReject   = "CTRL-EVENT-AUTH-REJECT"
)

func (e Event) String() string {
	switch e {
	case EventConnected:
		return "connected"
	case EventDisconnected:
		return "disconnected"
	case EventAssocReject:
		return "assoc-reject"
	case EventAuthReject:
		return "auth-reject"
	default:
		return "none"
	}
}

// IsRejection reports whether the event ends an attempt unsuccessfully.
func (e Event) IsRejection() bool {
	return e == EventDisconnected || e == EventAssocReject || e == EventAuthReject
}

// ParseEvent classifies one event log line.
func ParseEvent(line string) Event {
	switch {
	case strings.Contains(line, tokenConnected):
		return EventConnected
	case strings.Contains(line, tokenDisconnected):
		return EventDisconnected
	case strings.Contains(line, tokenAssocReject):
		return EventAssocReject
	case strings.Contains(line, tokenAuthReject):
		return EventAuthReject
	}
	return EventNone
}

// FirstEvent returns the first outcome event among lines.
func FirstEvent(lines []string) Event {
	for _, line := range lines {
		if ev := ParseEvent(line); ev != EventNone {
			return ev
		}
	}
	return EventNone
}

// ResetEventLog removes the event log and makes the daemon reopen it, so
// only events logged after the call are visible to TailEventLog.
func (c *Client) ResetEventLog(ctx context.Context) error {
	if c.logFile == "" {
		return fmt.Errorf("no event log configured for %s", c.iface)
	}
	if err := os.Remove(c.logFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove event log %s: %w", c.logFile, err)
	}
	return c.Relog(ctx)
}

// TailEventLog reads complete lines written after offset since. It returns
// the lines and the offset to pass on the next call. A missing log yields no
// lines; a log shorter than since is read from the start.
func (c *Client) TailEventLog(since int64) ([]string, int64, error) {
	f, err := os.Open(c.logFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, since, nil
	}
	if err != nil {
		return nil, since, fmt.Errorf("failed to open event log %s: %w", c.logFile, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, since, fmt.Errorf("failed to stat event log %s: %w", c.logFile, err)
	}
	if info.Size() < since {
		c.logger.Debugf("Event log %s shrank below offset %d, rereading", c.logFile, since)
		since = 0
	}
	if _, err := f.Seek(since, io.SeekStart); err != nil {
		return nil, since, fmt.Errorf("failed to seek event log %s: %w", c.logFile, err)
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, since, fmt.Errorf("failed to read event log %s: %w", c.logFile, err)
	}

	// A trailing partial line is left for the next call.
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil, since, nil
	}
	var lines []string
	for _, line := range strings.Split(string(data[:end]), "\n") {
		if line = strings.TrimRight(line, "\r"); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, since + int64(end) + 1, nil
}
