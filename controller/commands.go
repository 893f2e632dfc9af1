package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"wpatui/gowpasupplicant"
	"wpatui/poll"
	"wpatui/scanner"
)

// --- Messages ---
// Every message carries the generation it was issued under. Messages from
// a superseded scan or attempt are dropped.

// ShutdownMsg is emitted once Quit has finished cleaning up.
type ShutdownMsg struct{}

type scanPassMsg struct {
	gen     int
	results []scanner.ScanResult
	err     error
}

type scanTickMsg struct{ gen int }

type statusMsg struct {
	gen    int
	status gowpasupplicant.Status
}

type lookupMsg struct {
	gen    int
	target Target
	id     int
	found  bool
	err    error
}

type setupMsg struct {
	gen   int
	id    int
	added bool
	err   error
}

type verifyTickMsg struct{ gen int }

type verifyMsg struct {
	gen    int
	lines  []string
	next   int64
	status gowpasupplicant.Status
	err    error
}

type connectedMsg struct {
	gen     int
	status  gowpasupplicant.Status
	dhcpErr error
	saveErr error
}

type cleanupMsg struct{ gen int }

type disconnectedMsg struct {
	gen    int
	status gowpasupplicant.Status
}

const cmdTimeout = 20 * time.Second

// tickAfter waits one budget interval and then delivers msg.
func tickAfter(b poll.Budget, msg tea.Msg) tea.Cmd {
	return tea.Tick(b.Interval, func(time.Time) tea.Msg { return msg })
}

// --- Commands ---
// Commands run off the loop goroutine. They only talk to the external
// clients and never touch controller state.

func (c *Controller) scanPassCmd(gen int) tea.Cmd {
	sc := c.scanner
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, cmdTimeout)
		defer cancel()
		results, err := sc.RunPass(ctx)
		return scanPassMsg{gen: gen, results: results, err: err}
	}
}

func (c *Controller) statusCmd(gen int) tea.Cmd {
	sup := c.sup
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, cmdTimeout)
		defer cancel()
		return statusMsg{gen: gen, status: sup.Status(ctx)}
	}
}

func (c *Controller) lookupCmd(gen int, target Target) tea.Cmd {
	sup := c.sup
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, cmdTimeout)
		defer cancel()
		id, found, err := sup.FindSavedNetwork(ctx, target.BSSID)
		return lookupMsg{gen: gen, target: target, id: id, found: found, err: err}
	}
}

// setupCmd prepares the daemon for an attempt: drop any current
// association, create the network block if needed, reset the event log and
// only then enable and select the network so no outcome event is missed.
func (c *Controller) setupCmd(gen int, target Target, password string) tea.Cmd {
	sup, logger := c.sup, c.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, cmdTimeout)
		defer cancel()

		if st := sup.Status(ctx); st.Connected() || st.BSSID != "" {
			if err := sup.Disconnect(ctx); err != nil {
				logger.Warnf("Disconnect before connecting failed: %v", err)
			}
		}

		id, added := target.SavedID, false
		if id < 0 {
			newID, err := sup.AddNetwork(ctx)
			if err != nil {
				return setupMsg{gen: gen, id: -1, err: err}
			}
			id, added = newID, true
			if err := configureNetwork(ctx, sup, id, target, password); err != nil {
				return setupMsg{gen: gen, id: id, added: added, err: err}
			}
		}

		if err := sup.ResetEventLog(ctx); err != nil {
			return setupMsg{gen: gen, id: id, added: added, err: err}
		}
		if err := sup.Note(ctx, markerText(gen)); err != nil {
			logger.Warnf("Could not write event log marker: %v", err)
		}
		if added {
			if err := sup.EnableNetwork(ctx, id); err != nil {
				return setupMsg{gen: gen, id: id, added: added, err: err}
			}
		}
		if err := sup.SelectNetwork(ctx, id); err != nil {
			return setupMsg{gen: gen, id: id, added: added, err: err}
		}
		return setupMsg{gen: gen, id: id, added: added}
	}
}

func configureNetwork(ctx context.Context, sup Supplicant, id int, target Target, password string) error {
	fields := [][2]string{
		{gowpasupplicant.FieldBSSID, target.BSSID},
		{gowpasupplicant.FieldSSID, gowpasupplicant.SSIDValue(target.ESSID)},
	}
	if target.Open {
		fields = append(fields, [2]string{gowpasupplicant.FieldKeyMgmt, gowpasupplicant.KeyMgmtNone})
	} else {
		fields = append(fields, [2]string{gowpasupplicant.FieldPSK, gowpasupplicant.Quote(password)})
	}
	if target.Hidden {
		fields = append(fields, [2]string{gowpasupplicant.FieldScanSSID, "1"})
	}
	for _, f := range fields {
		if err := sup.SetNetwork(ctx, id, f[0], f[1]); err != nil {
			return err
		}
	}
	return nil
}

func markerText(gen int) string {
	return fmt.Sprintf("wpatui attempt %d", gen)
}

func (c *Controller) verifyCmd(gen int, since int64) tea.Cmd {
	sup := c.sup
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, cmdTimeout)
		defer cancel()
		lines, next, err := sup.TailEventLog(since)
		return verifyMsg{gen: gen, lines: lines, next: next, status: sup.Status(ctx), err: err}
	}
}

func (c *Controller) connectedCmd(gen int) tea.Cmd {
	sup, dhcp := c.sup, c.dhcp
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, cmdTimeout)
		defer cancel()
		msg := connectedMsg{gen: gen}
		if dhcp != nil {
			msg.dhcpErr = dhcp.Acquire(ctx)
		}
		msg.saveErr = sup.SaveConfig(ctx)
		msg.status = sup.Status(ctx)
		return msg
	}
}

// cleanupCmd removes abandoned network blocks and optionally drops the
// association. Failures are logged; cleanup is best effort.
func (c *Controller) cleanupCmd(gen int, ids []int, disconnect bool) tea.Cmd {
	c.cleanups++
	sup, logger := c.sup, c.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.ctx), cmdTimeout)
		defer cancel()
		if disconnect {
			if err := sup.Disconnect(ctx); err != nil {
				logger.Warnf("Disconnect during cleanup failed: %v", err)
			}
		}
		for _, id := range ids {
			if err := sup.RemoveNetwork(ctx, id); err != nil {
				logger.Warnf("Could not remove network %d: %v", id, err)
			}
		}
		return cleanupMsg{gen: gen}
	}
}

func (c *Controller) disconnectCmd(gen int, ids []int) tea.Cmd {
	sup, dhcp, logger := c.sup, c.dhcp, c.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(c.ctx, cmdTimeout)
		defer cancel()
		if dhcp != nil {
			if err := dhcp.Release(ctx); err != nil {
				logger.Warnf("DHCP release failed: %v", err)
			}
		}
		if err := sup.Disconnect(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warnf("Disconnect failed: %v", err)
		}
		for _, id := range ids {
			if err := sup.RemoveNetwork(ctx, id); err != nil {
				logger.Warnf("Could not remove network %d: %v", id, err)
			}
		}
		return disconnectedMsg{gen: gen, status: sup.Status(ctx)}
	}
}

func shutdownCmd() tea.Msg { return ShutdownMsg{} }
