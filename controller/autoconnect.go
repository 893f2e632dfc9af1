package controller

import (
	"context"
	"errors"
	"time"

	"wpatui/poll"
)

// AutoConnect is the non-interactive mode: it lets the daemon associate
// with a saved network and obtains a lease. It reports true only if the
// daemon completed association and the interface holds an IPv4 address.
// It never touches the interactive state.
func (c *Controller) AutoConnect(ctx context.Context) bool {
	iface := c.sup.Interface()
	started := time.Now()
	if c.dhcp != nil {
		if err := c.dhcp.Release(ctx); err != nil {
			c.logger.Warnf("DHCP release before autoconnect failed: %v", err)
		}
	}

	err := c.opts.AutoConnect.Until(ctx, func(ctx context.Context) (bool, error) {
		return c.sup.Status(ctx).Connected(), nil
	})
	if err != nil {
		if errors.Is(err, poll.ErrExhausted) {
			c.logger.Infof("No saved network associated on %s within %s", iface, c.opts.AutoConnect.Total())
		} else {
			c.logger.Warnf("Autoconnect on %s interrupted: %v", iface, err)
		}
		c.metrics.ObserveConnect("timed_out", time.Time{})
		return false
	}

	if c.dhcp != nil {
		if err := c.dhcp.Acquire(ctx); err != nil {
			c.logger.Errorf("DHCP acquire during autoconnect failed: %v", err)
		}
	}
	if err := poll.Sleep(ctx, c.opts.Settle); err != nil {
		return false
	}

	st := c.sup.Status(ctx)
	if !st.Connected() {
		c.logger.Infof("Association on %s lost after DHCP", iface)
		c.metrics.ObserveConnect("disconnected", time.Time{})
		return false
	}
	ip := st.IPAddress
	if c.opts.Addresses != nil {
		addr, err := c.opts.Addresses.IPv4(iface)
		switch {
		case err != nil:
			c.logger.Warnf("Address lookup on %s failed: %v", iface, err)
		case addr != "":
			ip = addr
		}
	}
	if ip == "" {
		c.logger.Infof("Associated with %s but %s has no IPv4 address", st.SSID, iface)
		c.metrics.ObserveConnect("no_address", time.Time{})
		return false
	}
	c.logger.Infof("Autoconnected to %s on %s with %s", st.SSID, iface, ip)
	c.metrics.ObserveConnect("connected", started)
	return true
}
