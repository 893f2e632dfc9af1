// Package dhcp acquires and releases IPv4 leases with the system DHCP client.
package dhcp

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Supported client binaries.
const (
	Dhclient = "dhclient"
	Dhcpcd   = "dhcpcd"
	Udhcpc   = "udhcpc"
)

// Runner executes a program and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Client runs one DHCP client binary against one interface.
type Client struct {
	kind   string
	iface  string
	run    Runner
	logger *logrus.Logger
}

// New returns a Client for kind, which must be one of the supported binaries.
func New(kind, iface string, run Runner, logger *logrus.Logger) (*Client, error) {
	switch kind {
	case Dhclient, Dhcpcd, Udhcpc:
	default:
		return nil, fmt.Errorf("unsupported dhcp client %q", kind)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{kind: kind, iface: iface, run: run, logger: logger}, nil
}

// Kind returns the client binary name.
func (c *Client) Kind() string { return c.kind }

func (c *Client) acquireArgs() []string {
	switch c.kind {
	case Dhcpcd:
		return []string{"-n", c.iface}
	case Udhcpc:
		return []string{"-i", c.iface, "-n", "-q"}
	default:
		return []string{c.iface}
	}
}

func (c *Client) releaseArgs() []string {
	switch c.kind {
	case Dhcpcd:
		return []string{"-k", c.iface}
	case Udhcpc:
		// udhcpc in -q mode exits after the lease; releasing means a fresh
		// run that sends DHCPRELEASE on exit.
		return []string{"-i", c.iface, "-n", "-q", "-R"}
	default:
		return []string{"-r", c.iface}
	}
}

// Acquire requests a lease for the interface.
func (c *Client) Acquire(ctx context.Context) error {
	c.logger.Infof("Requesting DHCP lease on %s with %s", c.iface, c.kind)
	if _, err := c.run(ctx, c.kind, c.acquireArgs()...); err != nil {
		return fmt.Errorf("dhcp acquire on %s failed: %w", c.iface, err)
	}
	return nil
}

// Release gives up the current lease.
func (c *Client) Release(ctx context.Context) error {
	c.logger.Infof("Releasing DHCP lease on %s with %s", c.iface, c.kind)
	if _, err := c.run(ctx, c.kind, c.releaseArgs()...); err != nil {
		return fmt.Errorf("dhcp release on %s failed: %w", c.iface, err)
	}
	return nil
}
