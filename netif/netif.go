// Package netif looks up network interfaces over rtnetlink.
package netif

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/jsimonetti/rtnetlink"
)

// ErrNoInterface means the named interface does not exist.
var ErrNoInterface = errors.New("no such interface")

// Prober answers questions about interfaces through an rtnetlink socket.
type Prober struct {
	conn *rtnetlink.Conn
	// sysfs root, overridable in tests.
	sysfs string
}

// Dial opens an rtnetlink connection.
func Dial() (*Prober, error) {
	conn, err := rtnetlink.Dial(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rtnetlink: %w", err)
	}
	return &Prober{conn: conn, sysfs: "/sys/class/net"}, nil
}

// Close releases the netlink socket.
func (p *Prober) Close() error {
	return p.conn.Close()
}

// Lookup returns the link for name or ErrNoInterface.
func (p *Prober) Lookup(name string) (rtnetlink.LinkMessage, error) {
	links, err := p.conn.Link.List()
	if err != nil {
		return rtnetlink.LinkMessage{}, fmt.Errorf("failed to list links: %w", err)
	}
	link, ok := findLink(links, name)
	if !ok {
		return rtnetlink.LinkMessage{}, fmt.Errorf("%w: %s", ErrNoInterface, name)
	}
	return link, nil
}

// IPv4 returns the first IPv4 address of name, or "" if it has none.
func (p *Prober) IPv4(name string) (string, error) {
	link, err := p.Lookup(name)
	if err != nil {
		return "", err
	}
	addrs, err := p.conn.Address.List()
	if err != nil {
		return "", fmt.Errorf("failed to list addresses: %w", err)
	}
	if ip := firstIPv4(addrs, link.Index); ip != nil {
		return ip.String(), nil
	}
	return "", nil
}

// IsWireless reports whether the kernel exposes name as a wireless device.
func (p *Prober) IsWireless(name string) bool {
	_, err := os.Stat(filepath.Join(p.sysfs, name, "wireless"))
	return err == nil
}

func findLink(links []rtnetlink.LinkMessage, name string) (rtnetlink.LinkMessage, bool) {
	for _, link := range links {
		if link.Attributes != nil && link.Attributes.Name == name {
			return link, true
		}
	}
	return rtnetlink.LinkMessage{}, false
}

func firstIPv4(addrs []rtnetlink.AddressMessage, index uint32) net.IP {
	for _, addr := range addrs {
		if addr.Index != index || addr.Attributes == nil {
			continue
		}
		if ip4 := addr.Attributes.Address.To4(); ip4 != nil {
			return ip4
		}
	}
	return nil
}
