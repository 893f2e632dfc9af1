package netif

import (
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/jsimonetti/rtnetlink"
)

func TestFindLink(t *testing.T) {
	links := []rtnetlink.LinkMessage{
		{Index: 1, Attributes: &rtnetlink.LinkAttributes{Name: "lo"}},
		{Index: 2},
		{Index: 3, Attributes: &rtnetlink.LinkAttributes{Name: "wlan0"}},
	}
	link, ok := findLink(links, "wlan0")
	if !ok || link.Index != 3 {
		t.Fatalf("findLink(wlan0) = %+v, %v", link, ok)
	}
	if _, ok := findLink(links, "wlan1"); ok {
		t.Fatal("wlan1 should not be found")
	}
}

func TestFirstIPv4(t *testing.T) {
	addrs := []rtnetlink.AddressMessage{
		{Index: 1, Attributes: &rtnetlink.AddressAttributes{Address: net.ParseIP("127.0.0.1")}},
		{Index: 3, Attributes: &rtnetlink.AddressAttributes{Address: net.ParseIP("fe80::1")}},
		{Index: 3},
		{Index: 3, Attributes: &rtnetlink.AddressAttributes{Address: net.ParseIP("192.168.1.20")}},
	}
	if ip := firstIPv4(addrs, 3); ip.String() != "192.168.1.20" {
		t.Fatalf("firstIPv4 = %v", ip)
	}
	if ip := firstIPv4(addrs, 9); ip != nil {
		t.Fatalf("firstIPv4 for unknown index = %v", ip)
	}
}

func TestIsWireless(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "wlan0", "wireless"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "eth0"), 0o755); err != nil {
		t.Fatal(err)
	}
	p := &Prober{sysfs: root}
	if !p.IsWireless("wlan0") || p.IsWireless("eth0") {
		t.Fatal("IsWireless misreports sysfs entries")
	}
}
