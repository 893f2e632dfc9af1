package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	"wpatui/gowpasupplicant"
	"wpatui/poll"
)

type fakeAddresses struct {
	ip  string
	err error
}

func (a fakeAddresses) IPv4(string) (string, error) { return a.ip, a.err }

func TestAutoConnect(t *testing.T) {
	completed := gowpasupplicant.Status{State: gowpasupplicant.StateCompleted, SSID: "Home", BSSID: "aa:bb:cc:dd:ee:01"}
	tests := []struct {
		name   string
		status gowpasupplicant.Status
		addrs  AddressSource
		want   bool
		wantAq int
	}{
		{name: "associated with address", status: completed, addrs: fakeAddresses{ip: "192.168.1.20"}, want: true, wantAq: 1},
		{name: "associated without address", status: completed, addrs: fakeAddresses{}, want: false, wantAq: 1},
		{name: "address lookup fails", status: completed, addrs: fakeAddresses{err: errors.New("netlink")}, want: false, wantAq: 1},
		{name: "status address without netlink", status: gowpasupplicant.Status{State: gowpasupplicant.StateCompleted, IPAddress: "10.0.0.2"}, want: true, wantAq: 1},
		{name: "never associates", status: gowpasupplicant.Status{State: gowpasupplicant.StateScanning}, addrs: fakeAddresses{ip: "192.168.1.20"}, want: false, wantAq: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeSupplicant()
			f.status = tt.status
			d := &fakeDHCP{}
			c := New(context.Background(), f, d, Options{
				AutoConnect: poll.Budget{Attempts: 3, Interval: time.Millisecond},
				Settle:      time.Millisecond,
				Addresses:   tt.addrs,
				Logger:      quietLogger(),
			})
			if got := c.AutoConnect(context.Background()); got != tt.want {
				t.Fatalf("AutoConnect() = %v, want %v", got, tt.want)
			}
			if d.releases != 1 || d.acquires != tt.wantAq {
				t.Errorf("releases = %d acquires = %d, want 1 and %d", d.releases, d.acquires, tt.wantAq)
			}
			if c.State() != Idle {
				t.Errorf("autoconnect changed state to %s", c.State())
			}
		})
	}
}
