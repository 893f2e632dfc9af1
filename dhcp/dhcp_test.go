package dhcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func TestCommandLines(t *testing.T) {
	tests := []struct {
		kind        string
		wantAcquire string
		wantRelease string
	}{
		{kind: Dhclient, wantAcquire: "dhclient wlan0", wantRelease: "dhclient -r wlan0"},
		{kind: Dhcpcd, wantAcquire: "dhcpcd -n wlan0", wantRelease: "dhcpcd -k wlan0"},
		{kind: Udhcpc, wantAcquire: "udhcpc -i wlan0 -n -q", wantRelease: "udhcpc -i wlan0 -n -q -R"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			var calls []string
			run := func(_ context.Context, name string, args ...string) (string, error) {
				calls = append(calls, strings.Join(append([]string{name}, args...), " "))
				return "", nil
			}
			c, err := New(tt.kind, "wlan0", run, quietLogger())
			if err != nil {
				t.Fatal(err)
			}
			if err := c.Acquire(context.Background()); err != nil {
				t.Fatal(err)
			}
			if err := c.Release(context.Background()); err != nil {
				t.Fatal(err)
			}
			if len(calls) != 2 || calls[0] != tt.wantAcquire || calls[1] != tt.wantRelease {
				t.Fatalf("calls = %q", calls)
			}
		})
	}
}

func TestUnsupportedClient(t *testing.T) {
	if _, err := New("pump", "wlan0", nil, quietLogger()); err == nil {
		t.Fatal("expected error for unsupported client")
	}
}

func TestAcquireWrapsError(t *testing.T) {
	boom := errors.New("exit status 2")
	run := func(context.Context, string, ...string) (string, error) { return "", boom }
	c, _ := New(Dhclient, "wlan0", run, quietLogger())
	if err := c.Acquire(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}
