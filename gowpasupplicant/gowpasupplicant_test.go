package gowpasupplicant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"wpatui/poll"
)

type fakeReply struct {
	out string
	err error
}

// fakeRunner answers wpa_cli invocations by their command arguments.
type fakeRunner struct {
	replies map[string]fakeReply
	calls   []string
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) (string, error) {
	if name == "wpa_cli" && len(args) >= 2 && args[0] == "-i" {
		args = args[2:]
	}
	key := strings.Join(args, " ")
	f.calls = append(f.calls, name+" "+key)
	if r, ok := f.replies[key]; ok {
		return r.out, r.err
	}
	return "OK\n", nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestClient(f *fakeRunner, logFile string) *Client {
	return NewClient("wlan0", Options{LogFile: logFile, Runner: f.run}, quietLogger())
}

func TestCommandErrorMapping(t *testing.T) {
	exitErr := errors.New("exit status 255")
	tests := []struct {
		name  string
		reply fakeReply
		want  error
	}{
		{name: "ok", reply: fakeReply{out: "OK\n"}},
		{name: "fail reply", reply: fakeReply{out: "FAIL\n"}, want: ErrCommandRejected},
		{name: "fail reply with exit code", reply: fakeReply{out: "FAIL\n", err: exitErr}, want: ErrCommandRejected},
		{name: "daemon unreachable", reply: fakeReply{err: exitErr}, want: ErrBackendUnavailable},
		{name: "unexpected reply", reply: fakeReply{out: "UNKNOWN COMMAND\n"}, want: ErrCommandRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRunner{replies: map[string]fakeReply{"enable_network 3": tt.reply}}
			err := newTestClient(f, "").EnableNetwork(context.Background(), 3)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSetNetworkRejectionCarriesField(t *testing.T) {
	f := &fakeRunner{replies: map[string]fakeReply{`set_network 0 psk "short"`: {out: "FAIL\n"}}}
	err := newTestClient(f, "").SetNetwork(context.Background(), 0, FieldPSK, Quote("short"))
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if cmdErr.Field() != FieldPSK {
		t.Errorf("Field() = %q, want psk", cmdErr.Field())
	}
	if strings.Contains(err.Error(), "short") {
		t.Errorf("passphrase leaked into error: %v", err)
	}
}

func TestScanTriggerToleratesBusy(t *testing.T) {
	f := &fakeRunner{replies: map[string]fakeReply{"scan": {out: "FAIL-BUSY\n"}}}
	if err := newTestClient(f, "").ScanTrigger(context.Background()); err != nil {
		t.Fatalf("FAIL-BUSY should be tolerated, got %v", err)
	}
}

func TestScanResults(t *testing.T) {
	out := "bssid / frequency / signal level / flags / ssid\n" +
		"aa:bb:cc:dd:ee:01\t2437\t-55\t[WPA2-PSK-CCMP][ESS]\tHome \n" +
		"\n" +
		"aa:bb:cc:dd:ee:02\t5180\t-70\t[ESS]\t\n"
	f := &fakeRunner{replies: map[string]fakeReply{"scan_results": {out: out}}}
	lines, err := newTestClient(f, "").ScanResults(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), lines)
	}
	if !strings.HasSuffix(lines[0], "Home ") {
		t.Errorf("trailing SSID space lost: %q", lines[0])
	}

	f.replies["scan_results"] = fakeReply{out: "garbage\n"}
	if _, err := newTestClient(f, "").ScanResults(context.Background()); !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestAddNetwork(t *testing.T) {
	f := &fakeRunner{replies: map[string]fakeReply{"add_network": {out: "7\n"}}}
	id, err := newTestClient(f, "").AddNetwork(context.Background())
	if err != nil || id != 7 {
		t.Fatalf("AddNetwork = %d, %v", id, err)
	}
	f.replies["add_network"] = fakeReply{out: "nope\n"}
	if _, err := newTestClient(f, "").AddNetwork(context.Background()); !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name  string
		reply fakeReply
		want  Status
	}{
		{
			name: "completed",
			reply: fakeReply{out: "bssid=AA:BB:CC:DD:EE:01\nfreq=2437\nssid=Home Net\nid=0\nwpa_state=COMPLETED\nip_address=192.168.1.20\n"},
			want:  Status{State: StateCompleted, SSID: "Home Net", BSSID: "aa:bb:cc:dd:ee:01", IPAddress: "192.168.1.20"},
		},
		{
			name:  "scanning",
			reply: fakeReply{out: "wpa_state=SCANNING\n"},
			want:  Status{State: StateScanning},
		},
		{
			name:  "missing keys",
			reply: fakeReply{out: "address=00:11:22:33:44:55\n"},
			want:  Status{State: StateDisconnected},
		},
		{
			name:  "unreachable",
			reply: fakeReply{err: errors.New("exit status 255")},
			want:  Status{State: StateDisconnected},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRunner{replies: map[string]fakeReply{"status": tt.reply}}
			got := newTestClient(f, "").Status(context.Background())
			if got != tt.want {
				t.Errorf("Status = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFindSavedNetwork(t *testing.T) {
	out := "network id / ssid / bssid / flags\n" +
		"0\tHome\tAA:BB:CC:DD:EE:01\t[CURRENT]\n" +
		"1\tCafe\tany\t[DISABLED]\n" +
		"x\tbroken\n"
	f := &fakeRunner{replies: map[string]fakeReply{"list_networks": {out: out}}}
	c := newTestClient(f, "")

	id, ok, err := c.FindSavedNetwork(context.Background(), "aa:bb:cc:dd:ee:01")
	if err != nil || !ok || id != 0 {
		t.Fatalf("FindSavedNetwork = %d, %v, %v", id, ok, err)
	}
	if _, ok, _ := c.FindSavedNetwork(context.Background(), "aa:bb:cc:dd:ee:99"); ok {
		t.Fatal("unexpected match for unknown bssid")
	}

	networks, _ := c.ListNetworks(context.Background())
	if len(networks) != 2 || !networks[0].Current {
		t.Fatalf("ListNetworks = %+v", networks)
	}
}

func TestSSIDValue(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "Home", want: `"Home"`},
		{in: "Café", want: `"Café"`},
		{in: `say "hi"`, want: "7361792022686922"},
		{in: "a\x00b", want: "610062"},
	}
	for _, tt := range tests {
		if got := SSIDValue(tt.in); got != tt.want {
			t.Errorf("SSIDValue(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestEventLogResetAndTail(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "events.log")
	if err := os.WriteFile(logFile, []byte("old CTRL-EVENT-CONNECTED\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f := &fakeRunner{}
	c := newTestClient(f, logFile)

	if err := c.ResetEventLog(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(logFile); !os.IsNotExist(err) {
		t.Fatal("old event log should be removed")
	}
	if f.calls[len(f.calls)-1] != "wpa_cli relog" {
		t.Fatalf("expected relog, calls = %v", f.calls)
	}

	lines, next, err := c.TailEventLog(0)
	if err != nil || len(lines) != 0 || next != 0 {
		t.Fatalf("missing log: lines=%v next=%d err=%v", lines, next, err)
	}

	write := func(s string) {
		t.Helper()
		fh, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			t.Fatal(err)
		}
		defer fh.Close()
		if _, err := fh.WriteString(s); err != nil {
			t.Fatal(err)
		}
	}

	write("wlan0: Trying to associate\nwlan0: CTRL-EVENT-DISCON")
	lines, next, err = c.TailEventLog(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || FirstEvent(lines) != EventNone {
		t.Fatalf("lines = %q", lines)
	}

	write("NECTED bssid=aa:bb reason=15\nwlan0: CTRL-EVENT-CONNECTED\n")
	lines, _, err = c.TailEventLog(next)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if ev := FirstEvent(lines); ev != EventDisconnected {
		t.Fatalf("first event = %v, want disconnected", ev)
	}
}

func TestParseEvent(t *testing.T) {
	tests := map[string]Event{
		"wlan0: CTRL-EVENT-CONNECTED - Connection to aa:bb completed": EventConnected,
		"wlan0: CTRL-EVENT-DISCONNECTED bssid=aa:bb reason=3":         EventDisconnected,
		"wlan0: CTRL-EVENT-ASSOC-REJECT bssid=aa:bb status_code=1":    EventAssocReject,
		"wlan0: CTRL-EVENT-AUTH-REJECT aa:bb auth_type=0":             EventAuthReject,
		"wlan0: Trying to associate with aa:bb":                       EventNone,
	}
	for line, want := range tests {
		if got := ParseEvent(line); got != want {
			t.Errorf("ParseEvent(%q) = %v, want %v", line, got, want)
		}
	}
	if EventConnected.IsRejection() || !EventAuthReject.IsRejection() {
		t.Error("IsRejection misclassifies events")
	}
}

func TestDaemonEnsure(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "tbm.log")
	cfg := DaemonConfig{
		ConfigDir: filepath.Join(dir, "etc"),
		CtrlDir:   "/var/run/wpa_supplicant",
		CtrlGroup: "netdev",
		Startup:   poll.Budget{Attempts: 3, Interval: time.Millisecond},
	}

	t.Run("already running", func(t *testing.T) {
		f := &fakeRunner{replies: map[string]fakeReply{"ping": {out: "PONG\n"}}}
		d := NewDaemon(cfg, newTestClient(f, logFile), f.run, quietLogger())
		if err := d.Ensure(context.Background()); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(d.ConfigPath())
		if err != nil {
			t.Fatal(err)
		}
		want := "ctrl_interface=DIR=/var/run/wpa_supplicant GROUP=netdev\nupdate_config=1\n"
		if string(data) != want {
			t.Errorf("config = %q", data)
		}
		for _, call := range f.calls {
			if strings.HasPrefix(call, "wpa_supplicant") {
				t.Fatalf("daemon should not be launched: %v", f.calls)
			}
		}
	})

	t.Run("launch then answer", func(t *testing.T) {
		pings := 0
		f := &fakeRunner{}
		run := func(ctx context.Context, name string, args ...string) (string, error) {
			if name == "wpa_cli" && args[len(args)-1] == "ping" {
				pings++
				if pings == 1 {
					return "", errors.New("exit status 255")
				}
				return "PONG\n", nil
			}
			return f.run(ctx, name, args...)
		}
		d := NewDaemon(cfg, NewClient("wlan0", Options{LogFile: logFile, Runner: run}, quietLogger()), run, quietLogger())
		if err := d.Ensure(context.Background()); err != nil {
			t.Fatal(err)
		}
		want := "wpa_supplicant -i wlan0 -c " + d.ConfigPath() + " -B -f " + logFile
		if len(f.calls) != 1 || f.calls[0] != want {
			t.Fatalf("calls = %v, want %q", f.calls, want)
		}
	})

	t.Run("never answers", func(t *testing.T) {
		f := &fakeRunner{replies: map[string]fakeReply{"ping": {err: errors.New("exit status 255")}}}
		d := NewDaemon(cfg, newTestClient(f, logFile), f.run, quietLogger())
		if err := d.Ensure(context.Background()); !errors.Is(err, ErrBackendUnavailable) {
			t.Fatalf("err = %v, want ErrBackendUnavailable", err)
		}
	})
}
