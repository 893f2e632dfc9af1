package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestWriteTextfile(t *testing.T) {
	m := New("wlan0")
	m.ObserveScanPass(nil)
	m.ObserveScanPass(nil)
	m.ObserveScanPass(errors.New("busy"))
	m.ObserveConnect("connected", time.Now().Add(-2*time.Second))

	path := filepath.Join(t.TempDir(), "wpatui.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		`wpatui_scan_passes_total{interface="wlan0",result="ok"} 2`,
		`wpatui_scan_passes_total{interface="wlan0",result="failed"} 1`,
		`wpatui_connect_attempts_total{interface="wlan0",outcome="connected"} 1`,
		`wpatui_connect_duration_seconds_count{interface="wlan0"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveScanPass(nil)
	m.ObserveConnect("timed_out", time.Now())
	if err := m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatal(err)
	}
}
