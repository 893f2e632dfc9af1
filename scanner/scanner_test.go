package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

type fakeBackend struct {
	passes  [][]string
	errs    []error
	calls   int
	trigErr error
}

func (f *fakeBackend) ScanTrigger(context.Context) error { return f.trigErr }

func (f *fakeBackend) ScanResults(context.Context) ([]string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.passes) {
		return f.passes[i], nil
	}
	return nil, nil
}

func runCycle(t *testing.T, s *Scanner) (Results, error) {
	t.Helper()
	for {
		res, err := s.RunPass(context.Background())
		if s.Record(res, err) {
			return s.Finish()
		}
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    ScanResult
		wantErr bool
	}{
		{
			name: "wpa2 2.4GHz",
			line: "AA:BB:CC:DD:EE:01\t2437\t-55\t[WPA2-PSK-CCMP][ESS]\tHome",
			want: ScanResult{SSID: "Home", Quality: 90, Security: "[WPA2-PSK-CCMP]", Flags: "[WPA2-PSK-CCMP][ESS]",
				BSSID: "aa:bb:cc:dd:ee:01", Channel: 6, SignalDBm: -55, SSIDStatus: SSIDVisible},
		},
		{
			name: "open 5GHz",
			line: "aa:bb:cc:dd:ee:02\t5180\t-30\t[ESS]\tCafe",
			want: ScanResult{SSID: "Cafe", Quality: 100, Security: "[ESS]", Flags: "[ESS]",
				BSSID: "aa:bb:cc:dd:ee:02", Channel: 36, SignalDBm: -30, SSIDStatus: SSIDVisible},
		},
		{
			name: "empty ssid is hidden",
			line: "aa:bb:cc:dd:ee:03\t2412\t-80\t[WPA2-PSK-CCMP][ESS]\t",
			want: ScanResult{Quality: 40, Security: "[WPA2-PSK-CCMP]", Flags: "[WPA2-PSK-CCMP][ESS]",
				BSSID: "aa:bb:cc:dd:ee:03", Channel: 1, SignalDBm: -80, SSIDStatus: SSIDHidden},
		},
		{
			name: "nul ssid is hidden",
			line: "aa:bb:cc:dd:ee:04\t2484\t-120\t[ESS]\t\\x00\\x00\\x00",
			want: ScanResult{Quality: 0, Security: "[ESS]", Flags: "[ESS]",
				BSSID: "aa:bb:cc:dd:ee:04", Channel: 14, SignalDBm: -120, SSIDStatus: SSIDHidden},
		},
		{
			name: "missing ssid column is unresolved",
			line: "aa:bb:cc:dd:ee:05\t9999\t-60\t[ESS]",
			want: ScanResult{Quality: 80, Security: "[ESS]", Flags: "[ESS]",
				BSSID: "aa:bb:cc:dd:ee:05", Channel: 0, SignalDBm: -60, SSIDStatus: SSIDUnresolved},
		},
		{
			name: "escaped ssid is decoded",
			line: "aa:bb:cc:dd:ee:06\tbogus\t-60\t[ESS]\tsay \\\"hi\\\"",
			want: ScanResult{SSID: `say "hi"`, Quality: 80, Security: "[ESS]", Flags: "[ESS]",
				BSSID: "aa:bb:cc:dd:ee:06", Channel: 0, SignalDBm: -60, SSIDStatus: SSIDVisible},
		},
		{name: "bad bssid", line: "zz\t2437\t-55\t[ESS]\tX", wantErr: true},
		{name: "bad level", line: "aa:bb:cc:dd:ee:07\t2437\tloud\t[ESS]\tX", wantErr: true},
		{name: "too few fields", line: "aa:bb:cc:dd:ee:08\t2437", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ParseLine = %+v\nwant        %+v", got, tt.want)
			}
		})
	}
}

func TestFrequencyToChannel(t *testing.T) {
	tests := map[int]int{2412: 1, 2437: 6, 2472: 13, 2484: 14, 5180: 36, 5825: 165, 4920: 184, 2413: 0, 6115: 0}
	for freq, want := range tests {
		if got := FrequencyToChannel(freq); got != want {
			t.Errorf("FrequencyToChannel(%d) = %d, want %d", freq, got, want)
		}
	}
}

func TestQualityFromDBm(t *testing.T) {
	tests := map[int]int{-100: 0, -75: 50, -50: 100, -20: 100, -110: 0}
	for dbm, want := range tests {
		if got := QualityFromDBm(dbm); got != want {
			t.Errorf("QualityFromDBm(%d) = %d, want %d", dbm, got, want)
		}
	}
}

func TestDisplayNameAndOpen(t *testing.T) {
	r := ScanResult{SSIDStatus: SSIDUnresolved, Flags: "[ESS]"}
	if r.DisplayName() != HiddenSSID || !r.IsOpen() || r.ChannelLabel() != "?" {
		t.Errorf("unexpected rendering for %+v", r)
	}
	r = ScanResult{SSID: "x", Flags: "[WPA2-PSK-CCMP][ESS]", Channel: 11}
	if r.DisplayName() != "x" || r.IsOpen() || r.ChannelLabel() != "11" {
		t.Errorf("unexpected rendering for %+v", r)
	}
}

func TestScannerMergesPasses(t *testing.T) {
	b := &fakeBackend{passes: [][]string{
		{"aa:bb:cc:dd:ee:01\t2437\t-70\t[WPA2-PSK-CCMP][ESS]\tHome"},
		{"aa:bb:cc:dd:ee:01\t2437\t-50\t[WPA2-PSK-CCMP][ESS]\tHome", "garbage line"},
		{"aa:bb:cc:dd:ee:02\t2412\t-60\t[ESS]\t"},
	}}
	s := New(b, 3, quietLogger())
	res, err := runCycle(t, s)
	if err != nil {
		t.Fatal(err)
	}
	if b.calls != 3 {
		t.Fatalf("ScanResults called %d times, want 3", b.calls)
	}
	if len(res.Visible) != 1 || res.Visible[0].SignalDBm != -50 {
		t.Fatalf("Visible = %+v, want last-seen Home", res.Visible)
	}
	if len(res.Hidden) != 1 || res.Hidden[0].BSSID != "aa:bb:cc:dd:ee:02" {
		t.Fatalf("Hidden = %+v", res.Hidden)
	}
	if s.Current() != 1 {
		t.Errorf("pass counter not reset: %d", s.Current())
	}
}

func TestScannerSortOrder(t *testing.T) {
	b := &fakeBackend{passes: [][]string{{
		"aa:bb:cc:dd:ee:03\t2437\t-60\t[ESS]\tC",
		"aa:bb:cc:dd:ee:01\t2437\t-60\t[ESS]\tA",
		"aa:bb:cc:dd:ee:02\t2437\t-40\t[ESS]\tB",
	}}}
	res, err := runCycle(t, New(b, 1, quietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, r := range res.Visible {
		got = append(got, r.SSID)
	}
	if len(got) != 3 || got[0] != "B" || got[1] != "A" || got[2] != "C" {
		t.Fatalf("order = %v, want [B A C]", got)
	}
}

func TestScannerPartialFailure(t *testing.T) {
	b := &fakeBackend{
		passes: [][]string{nil, {"aa:bb:cc:dd:ee:01\t2437\t-60\t[ESS]\tA"}},
		errs:   []error{errors.New("busy")},
	}
	res, err := runCycle(t, New(b, 2, quietLogger()))
	if err != nil {
		t.Fatalf("one good pass should succeed, got %v", err)
	}
	if len(res.Visible) != 1 {
		t.Fatalf("Visible = %+v", res.Visible)
	}
}

func TestScannerAllPassesFail(t *testing.T) {
	b := &fakeBackend{trigErr: errors.New("daemon gone")}
	s := New(b, 3, quietLogger())
	res, err := runCycle(t, s)
	if !errors.Is(err, ErrScanFailed) {
		t.Fatalf("err = %v, want ErrScanFailed", err)
	}
	if len(res.All()) != 0 {
		t.Fatalf("expected empty results, got %+v", res)
	}
	if s.Current() != 1 {
		t.Errorf("pass counter not reset after failure: %d", s.Current())
	}
}

func TestScannerEmptyAirIsNotFailure(t *testing.T) {
	res, err := runCycle(t, New(&fakeBackend{}, 3, quietLogger()))
	if err != nil {
		t.Fatalf("no networks should not be an error: %v", err)
	}
	if len(res.All()) != 0 {
		t.Fatalf("expected nothing, got %+v", res)
	}
}
