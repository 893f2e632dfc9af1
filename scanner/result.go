// wpatui/scanner/result.go
package scanner

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// HiddenSSID is shown in place of networks that do not broadcast a name.
const HiddenSSID = "-HIDDEN-"

// SSIDStatus classifies the SSID column of a scan result.
type SSIDStatus int

const (
	// SSIDVisible is a broadcast, decodable network name.
	SSIDVisible SSIDStatus = iota
	// SSIDHidden is an empty or NUL-filled name.
	SSIDHidden
	// SSIDUnresolved is a missing or undecodable name. It is shown as hidden.
	SSIDUnresolved
)

func (s SSIDStatus) String() string {
	switch s {
	case SSIDVisible:
		return "visible"
	case SSIDHidden:
		return "hidden"
	default:
		return "unresolved"
	}
}

// ScanResult is one access point seen in a scan.
type ScanResult struct {
	SSID       string
	Quality    int
	Security   string
	Flags      string
	BSSID      string
	Channel    int
	SignalDBm  int
	SSIDStatus SSIDStatus
}

// Hidden reports whether the network is listed in the hidden panel.
func (r ScanResult) Hidden() bool { return r.SSIDStatus != SSIDVisible }

// DisplayName is the name shown in lists.
func (r ScanResult) DisplayName() string {
	if r.Hidden() {
		return HiddenSSID
	}
	return r.SSID
}

// ChannelLabel renders the channel, "?" when unknown.
func (r ScanResult) ChannelLabel() string {
	if r.Channel <= 0 {
		return "?"
	}
	return strconv.Itoa(r.Channel)
}

// IsOpen reports whether the network needs no passphrase.
func (r ScanResult) IsOpen() bool {
	flags := strings.ToUpper(r.Flags)
	for _, marker := range []string{"WPA", "RSN", "WEP", "SAE", "EAP", "PSK", "OWE"} {
		if strings.Contains(flags, marker) {
			return false
		}
	}
	return true
}

// QualityFromDBm converts a signal level to a 0..100 quality.
func QualityFromDBm(dbm int) int {
	q := 2 * (dbm + 100)
	if q > 100 {
		return 100
	}
	if q < 0 {
		return 0
	}
	return q
}

var flagToken = regexp.MustCompile(`\[[^\]]*\]`)

// securityFromFlags returns the first bracketed flag token.
func securityFromFlags(flags string) string {
	if tok := flagToken.FindString(flags); tok != "" {
		return tok
	}
	return ""
}

// DecodeSSID reverses the escaping wpa_cli applies to SSIDs in scan_results.
// It returns false if an escape sequence is malformed.
func DecodeSSID(raw string) (string, bool) {
	if !strings.ContainsRune(raw, '\\') {
		return raw, true
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(raw) {
			return "", false
		}
		i++
		switch raw[i] {
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'e':
			b.WriteByte(0x1b)
		case 'x':
			if i+2 >= len(raw) {
				return "", false
			}
			v, err := strconv.ParseUint(raw[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteByte(byte(v))
			i += 2
		default:
			return "", false
		}
	}
	return b.String(), true
}

// ClassifySSID decodes the SSID column. present is false when the column
// was missing from the line.
func ClassifySSID(raw string, present bool) (string, SSIDStatus) {
	if !present {
		return "", SSIDUnresolved
	}
	ssid, ok := DecodeSSID(raw)
	if !ok {
		return raw, SSIDUnresolved
	}
	if strings.Trim(ssid, "\x00") == "" {
		return "", SSIDHidden
	}
	if !utf8.ValidString(ssid) {
		return ssid, SSIDUnresolved
	}
	return ssid, SSIDVisible
}

// ParseLine parses one tab separated scan_results line:
// bssid, frequency, signal level, flags, ssid.
func ParseLine(line string) (ScanResult, error) {
	fields := strings.Split(strings.TrimRight(line, "\r\n"), "\t")
	if len(fields) < 4 {
		return ScanResult{}, fmt.Errorf("scan line has %d fields, want at least 4: %q", len(fields), line)
	}
	mac, err := net.ParseMAC(strings.TrimSpace(fields[0]))
	if err != nil {
		return ScanResult{}, fmt.Errorf("invalid bssid in scan line %q: %w", line, err)
	}
	dbm, err := strconv.Atoi(strings.TrimSpace(fields[2]))
	if err != nil {
		return ScanResult{}, fmt.Errorf("invalid signal level in scan line %q: %w", line, err)
	}

	channel := 0
	if freq, err := strconv.Atoi(strings.TrimSpace(fields[1])); err == nil {
		channel = FrequencyToChannel(freq)
	}

	flags := strings.TrimSpace(fields[3])
	rawSSID, present := "", len(fields) >= 5
	if present {
		// Anything past the fifth column belongs to the name.
		rawSSID = strings.Join(fields[4:], "\t")
	}
	ssid, status := ClassifySSID(rawSSID, present)

	return ScanResult{
		SSID:       ssid,
		Quality:    QualityFromDBm(dbm),
		Security:   securityFromFlags(flags),
		Flags:      flags,
		BSSID:      strings.ToLower(mac.String()),
		Channel:    channel,
		SignalDBm:  dbm,
		SSIDStatus: status,
	}, nil
}
