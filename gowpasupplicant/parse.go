// wpatui/gowpasupplicant/parse.go
package gowpasupplicant

import (
	"fmt"
	"strconv"
	"strings"
)

// wpa_state values the application cares about.
const (
	StateCompleted    = "COMPLETED"
	StateDisconnected = "DISCONNECTED"
	StateScanning     = "SCANNING"
)

// Status is the parsed reply of the status command.
type Status struct {
	State     string
	SSID      string
	BSSID     string
	IPAddress string
}

// Connected reports whether the daemon completed association.
func (s Status) Connected() bool { return s.State == StateCompleted }

// SavedNetwork is one row of list_networks.
type SavedNetwork struct {
	ID      int
	SSID    string
	BSSID   string
	Flags   string
	Current bool
}

// parseStatus reads key=value lines. Missing keys leave zero values and a
// missing wpa_state reads as disconnected.
func parseStatus(output string) Status {
	st := Status{State: StateDisconnected}
	for _, line := range strings.Split(output, "\n") {
		key, value, ok := strings.Cut(strings.TrimRight(line, "\r"), "=")
		if !ok {
			continue
		}
		switch key {
		case "wpa_state":
			if v := strings.TrimSpace(value); v != "" {
				st.State = v
			}
		case "ssid":
			// Only trim the line ending to preserve spaces inside SSIDs.
			st.SSID = value
		case "bssid":
			st.BSSID = strings.ToLower(strings.TrimSpace(value))
		case "ip_address":
			st.IPAddress = strings.TrimSpace(value)
		}
	}
	return st
}

// parseListNetworks parses the tab separated list_networks table.
// Lines that do not start with a numeric id are counted as skipped.
func parseListNetworks(output string) ([]SavedNetwork, int) {
	var networks []SavedNetwork
	skipped := 0
	for i, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if i == 0 && strings.HasPrefix(line, "network id") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			skipped++
			continue
		}
		id, err := strconv.Atoi(strings.TrimSpace(fields[0]))
		if err != nil {
			skipped++
			continue
		}
		n := SavedNetwork{
			ID:    id,
			SSID:  fields[1],
			BSSID: strings.ToLower(strings.TrimSpace(fields[2])),
		}
		if len(fields) > 3 {
			n.Flags = strings.TrimSpace(fields[3])
			n.Current = strings.Contains(n.Flags, "[CURRENT]")
		}
		networks = append(networks, n)
	}
	return networks, skipped
}

// parseScanResultsOutput strips the header of a scan_results reply.
func parseScanResultsOutput(output string) ([]string, error) {
	lines := strings.Split(output, "\n")
	idx := 0
	for idx < len(lines) && strings.TrimSpace(lines[idx]) == "" {
		idx++
	}
	if idx == len(lines) || !strings.HasPrefix(strings.TrimSpace(lines[idx]), "bssid") {
		first := ""
		if idx < len(lines) {
			first = strings.TrimSpace(lines[idx])
		}
		return nil, &CommandError{
			Args:  []string{CmdScanResults},
			Reply: first,
			Kind:  ErrParse,
			Err:   fmt.Errorf("missing scan_results header"),
		}
	}
	var out []string
	for _, line := range lines[idx+1:] {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}
