package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"wpatui/scanner"
)

// =============================================================================
// Network List Columns
// =============================================================================

type column struct {
	title string
	width int
	right bool
}

var networkColumns = []column{
	{title: "SSID", width: 28},
	{title: "%", width: 4, right: true},
	{title: "Sec", width: 10},
	{title: "MAC", width: 17},
	{title: "CH", width: 3, right: true},
	{title: "dBm", width: 4, right: true},
}

// cell pads or truncates s to exactly w terminal cells.
func cell(s string, w int, right bool) string {
	s = runewidth.Truncate(s, w, "…")
	if right {
		return runewidth.FillLeft(s, w)
	}
	return runewidth.FillRight(s, w)
}

func formatRow(values []string) string {
	cells := make([]string, len(networkColumns))
	for i, c := range networkColumns {
		cells[i] = cell(values[i], c.width, c.right)
	}
	return strings.Join(cells, " ")
}

func columnHeader() string {
	titles := make([]string, len(networkColumns))
	for i, c := range networkColumns {
		titles[i] = c.title
	}
	return columnHeaderStyle.Render(formatRow(titles))
}

// =============================================================================
// Network Item
// =============================================================================

type networkItem struct {
	scanner.ScanResult
	Active bool
}

func (n networkItem) FilterValue() string { return n.DisplayName() }

func (n networkItem) row() string {
	security := strings.Trim(n.Security, "[]")
	if security == "" {
		security = "Open"
	}
	return formatRow([]string{
		n.DisplayName(),
		strconv.Itoa(n.Quality),
		security,
		n.BSSID,
		n.ChannelLabel(),
		strconv.Itoa(n.SignalDBm),
	})
}

func toItems(results []scanner.ScanResult, activeBSSID string) []list.Item {
	items := make([]list.Item, len(results))
	for i, r := range results {
		items[i] = networkItem{ScanResult: r, Active: activeBSSID != "" && r.BSSID == activeBSSID}
	}
	return items
}

// =============================================================================
// List Item Delegate
// =============================================================================

type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	n, ok := listItem.(networkItem)
	if !ok {
		return
	}

	marker := " "
	if n.Active {
		marker = statusConnected.Render("✔")
	}
	row := n.row()
	if index == m.Index() {
		fmt.Fprint(w, listSelectedItemStyle.Render("▸"+marker+row))
		return
	}
	fmt.Fprint(w, listItemStyle.Render(marker+qualityStyle(n.Quality).Render(row)))
}
