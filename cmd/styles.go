package main

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// Constants
// =============================================================================

const (
	appName                 = "wpatui"
	helpBarMaxWidth         = 80
	helpBarWidthPercent     = 0.80
	networkListFixedWidth   = 100
	networkListWidthPercent = 0.85
	minListHeight           = 5
	minListWidth            = 40
	passwordMaxLength       = 63 // WPA2 passphrase limit
	essidMaxLength          = 32
	dialogInputMaxWidth     = 60
	dialogInputMinWidth     = 40
)

// Quality thresholds in percent.
const (
	signalExcellent = 70
	signalGood      = 40
)

// =============================================================================
// Styles
// =============================================================================

var (
	appStyle = lipgloss.NewStyle().Margin(1, 1)

	// ANSI colors for broad terminal support
	colorPrimary   = lipgloss.Color("5")
	colorSecondary = lipgloss.Color("4")
	colorAccent    = lipgloss.Color("6")
	colorSuccess   = lipgloss.Color("2")
	colorError     = lipgloss.Color("1")
	colorWarning   = lipgloss.Color("3")
	colorFaint     = lipgloss.Color("8")
	colorText      = lipgloss.Color("7")

	titleStyle            = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Padding(0, 1).MarginBottom(1)
	listTitleStyle        = lipgloss.NewStyle().Foreground(colorSecondary).Padding(0, 1).Bold(true)
	listItemStyle         = lipgloss.NewStyle().PaddingLeft(2).Foreground(colorText)
	listSelectedItemStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(colorPrimary).Bold(true)
	listNoItemsStyle      = lipgloss.NewStyle().Faint(true).Margin(1, 0).Align(lipgloss.Center).Foreground(colorFaint)
	columnHeaderStyle     = lipgloss.NewStyle().PaddingLeft(3).Foreground(colorFaint).Bold(true)

	statusMessageBaseStyle = lipgloss.NewStyle().MarginTop(1)
	errorStyle             = statusMessageBaseStyle.Foreground(colorError).Bold(true)
	successStyle           = statusMessageBaseStyle.Foreground(colorSuccess).Bold(true)
	warningStyle           = statusMessageBaseStyle.Foreground(colorWarning)
	infoStyle              = statusMessageBaseStyle.Foreground(colorFaint)
	connectingStyle        = lipgloss.NewStyle().Foreground(colorAccent)
	dialogPromptStyle      = lipgloss.NewStyle().Foreground(colorFaint)
	dialogContainerStyle   = lipgloss.NewStyle().Padding(1).MarginTop(1).Border(lipgloss.NormalBorder(), true).BorderForeground(colorFaint)
	dialogErrorStyle       = dialogContainerStyle.BorderForeground(colorError)
	helpGlobalStyle        = lipgloss.NewStyle().Foreground(colorFaint)
	hintStyle              = lipgloss.NewStyle().Foreground(colorFaint)

	buttonStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(colorText).Background(colorFaint)
	buttonActiveStyle = lipgloss.NewStyle().Padding(0, 2).Foreground(colorText).Background(colorPrimary).Bold(true)

	statusConnected    = lipgloss.NewStyle().Foreground(colorSuccess)
	statusDisconnected = lipgloss.NewStyle().Foreground(colorError)
	hiddenStatusStyle  = lipgloss.NewStyle().Foreground(colorFaint).Italic(true)

	signalExcellentStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	signalGoodStyle      = lipgloss.NewStyle().Foreground(colorWarning)
	signalWeakStyle      = lipgloss.NewStyle().Foreground(colorError)
)

func qualityStyle(quality int) lipgloss.Style {
	switch {
	case quality >= signalExcellent:
		return signalExcellentStyle
	case quality >= signalGood:
		return signalGoodStyle
	default:
		return signalWeakStyle
	}
}
