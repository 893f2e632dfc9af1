package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"wpatui/controller"
	"wpatui/gowpasupplicant"
	"wpatui/scanner"
)

// =============================================================================
// UI Modes
// =============================================================================

// uiMode is what currently receives keys: the topmost dialog if there is
// one, otherwise whatever the controller is presenting.
type uiMode int

const (
	modeIdle uiMode = iota
	modeScanning
	modeResults
	modeCredentials
	modeConnecting
	modeFailed
	modeDialog
	modeBusy
)

func (m uiMode) String() string {
	names := []string{"Idle", "Scanning", "Results", "Credentials", "Connecting", "Failed", "Dialog", "Busy"}
	if int(m) < len(names) {
		return names[m]
	}
	return fmt.Sprintf("Unknown(%d)", m)
}

// =============================================================================
// Dialogs
// =============================================================================

type dialogKind int

const (
	dialogInfo dialogKind = iota
	dialogError
)

type dialog struct {
	kind  dialogKind
	title string
	body  string
}

// Failure dialog buttons.
const (
	choiceNewPassword = iota
	choiceCancel
)

// Credential dialog fields.
const (
	fieldESSID = iota
	fieldPassword
)

// =============================================================================
// Main Model
// =============================================================================

type model struct {
	ctrl   *controller.Controller
	iface  string
	logger *logrus.Logger

	// view is the controller view as of the last update.
	view controller.View
	// status is the association reported with the last results.
	status gowpasupplicant.Status

	// dialogs is the overlay stack; the last entry is on top and gets keys
	// before the controller view underneath.
	dialogs []dialog

	networkList   list.Model
	essidInput    textinput.Model
	passwordInput textinput.Model
	spinner       spinner.Model
	keys          keyMap
	help          help.Model

	focus      int
	failChoice int
	showHidden bool

	width            int
	height           int
	listDisplayWidth int
}

func newModel(ctrl *controller.Controller, iface string, logger *logrus.Logger) model {
	networkList := list.New([]list.Item{}, itemDelegate{}, 0, 0)
	networkList.Title = "Scanning for networks..."
	networkList.Styles.Title = listTitleStyle
	networkList.SetShowStatusBar(true)
	networkList.SetStatusBarItemName("network", "networks")
	networkList.SetShowHelp(false)
	networkList.SetFilteringEnabled(false)
	networkList.DisableQuitKeybindings()
	networkList.Styles.NoItems = listNoItemsStyle.SetString("No networks found. Press R to rescan.")

	essidInput := textinput.New()
	essidInput.Placeholder = "Network Name (ESSID)"
	essidInput.CharLimit = essidMaxLength
	essidInput.Prompt = dialogPromptStyle.Render("ESSID:    ")
	essidInput.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccent)

	pwInput := textinput.New()
	pwInput.Placeholder = "Network Password"
	pwInput.EchoMode = textinput.EchoPassword
	pwInput.EchoCharacter = '•'
	pwInput.CharLimit = passwordMaxLength
	pwInput.Prompt = dialogPromptStyle.Render("Password: ")
	pwInput.Cursor.Style = lipgloss.NewStyle().Foreground(colorAccent)

	s := spinner.New()
	s.Spinner = spinner.Globe
	s.Style = connectingStyle

	h := help.New()
	subtleStyle := lipgloss.NewStyle().Foreground(colorFaint)
	h.Styles = help.Styles{
		ShortKey:  subtleStyle,
		ShortDesc: subtleStyle,
		FullKey:   subtleStyle,
		FullDesc:  subtleStyle,
		Ellipsis:  subtleStyle,
	}

	if logger == nil {
		logger = logrus.New()
	}
	m := model{
		ctrl:          ctrl,
		iface:         iface,
		logger:        logger,
		view:          ctrl.View(),
		networkList:   networkList,
		essidInput:    essidInput,
		passwordInput: pwInput,
		spinner:       s,
		keys:          defaultKeyBindings,
		help:          h,
	}
	m.keys.currentMode = m.mode()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.ctrl.Init(), m.spinner.Tick)
}

// =============================================================================
// Helper Functions
// =============================================================================

func (m model) mode() uiMode {
	if len(m.dialogs) > 0 {
		return modeDialog
	}
	switch m.view.(type) {
	case controller.ScanningView:
		return modeScanning
	case controller.ResultsView:
		return modeResults
	case controller.CredentialsView:
		return modeCredentials
	case controller.ConnectingView:
		return modeConnecting
	case controller.FailedView:
		return modeFailed
	case controller.DisconnectingView, controller.ShuttingDownView:
		return modeBusy
	}
	return modeIdle
}

func (m *model) pushDialog(d dialog) {
	m.logger.Debugf("Opening %q dialog", d.title)
	m.dialogs = append(m.dialogs, d)
}

func (m *model) popDialog() {
	if len(m.dialogs) > 0 {
		m.dialogs = m.dialogs[:len(m.dialogs)-1]
	}
}

// sync refreshes the cached controller view and prepares the widgets for a
// view that has just appeared.
func (m *model) sync() tea.Cmd {
	prev := m.view
	m.view = m.ctrl.View()
	m.keys.currentMode = m.mode()

	var cmd tea.Cmd
	switch v := m.view.(type) {
	case controller.ResultsView:
		if _, was := prev.(controller.ScanningView); was && v.ScanErr != nil {
			m.pushDialog(dialog{kind: dialogError, title: "Scan failed", body: v.ScanErr.Error()})
		}
		m.status = v.Status
		m.refreshList(v)

	case controller.CredentialsView:
		if _, was := prev.(controller.CredentialsView); !was {
			cmd = m.prepareCredentials(v)
		}

	case controller.FailedView:
		if _, was := prev.(controller.FailedView); !was {
			m.failChoice = choiceCancel
			if v.CanRetryPassword {
				m.failChoice = choiceNewPassword
			}
		}
	}

	switch m.view.(type) {
	case controller.ScanningView, controller.ConnectingView, controller.DisconnectingView, controller.ShuttingDownView:
		if !isBusyView(prev) {
			cmd = tea.Batch(cmd, m.spinner.Tick)
		}
	}
	return cmd
}

func isBusyView(v controller.View) bool {
	switch v.(type) {
	case controller.ScanningView, controller.ConnectingView, controller.DisconnectingView, controller.ShuttingDownView:
		return true
	}
	return false
}

func (m *model) prepareCredentials(v controller.CredentialsView) tea.Cmd {
	m.essidInput.SetValue("")
	m.passwordInput.SetValue("")
	m.essidInput.Blur()
	m.passwordInput.Blur()
	if v.NeedESSID {
		m.focus = fieldESSID
	} else {
		m.focus = fieldPassword
	}
	return m.focusInput()
}

func (m *model) focusInput() tea.Cmd {
	if m.focus == fieldESSID {
		m.passwordInput.Blur()
		return m.essidInput.Focus()
	}
	m.essidInput.Blur()
	return m.passwordInput.Focus()
}

func (m *model) refreshList(v controller.ResultsView) {
	results := v.Visible
	if m.showHidden {
		results = v.Hidden
	}
	m.networkList.SetItems(toItems(results, v.Status.BSSID))
	if m.showHidden {
		m.networkList.Title = fmt.Sprintf("Hidden networks (%d)", len(v.Hidden))
	} else {
		m.networkList.Title = fmt.Sprintf("Networks on %s (%d visible, %d hidden)", m.iface, len(v.Visible), len(v.Hidden))
	}
}

func (m model) selectedResult() (scanner.ScanResult, bool) {
	item, ok := m.networkList.SelectedItem().(networkItem)
	if !ok {
		return scanner.ScanResult{}, false
	}
	return item.ScanResult, true
}

func (m *model) resizeComponents() {
	availableWidth := m.width - appStyle.GetHorizontalFrameSize()
	availableHeight := m.height - appStyle.GetVerticalFrameSize()

	helpWidth := int(float64(availableWidth) * helpBarWidthPercent)
	if helpWidth > helpBarMaxWidth {
		helpWidth = helpBarMaxWidth
	}
	if helpWidth < 20 {
		helpWidth = 20
	}
	m.help.Width = helpWidth

	headerHeight := lipgloss.Height(m.headerView(availableWidth))
	footerHeight := lipgloss.Height(m.footerView(availableWidth))
	listHeight := availableHeight - headerHeight - footerHeight - 1 // column header
	if listHeight < minListHeight {
		listHeight = minListHeight
	}

	listWidth := int(float64(availableWidth) * networkListWidthPercent)
	if listWidth > networkListFixedWidth {
		listWidth = networkListFixedWidth
	}
	if listWidth < minListWidth {
		listWidth = minListWidth
	}
	m.listDisplayWidth = listWidth
	m.networkList.SetSize(listWidth, listHeight)

	inputWidth := availableWidth * 2 / 3
	if inputWidth > dialogInputMaxWidth {
		inputWidth = dialogInputMaxWidth
	}
	if inputWidth < dialogInputMinWidth {
		inputWidth = dialogInputMinWidth
	}
	m.passwordInput.Width = inputWidth - lipgloss.Width(m.passwordInput.Prompt) - dialogContainerStyle.GetHorizontalFrameSize()
	m.essidInput.Width = m.passwordInput.Width
}
