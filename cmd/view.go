package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wpatui/controller"
)

// =============================================================================
// View
// =============================================================================

func (m model) View() string {
	availableWidth := m.width - appStyle.GetHorizontalFrameSize()

	header := m.headerView(availableWidth)
	footer := m.footerView(availableWidth)

	contentHeight := m.height - appStyle.GetVerticalFrameSize() - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	var content string
	if n := len(m.dialogs); n > 0 {
		content = m.renderDialog(m.dialogs[n-1], availableWidth, contentHeight)
	} else {
		switch v := m.view.(type) {
		case controller.ScanningView:
			text := "Scanning..."
			if v.Passes > 0 {
				text = fmt.Sprintf("Scanning (pass %d of %d)...", v.Pass, v.Passes)
			}
			content = m.renderBusy(text, availableWidth, contentHeight)
		case controller.ResultsView:
			content = m.renderNetworksList(v, availableWidth)
		case controller.CredentialsView:
			content = m.renderCredentials(v, availableWidth, contentHeight)
		case controller.ConnectingView:
			content = m.renderConnecting(v, availableWidth, contentHeight)
		case controller.FailedView:
			content = m.renderFailure(v, availableWidth, contentHeight)
		case controller.DisconnectingView:
			content = m.renderBusy("Disconnecting...", availableWidth, contentHeight)
		case controller.ShuttingDownView:
			content = m.renderBusy("Cleaning up...", availableWidth, contentHeight)
		default:
			content = m.renderBusy("Starting...", availableWidth, contentHeight)
		}
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Top, header, content, footer))
}

func (m model) headerView(width int) string {
	title := titleStyle.Render(appName)
	iface := hintStyle.Render("Interface: " + m.iface)

	spacing := width - lipgloss.Width(title) - lipgloss.Width(iface)
	if spacing < 1 {
		spacing = 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, title, strings.Repeat(" ", spacing), iface)
}

func (m model) statusLine() string {
	if !m.status.Connected() {
		return statusDisconnected.Render("Not connected")
	}
	text := "Connected: " + m.status.SSID
	if m.status.IPAddress != "" {
		text += " [" + m.status.IPAddress + "]"
	}
	return statusConnected.Render(text)
}

func (m model) footerView(width int) string {
	keys := m.keys
	keys.currentMode = m.mode()
	helpText := helpGlobalStyle.Render(m.help.View(keys))
	return lipgloss.JoinVertical(lipgloss.Top,
		lipgloss.PlaceHorizontal(width, lipgloss.Center, m.statusLine()),
		lipgloss.PlaceHorizontal(width, lipgloss.Center, helpText))
}

func (m model) renderNetworksList(v controller.ResultsView, width int) string {
	listView := lipgloss.JoinVertical(lipgloss.Top, columnHeader(), m.networkList.View())
	if m.showHidden {
		listView = lipgloss.JoinVertical(lipgloss.Top, listView, hiddenStatusStyle.Render("(showing hidden networks, esc to go back)"))
	}
	listView = lipgloss.PlaceHorizontal(width, lipgloss.Center, listView)

	switch {
	case v.Busy:
		listView = lipgloss.JoinVertical(lipgloss.Top, listView, infoStyle.Render("Looking up saved networks..."))
	case v.ScanErr != nil && v.Notice != "":
		listView = lipgloss.JoinVertical(lipgloss.Top, listView, errorStyle.Render(v.Notice))
	case v.Notice != "":
		style := infoStyle
		if v.Status.Connected() {
			style = successStyle
		}
		listView = lipgloss.JoinVertical(lipgloss.Top, listView, style.Render(v.Notice))
	}
	return listView
}

func (m model) renderBusy(text string, width, height int) string {
	content := connectingStyle.Render(fmt.Sprintf("\n%s %s\n", m.spinner.View(), text))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func (m model) renderConnecting(v controller.ConnectingView, width, height int) string {
	text := fmt.Sprintf("Connecting to %s", v.Target.Name())
	if v.Phase != "" {
		text += ": " + v.Phase
	}
	if v.Tick > 0 && v.Ticks > 0 {
		text += fmt.Sprintf(" (%d/%d)", v.Tick, v.Ticks)
	}
	return m.renderBusy(text+"...", width, height)
}

func (m model) dialogWidth(width int) int {
	w := m.passwordInput.Width + lipgloss.Width(m.passwordInput.Prompt) + dialogContainerStyle.GetHorizontalFrameSize() + 4
	if w > width*4/5 {
		w = width * 4 / 5
	}
	if w < dialogInputMinWidth {
		w = dialogInputMinWidth
	}
	return w
}

func (m model) renderCredentials(v controller.CredentialsView, width, height int) string {
	var prompt string
	switch {
	case v.Retry:
		prompt = fmt.Sprintf("The password for %s was rejected. Enter a new one:", v.Target.Name())
	case v.NeedESSID:
		prompt = fmt.Sprintf("Enter the name of the hidden network at %s:", v.Target.BSSID)
	default:
		prompt = fmt.Sprintf("Password for %s:", v.Target.Name())
	}
	if v.Retry {
		prompt = warningStyle.UnsetMarginTop().Render(prompt)
	}

	rows := []string{lipgloss.NewStyle().Width(m.dialogWidth(width)).Align(lipgloss.Center).Render(prompt)}
	if v.NeedESSID {
		rows = append(rows, m.essidInput.View())
	}
	if v.NeedPassword {
		rows = append(rows, m.passwordInput.View())
	}
	hint := "(Enter to connect, Esc to cancel)"
	if v.NeedESSID && v.NeedPassword {
		hint = "(Tab to switch field, Enter to connect, Esc to cancel)"
	}
	rows = append(rows, "", hintStyle.Render(hint))

	content := dialogContainerStyle.Render(lipgloss.JoinVertical(lipgloss.Top, rows...))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func failureText(v controller.FailedView) string {
	switch v.Reason {
	case controller.ReasonCredentialRejected:
		return fmt.Sprintf("%s rejected the credentials.", v.Target.Name())
	case controller.ReasonTimedOut:
		return fmt.Sprintf("No answer from %s in time.", v.Target.Name())
	default:
		if v.Err != nil {
			return fmt.Sprintf("Could not configure %s: %v", v.Target.Name(), v.Err)
		}
		return fmt.Sprintf("Could not configure %s.", v.Target.Name())
	}
}

func (m model) renderFailure(v controller.FailedView, width, height int) string {
	msgWidth := m.dialogWidth(width)
	title := errorStyle.UnsetMarginTop().Render("Connection failed")
	body := lipgloss.NewStyle().Width(msgWidth).Align(lipgloss.Center).Render(failureText(v))

	cancel := buttonStyle.Render("Cancel")
	var buttons string
	if v.CanRetryPassword {
		newPassword := buttonStyle.Render("New Password")
		if m.failChoice == choiceNewPassword {
			newPassword = buttonActiveStyle.Render("New Password")
		} else {
			cancel = buttonActiveStyle.Render("Cancel")
		}
		buttons = lipgloss.JoinHorizontal(lipgloss.Center, newPassword, "  ", cancel)
	} else {
		buttons = buttonActiveStyle.Render("Cancel")
	}

	content := lipgloss.JoinVertical(lipgloss.Center, title, "", body, "", buttons)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, dialogErrorStyle.Render(content))
}

func (m model) renderDialog(d dialog, width, height int) string {
	heading, box := infoStyle.UnsetMarginTop().Bold(true), dialogContainerStyle
	if d.kind == dialogError {
		heading, box = errorStyle.UnsetMarginTop(), dialogErrorStyle
	}
	body := lipgloss.NewStyle().Width(m.dialogWidth(width)).Align(lipgloss.Center).Render(d.body)
	hint := hintStyle.Render("(Press Enter or Esc to close)")

	content := lipgloss.JoinVertical(lipgloss.Center, heading.Render(d.title), "", body, "", hint)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box.Render(content))
}
