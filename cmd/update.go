package main

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"wpatui/controller"
)

// =============================================================================
// Update
// =============================================================================

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resizeComponents()
		return m, nil

	case spinner.TickMsg:
		if isBusyView(m.view) {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case controller.ShutdownMsg:
		m.logger.Info("Shutdown complete")
		return m, tea.Quit

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKeyPress(msg)...)

	default:
		cmds = append(cmds, m.ctrl.Update(msg), m.sync())
		if m.mode() == modeCredentials {
			m.essidInput, cmd = m.essidInput.Update(msg)
			cmds = append(cmds, cmd)
			m.passwordInput, cmd = m.passwordInput.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

// apply runs a controller intent and refreshes the view it produced.
func (m *model) apply(cmd tea.Cmd) []tea.Cmd {
	return []tea.Cmd{cmd, m.sync()}
}

func (m *model) quit() []tea.Cmd {
	m.dialogs = nil
	return m.apply(m.ctrl.Quit())
}

func (m *model) handleKeyPress(msg tea.KeyMsg) []tea.Cmd {
	// ctrl+c always works; a second one skips the cleanup wait.
	if key.Matches(msg, m.keys.ForceQuit) {
		if _, down := m.view.(controller.ShuttingDownView); down {
			m.logger.Warn("Forced exit before cleanup finished")
			return []tea.Cmd{tea.Quit}
		}
		return m.quit()
	}

	mode := m.mode()
	if key.Matches(msg, m.keys.Help) && mode != modeCredentials {
		m.help.ShowAll = !m.help.ShowAll
		m.resizeComponents()
		return nil
	}

	switch mode {
	case modeDialog:
		return m.handleDialogKeys(msg)
	case modeResults:
		return m.handleResultsKeys(msg)
	case modeCredentials:
		return m.handleCredentialsKeys(msg)
	case modeFailed:
		return m.handleFailedKeys(msg)
	case modeScanning:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}
	case modeIdle, modeConnecting:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		case key.Matches(msg, m.keys.Disconnect):
			return m.apply(m.ctrl.Disconnect())
		}
	}
	return nil
}

func (m *model) handleDialogKeys(msg tea.KeyMsg) []tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Back):
		m.popDialog()
		m.keys.currentMode = m.mode()
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	}
	return nil
}

func (m *model) handleResultsKeys(msg tea.KeyMsg) []tea.Cmd {
	v, _ := m.view.(controller.ResultsView)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Select):
		if v.Busy {
			return nil
		}
		r, ok := m.selectedResult()
		if !ok {
			return nil
		}
		return m.apply(m.ctrl.Select(r))

	case key.Matches(msg, m.keys.Rescan):
		return m.apply(m.ctrl.Rescan())

	case key.Matches(msg, m.keys.ToggleHidden):
		if !m.showHidden && len(v.Hidden) == 0 {
			m.pushDialog(dialog{kind: dialogInfo, title: "Hidden networks", body: "The last scan found no hidden networks."})
			m.keys.currentMode = m.mode()
			return nil
		}
		m.setShowHidden(!m.showHidden, v)

	case key.Matches(msg, m.keys.Back):
		if m.showHidden {
			m.setShowHidden(false, v)
		}

	case key.Matches(msg, m.keys.Disconnect):
		return m.apply(m.ctrl.Disconnect())

	default:
		var cmd tea.Cmd
		m.networkList, cmd = m.networkList.Update(msg)
		return []tea.Cmd{cmd}
	}
	return nil
}

func (m *model) setShowHidden(show bool, v controller.ResultsView) {
	m.showHidden = show
	m.refreshList(v)
	m.networkList.ResetSelected()
}

func (m *model) handleCredentialsKeys(msg tea.KeyMsg) []tea.Cmd {
	v, _ := m.view.(controller.CredentialsView)
	var cmd tea.Cmd

	switch {
	case key.Matches(msg, m.keys.Select):
		essid, password := m.essidInput.Value(), m.passwordInput.Value()
		m.essidInput.Blur()
		m.passwordInput.Blur()
		return m.apply(m.ctrl.SubmitCredentials(essid, password))

	case key.Matches(msg, m.keys.Back):
		m.essidInput.Blur()
		m.passwordInput.Blur()
		return m.apply(m.ctrl.CancelCredentials())

	case key.Matches(msg, m.keys.NextField):
		if v.NeedESSID && v.NeedPassword {
			m.focus = 1 - m.focus
			return []tea.Cmd{m.focusInput()}
		}

	default:
		if m.focus == fieldESSID {
			m.essidInput, cmd = m.essidInput.Update(msg)
		} else {
			m.passwordInput, cmd = m.passwordInput.Update(msg)
		}
		return []tea.Cmd{cmd}
	}
	return nil
}

func (m *model) handleFailedKeys(msg tea.KeyMsg) []tea.Cmd {
	v, _ := m.view.(controller.FailedView)

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.NextField):
		if v.CanRetryPassword {
			m.failChoice = 1 - m.failChoice
		}

	case key.Matches(msg, m.keys.Select):
		if v.CanRetryPassword && m.failChoice == choiceNewPassword {
			return m.apply(m.ctrl.RetryPassword())
		}
		return m.apply(m.ctrl.Dismiss())

	case key.Matches(msg, m.keys.Back):
		return m.apply(m.ctrl.Dismiss())
	}
	return nil
}
