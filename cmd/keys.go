package main

import "github.com/charmbracelet/bubbles/key"

// =============================================================================
// Key Bindings
// =============================================================================

type keyMap struct {
	Select       key.Binding
	Rescan       key.Binding
	ToggleHidden key.Binding
	Disconnect   key.Binding
	Quit         key.Binding
	ForceQuit    key.Binding
	Back         key.Binding
	NextField    key.Binding
	Left         key.Binding
	Right        key.Binding
	Help         key.Binding
	currentMode  uiMode
}

func (k keyMap) ShortHelp() []key.Binding {
	bindings := []key.Binding{k.Help}

	switch k.currentMode {
	case modeResults:
		bindings = append(bindings, k.Select, k.Rescan, k.ToggleHidden, k.Disconnect)
	case modeCredentials:
		bindings = append(bindings, k.Select, k.NextField, k.Back)
	case modeFailed:
		bindings = append(bindings, k.Left, k.Right, k.Select, k.Back)
	case modeDialog:
		bindings = append(bindings, k.Select, k.Back)
	case modeConnecting:
		bindings = append(bindings, k.Disconnect)
	}

	return append(bindings, k.Quit)
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Help, k.Select, k.Back, k.Quit},
		{k.Rescan, k.ToggleHidden, k.Disconnect},
		{k.NextField, k.Left, k.Right},
	}
}

var defaultKeyBindings = keyMap{
	Select:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select/confirm")),
	Rescan:       key.NewBinding(key.WithKeys("r", "R"), key.WithHelp("R", "rescan")),
	ToggleHidden: key.NewBinding(key.WithKeys("h", "H"), key.WithHelp("H", "hidden networks")),
	Disconnect:   key.NewBinding(key.WithKeys("d", "D"), key.WithHelp("D", "disconnect")),
	Quit:         key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("Q", "quit")),
	ForceQuit:    key.NewBinding(key.WithKeys("ctrl+c")),
	Back:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back/cancel")),
	NextField:    key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "next field")),
	Left:         key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "")),
	Right:        key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "choose")),
	Help:         key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}
