package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the tour host's bindings.
type keyMap struct {
	Next    key.Binding
	Back    key.Binding
	Skip    key.Binding
	Start   key.Binding
	Reset   key.Binding
	Copy    key.Binding
	Dismiss key.Binding
	Help    key.Binding
	Quit    key.Binding

	// Welcome prompt answers
	Accept  key.Binding
	Decline key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Next: key.NewBinding(
			key.WithKeys("enter", "right", "l", " "),
			key.WithHelp("→/enter", "next"),
		),
		Back: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "back"),
		),
		Skip: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "skip tour"),
		),
		Start: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "start tour"),
		),
		Reset: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "replay tour"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy target"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "dismiss"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Accept: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "take the tour"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "no thanks"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Back, k.Skip, k.Reset, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Back, k.Skip},
		{k.Start, k.Reset, k.Dismiss},
		{k.Copy, k.Help, k.Quit},
	}
}
