package audit

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding used by the picker and the audit view.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Switch  key.Binding
	Open    key.Binding
	Back    key.Binding
	Quit    key.Binding
	Browser key.Binding
	Desc    key.Binding
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Switch:  key.NewBinding(key.WithKeys("tab", "left", "right"), key.WithHelp("tab", "switch pane")),
	Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:    key.NewBinding(key.WithKeys("esc", "b", "backspace"), key.WithHelp("esc", "back")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Browser: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open url")),
	Desc:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "description")),
}

// helpLine renders bindings as "key action" pairs for a status bar.
func helpLine(bindings ...key.Binding) string {
	var s string
	for i, b := range bindings {
		if i > 0 {
			s += "  "
		}
		h := b.Help()
		s += h.Key + " " + h.Desc
	}
	return s
}
