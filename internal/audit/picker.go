package audit

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobdigest/internal/model"
)

var (
	pickerTitle    = bold.Foreground(colorAccent).Padding(1, 0, 1, 2)
	pickerItem     = lipgloss.NewStyle().PaddingLeft(4)
	pickerSelected = bold.Foreground(colorAccent).PaddingLeft(2)
	pickerDisabled = muted.PaddingLeft(4)
	pickerHint     = muted.Padding(1, 0, 0, 2)
)

const (
	pickerPending = -1
	pickerQuit    = -2
)

type pickerModel struct {
	sources []model.Source
	cursor  int
	chosen  int
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Quit):
			m.chosen = pickerQuit
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			m.cursor = max(m.cursor-1, 0)
		case key.Matches(msg, keys.Down):
			m.cursor = min(m.cursor+1, len(m.sources)-1)
		case key.Matches(msg, keys.Open) && len(m.sources) > 0:
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitle.Render("Rubric Audit: select a source") + "\n")
	for i, src := range m.sources {
		label := fmt.Sprintf("%s (%s)", src.Name, src.Kind)
		switch {
		case i == m.cursor:
			label = pickerSelected.Render("> " + label)
		case !src.Enabled:
			label = pickerDisabled.Render(label + " [disabled]")
		default:
			label = pickerItem.Render(label)
		}
		b.WriteString(label + "\n")
	}
	b.WriteString(pickerHint.Render(helpLine(keys.Up, keys.Down, keys.Open, keys.Quit)))
	return b.String()
}

// RunSourcePicker shows an interactive source selector. It returns the
// index of the chosen source, or -1 if the user quit.
func RunSourcePicker(sources []model.Source) (int, error) {
	p := tea.NewProgram(pickerModel{sources: sources, chosen: pickerPending})
	result, err := p.Run()
	if err != nil {
		return -1, err
	}
	final := result.(pickerModel)
	if final.chosen < 0 {
		return -1, nil
	}
	return final.chosen, nil
}
