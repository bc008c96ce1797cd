package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobdigest/internal/model"
)

// fetchTimeout bounds one live fetch, retries included.
const fetchTimeout = 2 * time.Minute

// ErrCancelled is returned by RunLoader when the user aborts the fetch.
var ErrCancelled = errors.New("fetch cancelled")

// FetchFunc fetches one source.
type FetchFunc func(ctx context.Context) ([]model.NormalizedJob, error)

type fetchedMsg struct {
	jobs []model.NormalizedJob
	err  error
}

type loaderModel struct {
	sourceName string
	ctx        context.Context
	fetch      FetchFunc
	spin       spinner.Model
	jobs       []model.NormalizedJob
	err        error
	finished   bool
}

func newLoaderModel(ctx context.Context, sourceName string, fetch FetchFunc) loaderModel {
	return loaderModel{
		sourceName: sourceName,
		ctx:        ctx,
		fetch:      fetch,
		spin:       spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(lipgloss.NewStyle().Foreground(colorSpinner))),
	}
}

func (m loaderModel) Init() tea.Cmd {
	ctx, fetch := m.ctx, m.fetch
	return tea.Batch(m.spin.Tick, func() tea.Msg {
		jobs, err := fetch(ctx)
		return fetchedMsg{jobs: jobs, err: err}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchedMsg:
		m.jobs, m.err, m.finished = msg.jobs, msg.err, true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.err, m.finished = ErrCancelled, true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.finished {
		return ""
	}
	return fmt.Sprintf("%s Fetching postings from %s...\n", m.spin.View(), m.sourceName)
}

// RunLoader shows a spinner inline while fetch runs. Ctrl+C abandons the
// fetch and cancels its context.
func RunLoader(sourceName string, fetch FetchFunc) ([]model.NormalizedJob, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	final, err := tea.NewProgram(newLoaderModel(ctx, sourceName, fetch)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(loaderModel)
	return m.jobs, m.err
}
