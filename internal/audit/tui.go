package audit

import (
	"fmt"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobdigest/internal/model"
)

// rowHeight is the number of lines one entry takes in a pane.
const rowHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

const (
	paneAll = iota
	paneAccepted
)

// pane is one scrollable column of entries.
type pane struct {
	title   string
	entries []Entry
	cursor  int
	vp      viewport.Model
}

func (p *pane) move(delta int) {
	if len(p.entries) == 0 {
		return
	}
	p.cursor = min(max(p.cursor+delta, 0), len(p.entries)-1)
}

// follow scrolls the viewport so the cursor row stays visible.
func (p *pane) follow() {
	top := p.cursor * rowHeight
	bottom := top + rowHeight - 1
	switch {
	case top < p.vp.YOffset:
		p.vp.SetYOffset(top)
	case bottom >= p.vp.YOffset+p.vp.Height:
		p.vp.SetYOffset(bottom - p.vp.Height + 1)
	}
}

func (p *pane) render(focused bool) {
	p.vp.SetContent(renderEntries(p.entries, p.cursor, focused))
}

type auditModel struct {
	sourceName string
	panes      [2]pane
	focus      int
	width      int
	height     int
	ready      bool

	view     viewState
	detail   Entry
	reader   viewport.Model
	showDesc bool

	wantQuit bool
}

func newAuditModel(sourceName string, entries []Entry) auditModel {
	m := auditModel{sourceName: sourceName}
	m.panes[paneAll] = pane{title: fmt.Sprintf("%s: all postings (%d)", sourceName, len(entries)), entries: entries}
	acc := accepted(entries)
	m.panes[paneAccepted] = pane{title: fmt.Sprintf("Accepted (%d)", len(acc)), entries: acc}
	return m
}

func (m auditModel) Init() tea.Cmd { return nil }

func (m auditModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		if m.view == viewDetail {
			m.reader.Width, m.reader.Height = m.width-4, m.height-4
			m.reader.SetContent(m.renderDetail())
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.wantQuit = true
			return m, tea.Quit
		}
		if m.view == viewDetail {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m auditModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.panes[m.focus]
	switch {
	case key.Matches(msg, keys.Back):
		return m, tea.Quit
	case key.Matches(msg, keys.Switch):
		m.focus = 1 - m.focus
	case key.Matches(msg, keys.Up):
		p.move(-1)
		p.follow()
	case key.Matches(msg, keys.Down):
		p.move(1)
		p.follow()
	case key.Matches(msg, keys.Open):
		if len(p.entries) > 0 {
			m.detail = p.entries[p.cursor]
			m.showDesc = false
			m.view = viewDetail
			m.reader = viewport.New(m.width-4, m.height-4)
			m.reader.SetContent(m.renderDetail())
		}
		return m, nil
	default:
		// pgup/pgdn/home/end scroll the focused pane.
		var cmd tea.Cmd
		p.vp, cmd = p.vp.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

func (m auditModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		m.view = viewList
		return m, nil
	case key.Matches(msg, keys.Browser):
		openURL(m.detail.Job.CanonicalURL)
		return m, nil
	case key.Matches(msg, keys.Desc):
		if m.detail.Job.Description != "" {
			m.showDesc = !m.showDesc
			m.reader.SetContent(m.renderDetail())
			m.reader.GotoTop()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.reader, cmd = m.reader.Update(msg)
	return m, cmd
}

// layout sizes both panes side by side: each pane has a two-column border
// and there is a one-column gap; header, borders and status bar take four
// rows.
func (m *auditModel) layout() {
	w := max((m.width-5)/2, 20)
	h := max(m.height-4, 5)
	for i := range m.panes {
		if !m.ready {
			m.panes[i].vp = viewport.New(w, h)
			continue
		}
		m.panes[i].vp.Width, m.panes[i].vp.Height = w, h
	}
	m.ready = true
	m.refresh()
}

func (m *auditModel) refresh() {
	for i := range m.panes {
		m.panes[i].render(i == m.focus)
	}
}

func (m auditModel) View() string {
	switch {
	case !m.ready:
		return "Initializing..."
	case m.view == viewDetail:
		return m.viewDetail()
	}
	return m.viewList()
}

func (m auditModel) viewList() string {
	var headers, bodies []string
	for i, p := range m.panes {
		border, header := paneChrome(i == m.focus)
		w := p.vp.Width
		headers = append(headers, lipgloss.NewStyle().Width(w+2).Render(header.Render(p.title)))
		bodies = append(bodies, border.Width(w).Render(p.vp.View()))
	}

	dropped := 0
	for _, e := range m.panes[paneAll].entries {
		if !e.Passed {
			dropped++
		}
	}
	status := fmt.Sprintf("%d total | %d accepted | %d filtered out    %s",
		len(m.panes[paneAll].entries), len(m.panes[paneAccepted].entries), dropped,
		helpLine(keys.Switch, keys.Up, keys.Down, keys.Open, keys.Back, keys.Quit))

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, headers[0], " ", headers[1]),
		lipgloss.JoinHorizontal(lipgloss.Top, bodies[0], " ", bodies[1]),
		statusBar.Width(m.width).Render(status),
	)
}

func (m auditModel) viewDetail() string {
	border, _ := paneChrome(true)
	bindings := []key.Binding{keys.Browser}
	if m.detail.Job.Description != "" {
		bindings = append(bindings, keys.Desc)
	}
	bindings = append(bindings, keys.Back, keys.Quit)

	return lipgloss.JoinVertical(lipgloss.Left,
		bold.Foreground(colorBright).MarginBottom(1).Render("Posting Score"),
		border.Width(m.width-2).Render(m.reader.View()),
		statusBar.Width(m.width).Render(helpLine(bindings...)),
	)
}

// renderDetail lays out the posting, its score breakdown and the raw
// source fields.
func (m auditModel) renderDetail() string {
	e, j, s := m.detail, m.detail.Job, m.detail.Score
	width := max(m.width-8, 20)

	var b strings.Builder
	field := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s%s\n", fieldName.Render(label), value)
		}
	}
	section := func(label string) {
		label = "── " + label + " "
		fmt.Fprintf(&b, "\n%s\n\n", muted.Render(label+strings.Repeat("─", max(width-len([]rune(label)), 3))))
	}
	points := func(v float64) string { return fmt.Sprintf("%.1f", v) }

	field("Title", j.Title)
	field("Company", j.Company)
	field("Location", j.Location)
	field("Remote", j.RemoteType)
	field("Employment", j.EmploymentType)
	field("Source Job ID", j.SourceJobID)
	if j.PostedAt != nil {
		field("Posted At", j.PostedAt.UTC().Format("2006-01-02 15:04 MST"))
	}

	section("Score")
	field("Decision", decisionLabel(e))
	field("Total", points(s.Total))
	field("Keywords", points(s.KeywordScore))
	field("Seniority", points(s.SeniorityScore))
	field("Remote bonus", points(s.RemoteBonus))
	field("Region bonus", points(s.RegionBonus))
	matched := "(none)"
	if len(s.MatchedKeywords) > 0 {
		matched = strings.Join(s.MatchedKeywords, ", ")
	}
	field("Matched", matched)
	if !e.Passed {
		field("Pre-filter", "dropped before dedup")
	}

	if len(j.Raw) > 0 {
		section("Source Fields")
		names := make([]string, 0, len(j.Raw))
		for k := range j.Raw {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			field(k, rawString(j.Raw[k]))
		}
	}

	b.WriteByte('\n')
	field("Job URL", j.CanonicalURL)

	switch {
	case j.Description == "":
	case m.showDesc:
		section("Job Description")
		b.WriteString(bodyText.Width(width).Render(j.Description) + "\n")
	default:
		b.WriteString("\n" + dim.Italic(true).Render("  press r to read job description") + "\n")
	}
	return b.String()
}

func decisionLabel(e Entry) string {
	if e.Score.Decision == model.DecisionAccept {
		return acceptLabel.Render("ACCEPT")
	}
	return rejectLabel.Render("reject")
}

func rawString(v model.RawValue) string {
	switch v.Kind {
	case model.RawString:
		return v.Str
	case model.RawNumber:
		return fmt.Sprintf("%g", v.Num)
	case model.RawBool:
		return fmt.Sprintf("%t", v.Bool)
	}
	return ""
}

func renderEntries(entries []Entry, cursor int, focused bool) string {
	if len(entries) == 0 {
		return "  (no postings)"
	}
	rows := make([]string, 0, len(entries))
	for i, e := range entries {
		title, sub, mark := bold, dim, "  "
		if focused && i == cursor {
			title, sub, mark = cursorRow.Bold(true).Foreground(colorBright), cursorRow, "> "
		}
		posted := "n/a"
		if e.Job.PostedAt != nil {
			posted = e.Job.PostedAt.Format(time.DateOnly)
		}
		info := fmt.Sprintf("%.0f · %s · %s", e.Score.Total, e.Job.Location, posted)
		if !e.Passed {
			info += " · filtered"
		}
		rows = append(rows, mark+title.Render(e.Job.Title)+"\n"+mark+sub.Render(info))
	}
	return strings.Join(rows, "\n\n")
}

// openURL hands url to the platform's browser launcher and does not wait.
func openURL(url string) {
	if url == "" {
		return
	}
	var name string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "linux":
		name = "xdg-open"
	case "windows":
		name, args = "cmd", []string{"/c", "start"}
	default:
		return
	}
	_ = exec.Command(name, append(args, url)...).Start()
}

// RunAuditTUI shows the split-pane audit view. It reports true when the
// user quit and false when they went back to the source picker.
func RunAuditTUI(sourceName string, entries []Entry) (bool, error) {
	final, err := tea.NewProgram(newAuditModel(sourceName, entries), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	return final.(auditModel).wantQuit, nil
}
