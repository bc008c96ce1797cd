package audit

import "github.com/charmbracelet/lipgloss"

const (
	colorAccent  = lipgloss.Color("39")
	colorMuted   = lipgloss.Color("240")
	colorDim     = lipgloss.Color("245")
	colorText    = lipgloss.Color("252")
	colorBright  = lipgloss.Color("15")
	colorBar     = lipgloss.Color("236")
	colorCursor  = lipgloss.Color("24")
	colorAccept  = lipgloss.Color("42")
	colorReject  = lipgloss.Color("203")
	colorSpinner = lipgloss.Color("33")
)

var (
	paneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	bold      = lipgloss.NewStyle().Bold(true)
	muted     = lipgloss.NewStyle().Foreground(colorMuted)
	dim       = lipgloss.NewStyle().Foreground(colorDim)
	bodyText  = lipgloss.NewStyle().Foreground(colorText)

	statusBar = lipgloss.NewStyle().Padding(0, 1).Foreground(colorText).Background(colorBar)
	cursorRow = lipgloss.NewStyle().Foreground(colorText).Background(colorCursor)
	fieldName = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Width(18)

	acceptLabel = lipgloss.NewStyle().Foreground(colorAccept).Bold(true)
	rejectLabel = lipgloss.NewStyle().Foreground(colorReject)
)

// paneChrome returns the border and header styles for a pane.
func paneChrome(focused bool) (border, header lipgloss.Style) {
	c := colorMuted
	if focused {
		c = colorAccent
	}
	return paneStyle.BorderForeground(c), bold.Padding(0, 1).Foreground(c)
}
