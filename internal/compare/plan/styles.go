package plan

import "github.com/charmbracelet/lipgloss"

var (
	accent  = lipgloss.Color("#FF6B35")
	muted   = lipgloss.Color("#90A4AE")
	warning = lipgloss.Color("#FFB74D")
	border  = lipgloss.AdaptiveColor{Light: "#DDDDDD", Dark: "#30363D"}

	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(14)

	headerStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Align(lipgloss.Right)

	warningStyle = lipgloss.NewStyle().
			Foreground(warning)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)
)
