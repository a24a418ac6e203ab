package manager

import "github.com/charmbracelet/lipgloss"

// Colors using AdaptiveColor for light/dark terminal support.
var (
	colorWhite = lipgloss.AdaptiveColor{Light: "0", Dark: "15"}
	colorDim   = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed   = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorCyan  = lipgloss.AdaptiveColor{Light: "30", Dark: "45"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorWhite).
			Padding(0, 1)

	headerRowStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorDim)

	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.AdaptiveColor{Light: "254", Dark: "237"})

	runningStyle = lipgloss.NewStyle().Foreground(colorGreen)
	badgeStyle   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	onStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)

	errorBarStyle = lipgloss.NewStyle().
			Background(colorRed).
			Foreground(colorWhite)

	keyStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	hintStyle = lipgloss.NewStyle().Foreground(colorDim)
)
