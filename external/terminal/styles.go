package terminal

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	statusStyles = map[string]lipgloss.Style{
		"idle":       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		"connecting": lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		"active":     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		"paused":     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		"ended":      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	questionBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	roleStyles = map[string]lipgloss.Style{
		"system": lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244")),
		"user":   lipgloss.NewStyle().Foreground(lipgloss.Color("86")),
		"ai":     lipgloss.NewStyle().Foreground(lipgloss.Color("219")),
	}
)
