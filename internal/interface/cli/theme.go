package cli

import "github.com/charmbracelet/lipgloss"

var (
	neonPurple = lipgloss.Color("#B026FF")
	neonGreen  = lipgloss.Color("#39FF14")
	darkRed    = lipgloss.Color("#8B0000")
	gray       = lipgloss.Color("#808080")
	white      = lipgloss.Color("#FFFFFF")

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(neonPurple).
			Padding(1, 2)

	titleStyle    = lipgloss.NewStyle().Foreground(neonGreen).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(gray)
	textStyle     = lipgloss.NewStyle().Foreground(white)
	advisoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB020")).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	userLabel  = lipgloss.NewStyle().Foreground(neonGreen).Bold(true).Render("you")
	astroLabel = lipgloss.NewStyle().Foreground(neonPurple).Bold(true).Render("astro master")
	errorLabel = lipgloss.NewStyle().Foreground(darkRed).Bold(true).Render("astro master")
)
