package cli

import "github.com/charmbracelet/lipgloss"

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

var (
	markOK   = okStyle.Render("✓")
	markWarn = warnStyle.Render("⚠")
	markErr  = errStyle.Render("✗")
	markSkip = dimStyle.Render("-")
)
