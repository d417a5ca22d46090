package cmd

import "github.com/charmbracelet/lipgloss"

// Semantic styles for terminal output. lipgloss drops the colors when the
// output is not a terminal.
var (
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	Error   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	Dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	Bold    = lipgloss.NewStyle().Bold(true)

	SuccessPrefix = Success.Render("✓")
	WarningPrefix = Warning.Render("⚠")
	ErrorPrefix   = Error.Render("✗")
	InfoPrefix    = Info.Render("ℹ")
	ArrowPrefix   = Info.Render("→")

	// Heading frames section titles in the viability report.
	Heading = lipgloss.NewStyle().Bold(true).Underline(true).MarginTop(1)
)
