package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/tcurtsinger/Obsidian-AI-Cortex-MCP/internal/tracker"
)

// styled reports whether output should be colorized: stdout must be an
// interactive terminal and the terminal must support color at all.
var styled = term.IsTerminal(int(os.Stdout.Fd())) && termenv.ColorProfile() != termenv.Ascii

var (
	styleHeader = lipgloss.NewStyle().Bold(true)
	styleMuted  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	styleAccent = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	styleGood   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleWarn   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleBad    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// render applies a style only when styling is on, so piped output stays
// plain text.
func render(style lipgloss.Style, s string) string {
	if !styled {
		return s
	}
	return style.Render(s)
}

// statusStyle picks the color for a canonical tracker status label.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case tracker.StatusOpen:
		return styleAccent
	case tracker.StatusInProgress, tracker.StatusInValidation:
		return styleWarn
	case tracker.StatusBlocked:
		return styleBad
	case tracker.StatusDone:
		return styleGood
	default:
		return styleMuted
	}
}

// renderStatus colorizes a canonical tracker status label.
func renderStatus(status string) string {
	return render(statusStyle(status), status)
}
