package main

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title  lipgloss.Style
	user   lipgloss.Style
	bot    lipgloss.Style
	muted  lipgloss.Style
	notice lipgloss.Style
	err    lipgloss.Style
	stars  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		user:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")),
		bot:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		notice: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		err:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		stars:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
	}
}
