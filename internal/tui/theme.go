package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the terminal dashboards. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Reservation state accents.
	Confirmed lipgloss.Color
	Cancelled lipgloss.Color
	InFlight  lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Status bar notices.
	NoticeOK  lipgloss.Color
	NoticeErr lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	Confirmed: lipgloss.Color("114"), // green
	Cancelled: lipgloss.Color("196"), // red
	InFlight:  lipgloss.Color("220"), // yellow/amber

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	NoticeOK:  lipgloss.Color("114"),
	NoticeErr: lipgloss.Color("203"),
}

// statusColor maps a reservation status string to its accent color.
func (t Theme) statusColor(status string) lipgloss.Color {
	switch status {
	case "CONFIRMED":
		return t.Confirmed
	case "CANCELLED":
		return t.Cancelled
	default:
		return t.FaintText
	}
}
