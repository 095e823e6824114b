package ui

import "github.com/charmbracelet/lipgloss"

// Styles defines the lipgloss styles of the kiosk screens.
var Styles = struct {
	Bold       lipgloss.Style
	SessionBox lipgloss.Style
	CartBox    lipgloss.Style
	ConfirmBox lipgloss.Style
	ErrorBox   lipgloss.Style
	UserTurn   lipgloss.Style
	AssistTurn lipgloss.Style
	Muted      lipgloss.Style
	Total      lipgloss.Style
}{
	Bold: lipgloss.NewStyle().Bold(true),

	SessionBox: lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(lipgloss.Color("86")).
		Padding(1, 2).
		Align(lipgloss.Center).
		Width(60),

	CartBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("214")).
		Padding(0, 1).
		Width(60),

	ConfirmBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("42")).
		Padding(0, 1).
		Width(60),

	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("196")).
		Padding(0, 1).
		Width(60),

	UserTurn:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
	AssistTurn: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	Total:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
}
