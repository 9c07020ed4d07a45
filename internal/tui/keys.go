package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the key bindings for the dashboards.
type KeyMap struct {
	// List navigation.
	Up   key.Binding
	Down key.Binding

	// Pagination.
	NextPage key.Binding
	PrevPage key.Binding

	// Screen switching.
	Concerts  key.Binding
	History   key.Binding
	Dashboard key.Binding

	// Actions on the selected concert.
	Reserve key.Binding
	Cancel  key.Binding

	// Admin actions.
	NewConcert    key.Binding
	CancelConcert key.Binding

	// Forms and modals.
	Submit key.Binding
	Back   key.Binding

	Refresh key.Binding
	Logout  key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l", "n"),
			key.WithHelp("→/n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h", "p"),
			key.WithHelp("←/p", "prev page"),
		),
		Concerts: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "concerts"),
		),
		History: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "history"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "dashboard"),
		),
		Reserve: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reserve"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel reservation"),
		),
		NewConcert: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add concert"),
		),
		CancelConcert: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel concert"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "logout"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
