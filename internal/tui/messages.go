package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"ticketbooth/internal/model"
)

// noticeFadeDelay is how long a status bar notice stays visible.
const noticeFadeDelay = 5 * time.Second

// sessionRestoredMsg is sent once the persisted session has been verified
// against the identity endpoint. err is non-nil when verification failed and
// the session was cleared.
type sessionRestoredMsg struct {
	err error
}

// authResultMsg is sent when a login or sign-up attempt completes. On
// success the session store already holds the committed session.
type authResultMsg struct {
	err error
}

// concertsLoadedMsg carries one fetched page of concerts.
type concertsLoadedMsg struct {
	page model.ConcertPage
	err  error
}

// historyLoadedMsg carries one fetched page of the audit history.
type historyLoadedMsg struct {
	page model.TransactionPage
	err  error
}

// statsLoadedMsg carries the admin dashboard aggregates.
type statsLoadedMsg struct {
	stats model.DashboardStats
	err   error
}

// actionResultMsg is sent when an asynchronous reserve or cancel settles.
// The reconciler has already patched or rolled back the cached list.
type actionResultMsg struct {
	concertID string
	action    string
	err       error
}

// concertMutatedMsg is sent when an admin create or cancel settles. The
// list is stale either way; the handler triggers a reload.
type concertMutatedMsg struct {
	action string
	err    error
}

// noticeFadeMsg clears the status bar notice. seq guards against an old
// fade timer wiping a newer notice.
type noticeFadeMsg struct {
	seq int
}

func fadeNotice(seq int) tea.Cmd {
	return tea.Tick(noticeFadeDelay, func(time.Time) tea.Msg {
		return noticeFadeMsg{seq: seq}
	})
}
