package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"ticketbooth/internal/api"
	"ticketbooth/internal/model"
)

// Commands run API calls off the update loop and report back through
// messages. Request deadlines come from the HTTP client's timeout, so a
// background context is enough here.

func (m *Model) restoreSession() tea.Cmd {
	return func() tea.Msg {
		err := m.session.Restore(context.Background(), m.api)
		return sessionRestoredMsg{err: err}
	}
}

// login authenticates and commits the session. When the backend omits role
// or id from the login response, the identity endpoint fills them in.
func (m *Model) login(email, password string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.api.Login(context.Background(), email, password)
		if err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{err: m.commitAuth(res)}
	}
}

func (m *Model) signUp(name, email, password string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.api.Register(context.Background(), name, email, password, model.RoleUser)
		if err != nil {
			return authResultMsg{err: err}
		}
		return authResultMsg{err: m.commitAuth(res)}
	}
}

// commitAuth persists an auth result, resolving identity via /me when the
// response left role or user id blank.
func (m *Model) commitAuth(res api.AuthResult) error {
	user := model.User{ID: res.UserID, Role: res.Role}
	if res.Role == "" || res.UserID == "" {
		// Commit the token first so the follow-up call is authenticated.
		if err := m.session.SetAuth(res.Token, model.RoleUser, user); err != nil {
			return err
		}
		resolved, err := m.api.Me(context.Background())
		if err != nil {
			_ = m.session.Logout()
			return err
		}
		user = resolved
		res.Role = resolved.Role
	}
	return m.session.SetAuth(res.Token, res.Role, user)
}

func (m *Model) loadConcerts() tea.Cmd {
	params := api.ListConcertsParams{
		Page:  m.concertPager.Page(),
		Limit: m.concertPager.Limit(),
	}
	if u := m.session.User(); u.Role != model.RoleAdmin {
		params.UserID = u.ID
	}
	return func() tea.Msg {
		page, err := m.api.ListConcerts(context.Background(), params)
		return concertsLoadedMsg{page: page, err: err}
	}
}

func (m *Model) loadHistory() tea.Cmd {
	params := api.ListTransactionsParams{
		Page:  m.historyPager.Page(),
		Limit: m.historyPager.Limit(),
	}
	if u := m.session.User(); u.Role == model.RoleAdmin {
		params.Admin = true
	} else {
		params.UserID = u.ID
	}
	return func() tea.Msg {
		page, err := m.api.ListTransactions(context.Background(), params)
		return historyLoadedMsg{page: page, err: err}
	}
}

func (m *Model) loadStats() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.api.DashboardStats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func (m *Model) reserve(concertID string) tea.Cmd {
	return func() tea.Msg {
		err := m.rec.Reserve(context.Background(), concertID)
		return actionResultMsg{concertID: concertID, action: "Reserved", err: err}
	}
}

func (m *Model) cancelReservation(concertID string) tea.Cmd {
	return func() tea.Msg {
		err := m.rec.CancelReservation(context.Background(), concertID)
		return actionResultMsg{concertID: concertID, action: "Cancelled", err: err}
	}
}

func (m *Model) cancelConcert(concertID string) tea.Cmd {
	return func() tea.Msg {
		err := m.rec.CancelConcert(context.Background(), concertID)
		return concertMutatedMsg{action: "Concert cancelled", err: err}
	}
}

func (m *Model) createConcert(p api.CreateConcertParams) tea.Cmd {
	return func() tea.Msg {
		_, err := m.api.CreateConcert(context.Background(), p)
		return concertMutatedMsg{action: "Concert created", err: err}
	}
}
