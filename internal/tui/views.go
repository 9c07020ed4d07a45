package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ticketbooth/internal/model"
)

// View renders the active screen plus the shared status bar.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenLoading:
		body = m.spin.View() + " restoring session..."
	case screenLogin:
		body = m.viewLogin()
	case screenConcerts:
		body = m.viewConcerts()
	case screenHistory:
		body = m.viewHistory()
	case screenDashboard:
		body = m.viewDashboard()
	case screenNewConcert:
		body = m.viewNewConcert()
	case screenConfirmCancel:
		body = m.viewConfirm()
	}
	return body + "\n" + m.viewStatusBar()
}

func (m *Model) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(m.theme.HeaderForeground)
}

func (m *Model) helpStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(m.theme.HelpText)
}

func (m *Model) faint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(m.theme.FaintText)
}

func (m *Model) viewLogin() string {
	var b strings.Builder
	title := "Log in"
	if m.signup {
		title = "Sign up"
	}
	b.WriteString(m.headerStyle().Render("Ticketbooth · "+title) + "\n\n")

	for _, f := range m.loginFields() {
		b.WriteString(m.inputs[f].View() + "\n")
	}

	hint := "enter submit · tab next field · ctrl+s sign up · ctrl+c quit"
	if m.signup {
		hint = "enter submit · tab next field · ctrl+s back to log in · ctrl+c quit"
	}
	b.WriteString("\n" + m.helpStyle().Render(hint))
	return b.String()
}

func (m *Model) viewConcerts() string {
	var b strings.Builder
	b.WriteString(m.viewTabs("Concerts"))

	concerts := m.rec.Concerts()
	if m.busy && len(concerts) == 0 {
		b.WriteString(m.spin.View() + " loading...\n")
	} else if len(concerts) == 0 {
		b.WriteString(m.faint().Render("No concerts.") + "\n")
	}

	selected := lipgloss.NewStyle().
		Background(m.theme.SelectedBackground).
		Foreground(m.theme.SelectedForeground)

	for i, c := range concerts {
		line := m.concertLine(c)
		if i == m.cursor {
			line = selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n" + m.faint().Render(m.pageLine(m.concertPager.Page(), m.concertPager.PageCount(), m.concertPager.Total())))

	help := "r reserve · c cancel · ←/→ page · 2 history"
	if m.session.Role() == model.RoleAdmin {
		help += " · 3 dashboard · a add · x cancel concert"
	}
	help += " · R refresh · q quit"
	b.WriteString("\n" + m.helpStyle().Render(help))
	return b.String()
}

// concertLine renders one row: name, capacity, and the caller's reservation
// state with its in-flight marker.
func (m *Model) concertLine(c model.Concert) string {
	line := fmt.Sprintf("%-30s %4d seats", truncate(c.Name, 30), c.VenueCapacity)

	badge := ""
	switch {
	case m.rec.InFlight(c.ID):
		badge = lipgloss.NewStyle().Foreground(m.theme.InFlight).Render("⋯ pending")
	case c.ReservationStatus != "":
		st := string(c.ReservationStatus)
		badge = lipgloss.NewStyle().
			Foreground(m.theme.statusColor(st)).
			Render(strings.ToLower(st))
	}
	if badge != "" {
		line += "  " + badge
	}
	return line
}

func (m *Model) viewHistory() string {
	var b strings.Builder
	b.WriteString(m.viewTabs("History"))

	if m.busy && len(m.transactions) == 0 {
		b.WriteString(m.spin.View() + " loading...\n")
	} else if len(m.transactions) == 0 {
		b.WriteString(m.faint().Render("No reservation history.") + "\n")
	}

	for _, t := range m.transactions {
		action := lipgloss.NewStyle().
			Foreground(m.theme.statusColor(string(t.Action))).
			Render(fmt.Sprintf("%-9s", t.Action))
		b.WriteString(fmt.Sprintf("%s %-24s %-16s %s\n",
			action,
			truncate(t.ConcertName, 24),
			truncate(t.Username, 16),
			t.CreatedAt.Format("2006-01-02 15:04"),
		))
	}

	b.WriteString("\n" + m.faint().Render(m.pageLine(m.historyPager.Page(), m.historyPager.PageCount(), m.historyPager.Total())))
	b.WriteString("\n" + m.helpStyle().Render("←/→ page · 1 concerts · R refresh · q quit"))
	return b.String()
}

func (m *Model) viewDashboard() string {
	var b strings.Builder
	b.WriteString(m.viewTabs("Dashboard"))

	avail := m.stats.TotalSeats - m.stats.ReservedCount
	if avail < 0 {
		avail = 0
	}
	b.WriteString(fmt.Sprintf("Total seats      %6d\n", m.stats.TotalSeats))
	b.WriteString(fmt.Sprintf("Reserved         %6d\n", m.stats.ReservedCount))
	b.WriteString(fmt.Sprintf("Cancelled        %6d\n", m.stats.CancelledCount))
	b.WriteString(fmt.Sprintf("Available        %6d\n", avail))

	b.WriteString("\n" + m.helpStyle().Render("a add concert · 1 concerts · 2 history · R refresh · q quit"))
	return b.String()
}

func (m *Model) viewNewConcert() string {
	var b strings.Builder
	b.WriteString(m.headerStyle().Render("New concert") + "\n\n")
	labels := [3]string{"Name", "Description", "Seats"}
	for i := range m.form {
		b.WriteString(fmt.Sprintf("%-12s %s\n", labels[i], m.form[i].View()))
	}
	b.WriteString("\n" + m.helpStyle().Render("enter create · tab next field · esc back"))
	return b.String()
}

func (m *Model) viewConfirm() string {
	warn := lipgloss.NewStyle().Foreground(m.theme.Cancelled)
	return m.headerStyle().Render("Cancel concert") + "\n\n" +
		warn.Render(fmt.Sprintf("Cancel %q for everyone?", m.confirmName)) + "\n\n" +
		m.helpStyle().Render("y confirm · n back")
}

func (m *Model) viewTabs(active string) string {
	tabs := []string{"Concerts", "History"}
	if m.session.Role() == model.RoleAdmin {
		tabs = append(tabs, "Dashboard")
	}
	parts := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t == active {
			parts = append(parts, m.headerStyle().Render("["+t+"]"))
		} else {
			parts = append(parts, m.faint().Render(" "+t+" "))
		}
	}
	user := m.session.User()
	who := m.faint().Render(fmt.Sprintf("%s (%s)", user.Email, m.session.Role()))
	return strings.Join(parts, " ") + "   " + who + "\n\n"
}

func (m *Model) pageLine(page, pages, total int) string {
	if pages == 0 {
		return "page 0/0"
	}
	return fmt.Sprintf("page %d/%d · %d total", page, pages, total)
}

func (m *Model) viewStatusBar() string {
	if m.notice == "" {
		if m.busy {
			return m.faint().Render(m.spin.View() + " working...")
		}
		return ""
	}
	color := m.theme.NoticeOK
	if m.noticeErr {
		color = m.theme.NoticeErr
	}
	return lipgloss.NewStyle().Foreground(color).Render(m.notice)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
