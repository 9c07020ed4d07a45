// Package tui implements the interactive terminal dashboards: login and
// sign-up, the user-facing concert list with reserve/cancel, the reservation
// history, and the admin dashboard.
package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"ticketbooth/internal/api"
	"ticketbooth/internal/errs"
	"ticketbooth/internal/model"
	"ticketbooth/internal/pagination"
	"ticketbooth/internal/reconcile"
	"ticketbooth/internal/session"
)

// screen identifies the active view.
type screen int

const (
	screenLoading screen = iota
	screenLogin
	screenConcerts
	screenHistory
	screenDashboard
	screenNewConcert
	screenConfirmCancel
)

// Login form field order. The name field is shown only in sign-up mode.
const (
	fieldName = iota
	fieldEmail
	fieldPassword
	fieldCount
)

const defaultPageSize = 5

// Model is the top-level bubbletea model.
type Model struct {
	api     *api.Client
	session *session.Store
	rec     *reconcile.Reconciler
	theme   Theme
	keys    KeyMap

	screen screen
	width  int
	height int

	spin spinner.Model
	busy bool

	// Login / sign-up form.
	signup bool
	inputs [fieldCount]textinput.Model
	focus  int

	// Concert list.
	concertPager *pagination.Pager
	cursor       int

	// History.
	historyPager *pagination.Pager
	transactions []model.Transaction

	// Admin dashboard.
	stats model.DashboardStats

	// New concert form: name, description, seats.
	form      [3]textinput.Model
	formFocus int

	// Concert pending admin cancellation.
	confirmID   string
	confirmName string

	// Status bar notice. seq invalidates stale fade timers.
	notice    string
	noticeErr bool
	noticeSeq int
}

// New wires the model to its collaborators. The reconciler must be driving
// the same api client and session store.
func New(apiClient *api.Client, sess *session.Store, rec *reconcile.Reconciler) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		api:          apiClient,
		session:      sess,
		rec:          rec,
		theme:        DefaultTheme,
		keys:         DefaultKeyMap(),
		screen:       screenLoading,
		spin:         sp,
		concertPager: pagination.New(defaultPageSize),
		historyPager: pagination.New(defaultPageSize),
	}

	m.inputs[fieldName] = newInput("Name")
	m.inputs[fieldEmail] = newInput("Email")
	m.inputs[fieldPassword] = newInput("Password")
	m.inputs[fieldPassword].EchoMode = textinput.EchoPassword

	m.form[0] = newInput("Concert name")
	m.form[1] = newInput("Description")
	m.form[2] = newInput("Seats")

	return m
}

func newInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 120
	return ti
}

// Init restores the persisted session before showing anything interactive.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.restoreSession())
}

// setNotice replaces the status bar notice and schedules its fade.
func (m *Model) setNotice(text string, isErr bool) tea.Cmd {
	m.notice = text
	m.noticeErr = isErr
	m.noticeSeq++
	return fadeNotice(m.noticeSeq)
}

// afterAuth routes to the role's home screen and kicks off its first fetch.
func (m *Model) afterAuth() tea.Cmd {
	m.cursor = 0
	m.concertPager = pagination.New(defaultPageSize)
	m.historyPager = pagination.New(defaultPageSize)
	m.busy = true
	if m.session.Role() == model.RoleAdmin {
		m.screen = screenDashboard
		return tea.Batch(m.loadStats(), m.loadConcerts())
	}
	m.screen = screenConcerts
	return m.loadConcerts()
}

func (m *Model) toLogin() {
	m.screen = screenLogin
	m.signup = false
	m.focus = fieldEmail
	for i := range m.inputs {
		m.inputs[i].SetValue("")
		m.inputs[i].Blur()
	}
	m.inputs[fieldEmail].Focus()
}

// Update is the message loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case sessionRestoredMsg:
		if m.session.Token() == "" {
			m.toLogin()
			var cmd tea.Cmd
			if msg.err != nil {
				cmd = m.setNotice("Session expired, log in again", true)
			}
			return m, cmd
		}
		return m, m.afterAuth()

	case authResultMsg:
		if msg.err != nil {
			return m, m.setNotice(errs.UserMessage(msg.err), true)
		}
		return m, m.afterAuth()

	case concertsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			// Stale data stays on screen; only the notice reports the failure.
			return m, m.setNotice(errs.UserMessage(msg.err), true)
		}
		m.rec.Load(msg.page.Concerts)
		m.concertPager.SetMeta(msg.page.Meta)
		if n := len(msg.page.Concerts); m.cursor >= n && n > 0 {
			m.cursor = n - 1
		} else if n == 0 {
			m.cursor = 0
		}
		return m, nil

	case historyLoadedMsg:
		m.busy = false
		if msg.err != nil {
			return m, m.setNotice(errs.UserMessage(msg.err), true)
		}
		m.transactions = msg.page.Transactions
		m.historyPager.SetMeta(msg.page.Meta)
		return m, nil

	case statsLoadedMsg:
		m.busy = false
		if msg.err != nil {
			return m, m.setNotice(errs.UserMessage(msg.err), true)
		}
		m.stats = msg.stats
		return m, nil

	case actionResultMsg:
		if msg.err != nil {
			return m, m.setNotice(errs.UserMessage(msg.err), true)
		}
		return m, m.setNotice(msg.action, false)

	case concertMutatedMsg:
		if msg.err != nil {
			return m, m.setNotice(errs.UserMessage(msg.err), true)
		}
		m.busy = true
		cmds := []tea.Cmd{m.setNotice(msg.action, false), m.loadConcerts()}
		if m.session.Role() == model.RoleAdmin {
			cmds = append(cmds, m.loadStats())
		}
		return m, tea.Batch(cmds...)

	case noticeFadeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Quit works everywhere except inside text entry.
	if m.screen != screenLogin && m.screen != screenNewConcert &&
		key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	switch m.screen {
	case screenLogin:
		return m.handleLoginKey(msg)
	case screenConcerts:
		return m.handleConcertsKey(msg)
	case screenHistory:
		return m.handleHistoryKey(msg)
	case screenDashboard:
		return m.handleDashboardKey(msg)
	case screenNewConcert:
		return m.handleNewConcertKey(msg)
	case screenConfirmCancel:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

// ---- login / sign-up ----

// loginFields lists the active field indexes for the current mode.
func (m *Model) loginFields() []int {
	if m.signup {
		return []int{fieldName, fieldEmail, fieldPassword}
	}
	return []int{fieldEmail, fieldPassword}
}

func (m *Model) focusLoginField(idx int) {
	m.focus = idx
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.inputs[idx].Focus()
}

func (m *Model) cycleLoginFocus(dir int) {
	fields := m.loginFields()
	cur := 0
	for i, f := range fields {
		if f == m.focus {
			cur = i
			break
		}
	}
	next := (cur + dir + len(fields)) % len(fields)
	m.focusLoginField(fields[next])
}

func (m *Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "tab", "down":
		m.cycleLoginFocus(1)
		return m, nil

	case "shift+tab", "up":
		m.cycleLoginFocus(-1)
		return m, nil

	case "ctrl+s":
		m.signup = !m.signup
		if !m.signup && m.focus == fieldName {
			m.focusLoginField(fieldEmail)
		}
		return m, nil

	case "enter":
		name := strings.TrimSpace(m.inputs[fieldName].Value())
		email := strings.TrimSpace(m.inputs[fieldEmail].Value())
		password := m.inputs[fieldPassword].Value()
		if email == "" || password == "" || (m.signup && name == "") {
			return m, m.setNotice("All fields are required", true)
		}
		m.busy = true
		if m.signup {
			return m, m.signUp(name, email, password)
		}
		return m, m.login(email, password)
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// ---- concert list ----

func (m *Model) selectedConcert() (model.Concert, bool) {
	concerts := m.rec.Concerts()
	if m.cursor < 0 || m.cursor >= len(concerts) {
		return model.Concert{}, false
	}
	return concerts[m.cursor], true
}

func (m *Model) handleConcertsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rec.Concerts())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.concertPager.Next() {
			m.cursor = 0
			m.busy = true
			return m, m.loadConcerts()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.concertPager.Prev() {
			m.cursor = 0
			m.busy = true
			return m, m.loadConcerts()
		}
		return m, nil

	case key.Matches(msg, m.keys.Reserve):
		c, ok := m.selectedConcert()
		if !ok {
			return m, nil
		}
		return m, m.reserve(c.ID)

	case key.Matches(msg, m.keys.Cancel):
		c, ok := m.selectedConcert()
		if !ok {
			return m, nil
		}
		if !c.Reserved() {
			return m, m.setNotice("Nothing to cancel", true)
		}
		return m, m.cancelReservation(c.ID)

	case key.Matches(msg, m.keys.CancelConcert):
		if m.session.Role() != model.RoleAdmin {
			return m, nil
		}
		c, ok := m.selectedConcert()
		if !ok {
			return m, nil
		}
		m.confirmID = c.ID
		m.confirmName = c.Name
		m.screen = screenConfirmCancel
		return m, nil

	case key.Matches(msg, m.keys.NewConcert):
		if m.session.Role() != model.RoleAdmin {
			return m, nil
		}
		return m, m.openNewConcert()

	case key.Matches(msg, m.keys.Refresh):
		m.busy = true
		return m, m.loadConcerts()
	}

	return m.handleCommonKey(msg)
}

// ---- history ----

func (m *Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NextPage):
		if m.historyPager.Next() {
			m.busy = true
			return m, m.loadHistory()
		}
		return m, nil

	case key.Matches(msg, m.keys.PrevPage):
		if m.historyPager.Prev() {
			m.busy = true
			return m, m.loadHistory()
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.busy = true
		return m, m.loadHistory()
	}

	return m.handleCommonKey(msg)
}

// ---- dashboard ----

func (m *Model) handleDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NewConcert):
		return m, m.openNewConcert()

	case key.Matches(msg, m.keys.Refresh):
		m.busy = true
		return m, tea.Batch(m.loadStats(), m.loadConcerts())
	}

	return m.handleCommonKey(msg)
}

// ---- new concert form ----

func (m *Model) openNewConcert() tea.Cmd {
	m.screen = screenNewConcert
	m.formFocus = 0
	for i := range m.form {
		m.form[i].SetValue("")
		m.form[i].Blur()
	}
	m.form[0].Focus()
	return nil
}

func (m *Model) handleNewConcertKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.screen = screenDashboard
		if m.session.Role() != model.RoleAdmin {
			m.screen = screenConcerts
		}
		return m, nil

	case "tab", "down":
		m.form[m.formFocus].Blur()
		m.formFocus = (m.formFocus + 1) % len(m.form)
		m.form[m.formFocus].Focus()
		return m, nil

	case "shift+tab", "up":
		m.form[m.formFocus].Blur()
		m.formFocus = (m.formFocus - 1 + len(m.form)) % len(m.form)
		m.form[m.formFocus].Focus()
		return m, nil

	case "enter":
		name := strings.TrimSpace(m.form[0].Value())
		seats, err := strconv.Atoi(strings.TrimSpace(m.form[2].Value()))
		if name == "" || err != nil || seats <= 0 {
			return m, m.setNotice("Need a name and a positive seat count", true)
		}
		m.screen = screenDashboard
		return m, m.createConcert(api.CreateConcertParams{
			Name:        name,
			Description: strings.TrimSpace(m.form[1].Value()),
			MaxSeats:    seats,
		})
	}

	var cmd tea.Cmd
	m.form[m.formFocus], cmd = m.form[m.formFocus].Update(msg)
	return m, cmd
}

// ---- cancel-concert confirmation ----

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		id := m.confirmID
		m.confirmID = ""
		m.confirmName = ""
		m.screen = screenConcerts
		return m, m.cancelConcert(id)

	case "n", "esc":
		m.confirmID = ""
		m.confirmName = ""
		m.screen = screenConcerts
		return m, nil
	}
	return m, nil
}

// ---- shared ----

// handleCommonKey covers screen switching and logout on the authenticated
// screens.
func (m *Model) handleCommonKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Concerts):
		m.screen = screenConcerts
		m.busy = true
		return m, m.loadConcerts()

	case key.Matches(msg, m.keys.History):
		m.screen = screenHistory
		m.busy = true
		return m, m.loadHistory()

	case key.Matches(msg, m.keys.Dashboard):
		if m.session.Role() != model.RoleAdmin {
			return m, nil
		}
		m.screen = screenDashboard
		m.busy = true
		return m, tea.Batch(m.loadStats(), m.loadConcerts())

	case key.Matches(msg, m.keys.Logout):
		_ = m.session.Logout()
		m.rec.Load(nil)
		m.toLogin()
		return m, nil
	}
	return m, nil
}
