// Package stub is an in-memory implementation of the reservation REST API.
// It exists so the client can be developed and tested end-to-end without the
// real backend. State lives in process memory and is lost on restart.
package stub

import (
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/crypto/bcrypt"

	"ticketbooth/internal/model"
	"ticketbooth/internal/pagination"
)

// Store-level failures, mapped to HTTP statuses by the server layer.
var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrBadCredentials      = errors.New("invalid credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrConcertNotFound     = errors.New("concert not found")
	ErrConcertCancelled    = errors.New("concert is cancelled")
	ErrAlreadyReserved     = errors.New("already reserved")
	ErrSoldOut             = errors.New("concert is sold out")
	ErrReservationNotFound = errors.New("reservation not found")
)

// User is a stored account.
type User struct {
	ID           string
	Name         string
	Email        string
	Role         model.Role
	passwordHash []byte
}

type concert struct {
	id          string
	name        string
	description string
	maxSeats    int
	cancelled   bool
	createdAt   time.Time
}

type reservation struct {
	id        string
	userID    string
	concertID string
	status    model.ReservationStatus
	createdAt time.Time
	updatedAt time.Time
}

type transaction struct {
	model.Transaction
	userID string
}

// Store holds all stub state behind one mutex.
type Store struct {
	mu           sync.Mutex
	usersByID    map[string]*User
	usersByEmail map[string]*User
	concerts     []*concert
	reservations []*reservation
	transactions []transaction

	bcryptCost int
	now        func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		usersByID:    make(map[string]*User),
		usersByEmail: make(map[string]*User),
		bcryptCost:   bcrypt.DefaultCost,
		now:          time.Now,
	}
}

func newID() string {
	id, _ := uuid.NewV4()
	return id.String()
}

// CreateUser registers an account with a bcrypt-hashed password.
func (s *Store) CreateUser(name, email, password string, role model.Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[email]; exists {
		return nil, ErrEmailTaken
	}
	u := &User{ID: newID(), Name: name, Email: email, Role: role, passwordHash: hash}
	s.usersByID[u.ID] = u
	s.usersByEmail[u.Email] = u
	return u, nil
}

// Authenticate verifies email/password.
func (s *Store) Authenticate(email, password string) (*User, error) {
	s.mu.Lock()
	u, ok := s.usersByEmail[email]
	s.mu.Unlock()
	if !ok {
		return nil, ErrBadCredentials
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// UserByID looks up an account.
func (s *Store) UserByID(id string) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.usersByID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// CreateConcert adds a new active concert.
func (s *Store) CreateConcert(name, description string, maxSeats int) model.Concert {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &concert{
		id:          newID(),
		name:        name,
		description: description,
		maxSeats:    maxSeats,
		createdAt:   s.now(),
	}
	s.concerts = append(s.concerts, c)
	return c.toModel()
}

// CancelConcert soft-deletes a concert; it disappears from listings but its
// reservations and transactions remain.
func (s *Store) CancelConcert(id string) (model.Concert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.concertLocked(id)
	if c == nil {
		return model.Concert{}, ErrConcertNotFound
	}
	c.cancelled = true
	return c.toModel(), nil
}

func (s *Store) concertLocked(id string) *concert {
	for _, c := range s.concerts {
		if c.id == id {
			return c
		}
	}
	return nil
}

func (c *concert) toModel() model.Concert {
	return model.Concert{
		ID:            c.id,
		Name:          c.name,
		Description:   c.description,
		VenueCapacity: c.maxSeats,
	}
}

// reservationLocked returns the user's reservation on a concert, nil when
// none was ever made.
func (s *Store) reservationLocked(userID, concertID string) *reservation {
	for _, r := range s.reservations {
		if r.userID == userID && r.concertID == concertID {
			return r
		}
	}
	return nil
}

func (s *Store) confirmedCountLocked(concertID string) int {
	n := 0
	for _, r := range s.reservations {
		if r.concertID == concertID && r.status == model.StatusConfirmed {
			n++
		}
	}
	return n
}

// ListConcerts returns one page of active concerts. A non-empty userID
// embeds that user's reservation state and seat count per concert.
func (s *Store) ListConcerts(userID string, page, limit int) model.ConcertPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]*concert, 0, len(s.concerts))
	for _, c := range s.concerts {
		if !c.cancelled {
			active = append(active, c)
		}
	}

	meta, lo, hi := pageBounds(len(active), page, limit)
	out := make([]model.Concert, 0, hi-lo)
	for _, c := range active[lo:hi] {
		mc := c.toModel()
		if userID != "" {
			if r := s.reservationLocked(userID, c.id); r != nil {
				mc.ReservationStatus = r.status
				if r.status == model.StatusConfirmed {
					mc.ReservationID = r.id
					mc.MyReservedSeats = 1
				}
			}
		}
		out = append(out, mc)
	}
	return model.ConcertPage{Concerts: out, Meta: meta}
}

// Reserve records a confirmed reservation for the user on the concert and
// appends an audit transaction. A previously cancelled reservation is
// revived; whether the client allows that is the client's policy.
func (s *Store) Reserve(userID, concertID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByID[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	c := s.concertLocked(concertID)
	if c == nil {
		return "", ErrConcertNotFound
	}
	if c.cancelled {
		return "", ErrConcertCancelled
	}

	r := s.reservationLocked(userID, concertID)
	if r != nil && r.status == model.StatusConfirmed {
		return "", ErrAlreadyReserved
	}
	if s.confirmedCountLocked(concertID) >= c.maxSeats {
		return "", ErrSoldOut
	}

	now := s.now()
	if r == nil {
		r = &reservation{
			id:        newID(),
			userID:    userID,
			concertID: concertID,
			status:    model.StatusConfirmed,
			createdAt: now,
			updatedAt: now,
		}
		s.reservations = append(s.reservations, r)
	} else {
		r.status = model.StatusConfirmed
		r.updatedAt = now
	}
	s.appendTransactionLocked(u, c, r, model.StatusConfirmed, now)
	return r.id, nil
}

// CancelReservation flips the user's confirmed reservation to cancelled and
// appends an audit transaction.
func (s *Store) CancelReservation(userID, concertID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.usersByID[userID]
	if !ok {
		return ErrUserNotFound
	}
	c := s.concertLocked(concertID)
	if c == nil {
		return ErrConcertNotFound
	}
	r := s.reservationLocked(userID, concertID)
	if r == nil || r.status != model.StatusConfirmed {
		return ErrReservationNotFound
	}

	now := s.now()
	r.status = model.StatusCancelled
	r.updatedAt = now
	s.appendTransactionLocked(u, c, r, model.StatusCancelled, now)
	return nil
}

func (s *Store) appendTransactionLocked(u *User, c *concert, r *reservation, action model.ReservationStatus, now time.Time) {
	s.transactions = append(s.transactions, transaction{
		Transaction: model.Transaction{
			ID:            newID(),
			ReservationID: r.id,
			Username:      u.Name,
			ConcertName:   c.name,
			Action:        action,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		userID: u.ID,
	})
}

// Stats aggregates counters for the admin dashboard. Seats of cancelled
// concerts no longer count toward the total.
func (s *Store) Stats() model.DashboardStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st model.DashboardStats
	for _, c := range s.concerts {
		if !c.cancelled {
			st.TotalSeats += c.maxSeats
		}
	}
	for _, r := range s.reservations {
		switch r.status {
		case model.StatusConfirmed:
			st.ReservedCount++
		case model.StatusCancelled:
			st.CancelledCount++
		}
	}
	return st
}

// ListTransactions returns one page of the audit history, newest first.
// An empty userID means the global (admin) history.
func (s *Store) ListTransactions(userID string, page, limit int) model.TransactionPage {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.Transaction, 0, len(s.transactions))
	for i := len(s.transactions) - 1; i >= 0; i-- {
		t := s.transactions[i]
		if userID == "" || t.userID == userID {
			matched = append(matched, t.Transaction)
		}
	}

	meta, lo, hi := pageBounds(len(matched), page, limit)
	return model.TransactionPage{Transactions: matched[lo:hi], Meta: meta}
}

// pageBounds clamps a 1-based page request against the item count and
// returns the resulting meta plus slice bounds.
func pageBounds(total, page, limit int) (model.Meta, int, int) {
	if limit <= 0 {
		limit = 5
	}
	if page < 1 {
		page = 1
	}
	pages := pagination.Pages(total, limit)
	lo := (page - 1) * limit
	if lo > total {
		lo = total
	}
	hi := lo + limit
	if hi > total {
		hi = total
	}
	return model.Meta{Total: total, Page: page, Limit: limit, Pages: pages}, lo, hi
}
