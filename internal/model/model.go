// Package model defines domain entities shared by the client, the views, and the stub backend.
package model

import "time"

// Role is the access level attached to a session.
type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ReservationStatus is the client-observed state of the current user's
// claim on a concert. The zero value means the server reported none.
type ReservationStatus string

const (
	StatusConfirmed ReservationStatus = "CONFIRMED"
	StatusCancelled ReservationStatus = "CANCELLED"
)

// Concert is one reservable event as held in the client cache.
// VenueCapacity and MyReservedSeats are distinct on purpose: the upstream
// API surfaces both through a single maxSeats field depending on the view,
// which this client does not replicate.
type Concert struct {
	ID                string
	Name              string
	Description       string
	VenueCapacity     int
	MyReservedSeats   int
	ReservationID     string // empty when the current user holds no reservation
	ReservationStatus ReservationStatus
}

// Reserved reports whether the current user holds a live reservation on c.
func (c Concert) Reserved() bool { return c.ReservationID != "" }

// Transaction is an immutable audit record of a reservation action.
type Transaction struct {
	ID            string
	ReservationID string
	Username      string
	ConcertName   string
	Action        ReservationStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// User is the canonical account record as returned by the identity endpoint.
type User struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// Meta is server pagination metadata.
// Invariant: Pages == ceil(Total/Limit) and 1 <= Page <= Pages when Pages >= 1.
type Meta struct {
	Total int
	Page  int
	Limit int
	Pages int
}

// DashboardStats aggregates seat/reservation counts for the admin dashboard.
type DashboardStats struct {
	TotalSeats     int
	ReservedCount  int
	CancelledCount int
}

// ConcertPage is one fetched page of concerts with its pagination meta.
type ConcertPage struct {
	Concerts []Concert
	Meta     Meta
}

// TransactionPage is one fetched page of transactions with its pagination meta.
type TransactionPage struct {
	Transactions []Transaction
	Meta         Meta
}
