// Package convert maps wire-format JSON documents to domain entities and back.
// The REST API uses Mongo-style field names (_id, maxSeats); the domain model
// does not, so every document crosses through here exactly once.
package convert

import (
	"time"

	"ticketbooth/internal/model"
)

// ConcertDoc is the wire form of a concert. reservationId and
// reservationStatus may be null or absent when the requesting user holds no
// reservation; JSON null leaves the zero value in place.
type ConcertDoc struct {
	ID                string `json:"_id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	MaxSeats          int    `json:"maxSeats"`
	ReservedSeats     int    `json:"reservedSeats,omitempty"`
	ReservationID     string `json:"reservationId,omitempty"`
	ReservationStatus string `json:"reservationStatus,omitempty"`
}

// MetaDoc is the wire form of pagination metadata.
type MetaDoc struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// TransactionDoc is the wire form of an audit record.
type TransactionDoc struct {
	ID            string    `json:"_id"`
	ReservationID string    `json:"reservationId"`
	Username      string    `json:"username"`
	ConcertName   string    `json:"concertName"`
	Action        string    `json:"action"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// UserDoc is the wire form of the identity endpoint response.
type UserDoc struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// StatsDoc is the wire form of the dashboard aggregate response.
type StatsDoc struct {
	TotalSeats     int `json:"totalSeats"`
	ReservedCount  int `json:"reservedCount"`
	CancelledCount int `json:"cancelledCount"`
}

// ConcertToModel converts a wire concert into the domain form, splitting the
// capacity and per-user seat counts into their own fields.
func ConcertToModel(d ConcertDoc) model.Concert {
	return model.Concert{
		ID:                d.ID,
		Name:              d.Name,
		Description:       d.Description,
		VenueCapacity:     d.MaxSeats,
		MyReservedSeats:   d.ReservedSeats,
		ReservationID:     d.ReservationID,
		ReservationStatus: model.ReservationStatus(d.ReservationStatus),
	}
}

// ConcertsToModel converts a page of wire concerts.
func ConcertsToModel(ds []ConcertDoc) []model.Concert {
	out := make([]model.Concert, 0, len(ds))
	for _, d := range ds {
		out = append(out, ConcertToModel(d))
	}
	return out
}

// ConcertFromModel converts a domain concert back to the wire form.
func ConcertFromModel(c model.Concert) ConcertDoc {
	return ConcertDoc{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		MaxSeats:          c.VenueCapacity,
		ReservedSeats:     c.MyReservedSeats,
		ReservationID:     c.ReservationID,
		ReservationStatus: string(c.ReservationStatus),
	}
}

// MetaToModel converts wire pagination metadata.
func MetaToModel(d MetaDoc) model.Meta {
	return model.Meta{Total: d.Total, Page: d.Page, Limit: d.Limit, Pages: d.Pages}
}

// MetaFromModel converts domain pagination metadata to the wire form.
func MetaFromModel(m model.Meta) MetaDoc {
	return MetaDoc{Total: m.Total, Page: m.Page, Limit: m.Limit, Pages: m.Pages}
}

// TransactionToModel converts a wire audit record.
func TransactionToModel(d TransactionDoc) model.Transaction {
	return model.Transaction{
		ID:            d.ID,
		ReservationID: d.ReservationID,
		Username:      d.Username,
		ConcertName:   d.ConcertName,
		Action:        model.ReservationStatus(d.Action),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// TransactionsToModel converts a page of wire audit records.
func TransactionsToModel(ds []TransactionDoc) []model.Transaction {
	out := make([]model.Transaction, 0, len(ds))
	for _, d := range ds {
		out = append(out, TransactionToModel(d))
	}
	return out
}

// TransactionFromModel converts a domain audit record to the wire form.
func TransactionFromModel(t model.Transaction) TransactionDoc {
	return TransactionDoc{
		ID:            t.ID,
		ReservationID: t.ReservationID,
		Username:      t.Username,
		ConcertName:   t.ConcertName,
		Action:        string(t.Action),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

// UserToModel converts a wire identity document.
func UserToModel(d UserDoc) model.User {
	return model.User{ID: d.ID, Name: d.Name, Email: d.Email, Role: model.Role(d.Role)}
}

// UserFromModel converts a domain user to the wire form.
func UserFromModel(u model.User) UserDoc {
	return UserDoc{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role)}
}

// StatsToModel converts wire dashboard aggregates.
func StatsToModel(d StatsDoc) model.DashboardStats {
	return model.DashboardStats{
		TotalSeats:     d.TotalSeats,
		ReservedCount:  d.ReservedCount,
		CancelledCount: d.CancelledCount,
	}
}

// StatsFromModel converts domain dashboard aggregates to the wire form.
func StatsFromModel(s model.DashboardStats) StatsDoc {
	return StatsDoc{
		TotalSeats:     s.TotalSeats,
		ReservedCount:  s.ReservedCount,
		CancelledCount: s.CancelledCount,
	}
}
