// Package reconcile keeps the client's cached concert list consistent with
// server-side reservation state across optimistic mutations, rollbacks, and
// wholesale reloads.
package reconcile

import (
	"context"
	"sync"

	"ticketbooth/internal/errs"
	"ticketbooth/internal/model"
)

// API is the slice of the HTTP client the reconciler drives.
type API interface {
	Reserve(ctx context.Context, userID, concertID string) (reservationID string, err error)
	CancelReservation(ctx context.Context, userID, concertID string) error
	CancelConcert(ctx context.Context, concertID string) (model.Concert, error)
}

// CredentialSource yields the identity attached to reservation actions.
// *session.Store satisfies this.
type CredentialSource interface {
	Credentials() (token, userID string, ok bool)
}

// Config selects between the strict and permissive treatment of the
// cancelled state. In strict mode (default) CANCELLED is terminal and a
// re-reserve fails locally without a network call.
type Config struct {
	AllowRebookAfterCancel bool
}

// Reconciler holds the current page's concert list and applies optimistic
// per-entity patches for reserve/cancel actions. Each action only ever
// writes the reservation fields of its own entity; everything else keeps
// its last-loaded value. Load is the authoritative sync point.
type Reconciler struct {
	mu    sync.Mutex
	api   API
	creds CredentialSource
	cfg   Config

	concerts []model.Concert
	inflight map[string]struct{}

	// gen counts Loads. A rollback is skipped when a Load intervened while
	// the action was in flight: the freshly loaded list is authoritative
	// and must not be overwritten with pre-action field values.
	gen uint64
}

// New builds a Reconciler over the given API and credential source.
func New(api API, creds CredentialSource, cfg Config) *Reconciler {
	return &Reconciler{
		api:      api,
		creds:    creds,
		cfg:      cfg,
		inflight: make(map[string]struct{}),
	}
}

// Load replaces the held list wholesale. Called after every successful
// fetch or page change; stale per-entity patches never bleed past it.
func (r *Reconciler) Load(list []model.Concert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.concerts = append([]model.Concert(nil), list...)
	r.gen++
}

// Concerts returns a copy of the held list.
func (r *Reconciler) Concerts() []model.Concert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Concert(nil), r.concerts...)
}

// Concert returns the held entity by id.
func (r *Reconciler) Concert(id string) (model.Concert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.concerts[i], true
	}
	return model.Concert{}, false
}

// InFlight reports whether an action on the given concert has not settled.
// Views disable the entity's control while this is true.
func (r *Reconciler) InFlight(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.inflight[id]
	return ok
}

func (r *Reconciler) indexLocked(id string) int {
	for i := range r.concerts {
		if r.concerts[i].ID == id {
			return i
		}
	}
	return -1
}

// patch captures the reservation fields of one entity.
type patch struct {
	reservationID string
	status        model.ReservationStatus
}

func (r *Reconciler) applyLocked(id string, p patch) {
	if i := r.indexLocked(id); i >= 0 {
		r.concerts[i].ReservationID = p.reservationID
		r.concerts[i].ReservationStatus = p.status
	}
}

// Reserve claims a seat on the concert. The local patch is applied
// optimistically before the call and rolled back if the call fails. Local
// guard failures never reach the network.
func (r *Reconciler) Reserve(ctx context.Context, concertID string) error {
	_, userID, ok := r.creds.Credentials()
	if !ok {
		return errs.ErrUnauthorized
	}

	r.mu.Lock()
	i := r.indexLocked(concertID)
	if i < 0 {
		r.mu.Unlock()
		return errs.ErrNotFound
	}
	if _, busy := r.inflight[concertID]; busy {
		r.mu.Unlock()
		return errs.ErrActionInFlight
	}
	cur := r.concerts[i]
	if cur.Reserved() || cur.ReservationStatus == model.StatusConfirmed {
		r.mu.Unlock()
		return errs.ErrAlreadyReserved
	}
	if cur.ReservationStatus == model.StatusCancelled && !r.cfg.AllowRebookAfterCancel {
		r.mu.Unlock()
		return errs.ErrReservationCancelled
	}
	prev := patch{reservationID: cur.ReservationID, status: cur.ReservationStatus}
	gen := r.gen
	r.inflight[concertID] = struct{}{}
	// Optimistic: the reservation id is unknown until the server answers.
	r.applyLocked(concertID, patch{status: model.StatusConfirmed})
	r.mu.Unlock()

	resID, callErr := r.api.Reserve(ctx, userID, concertID)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, concertID)
	if callErr != nil {
		if r.gen == gen {
			r.applyLocked(concertID, prev)
		}
		return callErr
	}
	// Patches by id-match against whatever list is held now; a no-op when
	// the entity paged away during the call.
	r.applyLocked(concertID, patch{reservationID: resID, status: model.StatusConfirmed})
	return nil
}

// CancelReservation releases the user's reservation on the concert. Whether
// a reservation exists is a view-level guard, not enforced here; the server
// is the final judge.
func (r *Reconciler) CancelReservation(ctx context.Context, concertID string) error {
	_, userID, ok := r.creds.Credentials()
	if !ok {
		return errs.ErrUnauthorized
	}

	r.mu.Lock()
	i := r.indexLocked(concertID)
	if i < 0 {
		r.mu.Unlock()
		return errs.ErrNotFound
	}
	if _, busy := r.inflight[concertID]; busy {
		r.mu.Unlock()
		return errs.ErrActionInFlight
	}
	cur := r.concerts[i]
	prev := patch{reservationID: cur.ReservationID, status: cur.ReservationStatus}
	gen := r.gen
	r.inflight[concertID] = struct{}{}
	r.applyLocked(concertID, patch{status: model.StatusCancelled})
	r.mu.Unlock()

	callErr := r.api.CancelReservation(ctx, userID, concertID)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inflight, concertID)
	if callErr != nil {
		if r.gen == gen {
			r.applyLocked(concertID, prev)
		}
		return callErr
	}
	r.applyLocked(concertID, patch{reservationID: "", status: model.StatusCancelled})
	return nil
}

// CancelConcert soft-deletes a concert (admin action). No local patch is
// attempted: admin cancellation moves aggregate stats and other users'
// views, so the caller must follow up with a full fetch and Load.
func (r *Reconciler) CancelConcert(ctx context.Context, concertID string) error {
	token, _, ok := r.creds.Credentials()
	if !ok || token == "" {
		return errs.ErrUnauthorized
	}

	r.mu.Lock()
	if _, busy := r.inflight[concertID]; busy {
		r.mu.Unlock()
		return errs.ErrActionInFlight
	}
	r.inflight[concertID] = struct{}{}
	r.mu.Unlock()

	_, err := r.api.CancelConcert(ctx, concertID)

	r.mu.Lock()
	delete(r.inflight, concertID)
	r.mu.Unlock()
	return err
}
