package convert

import (
	"encoding/json"
	"testing"

	"ticketbooth/internal/model"
)

func TestConcertToModel_SplitsCapacityFromOwnSeats(t *testing.T) {
	t.Parallel()
	got := ConcertToModel(ConcertDoc{
		ID:                "c1",
		Name:              "Show",
		MaxSeats:          100,
		ReservedSeats:     1,
		ReservationID:     "r1",
		ReservationStatus: "CONFIRMED",
	})
	if got.VenueCapacity != 100 || got.MyReservedSeats != 1 {
		t.Fatalf("capacity/seats = %d/%d, want 100/1", got.VenueCapacity, got.MyReservedSeats)
	}
	if got.ReservationStatus != model.StatusConfirmed || !got.Reserved() {
		t.Fatalf("reservation state lost: %+v", got)
	}
}

func TestConcertDoc_NullReservationFields(t *testing.T) {
	t.Parallel()
	// Backends emit null (or omit) reservation fields for anonymous
	// listings; both must decode to the zero state.
	raw := `{"_id":"c1","name":"Show","maxSeats":5,"reservationId":null,"reservationStatus":null}`
	var doc ConcertDoc
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := ConcertToModel(doc)
	if got.ReservationID != "" || got.ReservationStatus != "" || got.Reserved() {
		t.Fatalf("want zero reservation state, got %+v", got)
	}
}
