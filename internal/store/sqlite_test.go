package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pravoline/intakebot/internal/models"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "bookings.db")
	s, err := NewSQLiteStore(WithSQLiteDSN(dsn))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	rec := models.BookingRecord{
		ID:          "b-1",
		Name:        "Ivan Petrov",
		Phone:       "89001234567",
		Service:     "Legal consultation",
		ScheduledAt: "25.12.2024 15:00",
		Documents:   "passport",
		Comment:     "none",
		Source:      models.SourceChat,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.AddBooking(rec); err != nil {
		t.Fatalf("AddBooking failed: %v", err)
	}

	bookings, err := s.ListBookings(10)
	if err != nil {
		t.Fatalf("ListBookings failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected 1 booking, got %d", len(bookings))
	}

	got := bookings[0]
	if got.ID != rec.ID || got.Name != rec.Name || got.Phone != rec.Phone {
		t.Errorf("identity fields mismatch: %+v", got)
	}
	if got.Service != rec.Service || got.ScheduledAt != rec.ScheduledAt {
		t.Errorf("service fields mismatch: %+v", got)
	}
	if got.Source != models.SourceChat {
		t.Errorf("expected chat source, got %q", got.Source)
	}
}

func TestSQLiteStoreRequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Error("expected an error without a DSN")
	}
}
