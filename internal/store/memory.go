package store

import (
	"sync"

	"github.com/pravoline/intakebot/internal/models"
)

// InMemoryStore keeps bookings in memory. It backs development setups and
// tests; contents vanish on restart.
type InMemoryStore struct {
	mu       sync.Mutex
	bookings []models.BookingRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) AddBooking(rec models.BookingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, rec)
	return nil
}

func (s *InMemoryStore) ListBookings(limit int) ([]models.BookingRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.BookingRecord, 0, limit)
	for i := len(s.bookings) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.bookings[i])
	}
	return out, nil
}

func (s *InMemoryStore) Close() error {
	return nil
}
