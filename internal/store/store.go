// Package store provides the local booking archive.
//
// It includes an in-memory store plus SQLite and PostgreSQL backends, chosen
// by DSN. The archive is a durable local copy of what goes to the
// spreadsheet, so the team can query bookings without Sheets access.
package store

import (
	"strings"

	"github.com/pravoline/intakebot/internal/models"
)

// Store persists completed bookings locally.
type Store interface {
	// AddBooking inserts a completed booking.
	AddBooking(rec models.BookingRecord) error
	// ListBookings returns the most recent bookings, newest first, capped
	// at limit. A non-positive limit applies a default cap.
	ListBookings(limit int) ([]models.BookingRecord, error)
	// Close releases the underlying database resources.
	Close() error
}

// DefaultListLimit caps ListBookings when the caller passes no limit.
const DefaultListLimit = 100

// Opts holds store configuration shared by the backends.
type Opts struct {
	DSN string
}

// Option configures store creation.
type Option func(*Opts)

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// come as URLs (postgres:// or postgresql://) or key=value strings; anything
// else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return "postgres"
	}
	if strings.Contains(dsn, "host=") || strings.Contains(dsn, "dbname=") {
		return "postgres"
	}
	return "sqlite"
}
