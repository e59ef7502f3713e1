package store

import (
	"database/sql"
	"fmt"

	"github.com/pravoline/intakebot/internal/models"
)

// scanBooking scans a BookingRecord from sql.Rows.
func scanBooking(rows *sql.Rows) (models.BookingRecord, error) {
	var rec models.BookingRecord
	var source string
	err := rows.Scan(
		&rec.ID, &rec.Name, &rec.Phone, &rec.Service, &rec.ScheduledAt,
		&rec.Documents, &rec.Comment, &source, &rec.CreatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("scan booking failed: %w", err)
	}
	rec.Source = models.Source(source)
	return rec, nil
}
