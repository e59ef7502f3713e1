// Package sheets appends completed bookings to a Google Sheet shared with
// the operations team.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sheetsv4 "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"github.com/pravoline/intakebot/internal/models"
)

// appendRange targets the first sheet; the Sheets API extends the table from
// here on every append.
const appendRange = "A1"

// ErrNotConfigured is returned by the disabled sink so booking attempts fail
// loudly instead of silently dropping records.
var ErrNotConfigured = fmt.Errorf("sheets: sink not configured")

// Client appends booking rows to a single spreadsheet.
type Client struct {
	svc     *sheetsv4.Service
	sheetID string
}

// NewClient builds a sheets sink using a service-account credentials file.
func NewClient(ctx context.Context, sheetID, credentialsFile string) (*Client, error) {
	svc, err := sheetsv4.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	slog.Debug("NewClient: sheets sink ready", "sheet_id", sheetID)
	return &Client{svc: svc, sheetID: sheetID}, nil
}

// AppendBooking writes the booking as one row at the bottom of the sheet.
func (c *Client) AppendBooking(ctx context.Context, rec models.BookingRecord) error {
	row := []interface{}{
		rec.CreatedAt.Format(time.DateTime),
		rec.Name,
		rec.Phone,
		rec.Service,
		rec.ScheduledAt,
		rec.Documents,
		rec.Comment,
		string(rec.Source),
	}
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}

	_, err := c.svc.Spreadsheets.Values.Append(c.sheetID, appendRange, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append booking row: %w", err)
	}
	slog.Debug("Client.AppendBooking: row appended", "sheet_id", c.sheetID, "booking_id", rec.ID)
	return nil
}

// Disabled is a sink used when no spreadsheet is configured. Every append
// fails with ErrNotConfigured.
type Disabled struct{}

// NewDisabled returns the disabled sink.
func NewDisabled() Disabled {
	slog.Warn("NewDisabled: no spreadsheet configured, bookings cannot be persisted to sheets")
	return Disabled{}
}

// AppendBooking always fails.
func (Disabled) AppendBooking(context.Context, models.BookingRecord) error {
	return ErrNotConfigured
}
