package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pravoline/intakebot/internal/models"
)

// BookingSink is the primary destination for completed bookings, typically a
// spreadsheet shared with the operations team.
type BookingSink interface {
	AppendBooking(ctx context.Context, rec models.BookingRecord) error
}

// BookingArchive is the local durable copy of completed bookings.
type BookingArchive interface {
	ArchiveBooking(ctx context.Context, rec models.BookingRecord) error
}

// Notifier delivers a human-readable alert about a new booking, typically to
// a staff group chat.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// IntakeService finalizes bookings regardless of which path produced them:
// the structured flow, an assistant function call, or transcript recovery.
type IntakeService struct {
	sink     BookingSink
	archive  BookingArchive
	notifier Notifier
	lex      Lexicon
	loc      *time.Location
}

// NewIntakeService wires the booking pipeline. The archive and notifier may
// be nil; persistence to the sink is the only required leg.
func NewIntakeService(sink BookingSink, archive BookingArchive, notifier Notifier, lex Lexicon, loc *time.Location) *IntakeService {
	if loc == nil {
		loc = time.UTC
	}
	return &IntakeService{
		sink:     sink,
		archive:  archive,
		notifier: notifier,
		lex:      lex,
		loc:      loc,
	}
}

// SaveBooking stamps identity and creation time onto the record, normalizes
// the optional fields, persists it, and notifies staff. The sink write is the
// success criterion; archive and notification failures are logged and do not
// fail the booking.
func (s *IntakeService) SaveBooking(ctx context.Context, rec models.BookingRecord) (models.BookingRecord, error) {
	rec.Name = strings.TrimSpace(rec.Name)
	rec.Phone = strings.TrimSpace(rec.Phone)
	rec.Service = strings.TrimSpace(rec.Service)
	rec.ScheduledAt = strings.TrimSpace(rec.ScheduledAt)
	rec.Documents = s.lex.NormalizeOptional(rec.Documents)
	rec.Comment = s.lex.NormalizeOptional(rec.Comment)

	if err := rec.Validate(); err != nil {
		return rec, err
	}

	rec.ID = uuid.New().String()
	rec.CreatedAt = time.Now().In(s.loc)

	slog.Debug("IntakeService.SaveBooking: persisting booking", "id", rec.ID, "service", rec.Service, "source", rec.Source)

	if err := s.sink.AppendBooking(ctx, rec); err != nil {
		slog.Error("IntakeService.SaveBooking: sink write failed", "id", rec.ID, "error", err)
		return rec, fmt.Errorf("failed to save booking: %w", err)
	}

	if s.archive != nil {
		if err := s.archive.ArchiveBooking(ctx, rec); err != nil {
			slog.Error("IntakeService.SaveBooking: archive write failed", "id", rec.ID, "error", err)
		}
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, s.FormatSummary(rec)); err != nil {
			slog.Error("IntakeService.SaveBooking: notification failed", "id", rec.ID, "error", err)
		}
	}

	slog.Info("IntakeService.SaveBooking: booking saved", "id", rec.ID, "service", rec.Service, "source", rec.Source)
	return rec, nil
}

// HandleFunctionCall dispatches a tool invocation from the assistant and
// returns a result the assistant can relay to the user.
func (s *IntakeService) HandleFunctionCall(ctx context.Context, name string, args json.RawMessage, source models.Source) models.ToolResult {
	slog.Debug("IntakeService.HandleFunctionCall: dispatching", "function", name, "source", source)

	if name != models.ToolNameSaveBooking {
		slog.Warn("IntakeService.HandleFunctionCall: unknown function", "function", name)
		return models.ToolResult{Success: false, Message: fmt.Sprintf("unknown function %q", name)}
	}

	call := models.ToolCall{Name: name, Arguments: args}
	params, err := call.ParseSaveBookingParams()
	if err != nil {
		return models.ToolResult{Success: false, Message: fmt.Sprintf("invalid arguments: %v", err)}
	}
	if missing := params.MissingFields(); len(missing) > 0 {
		return models.ToolResult{
			Success: false,
			Message: "Missing required information: " + strings.Join(missing, ", ") + ". Please ask the client for it.",
		}
	}

	rec := models.BookingRecord{
		Name:        params.Name,
		Phone:       params.Phone,
		Service:     params.Service,
		ScheduledAt: params.Datetime,
		Documents:   params.Documents,
		Comment:     params.Comments,
		Source:      source,
	}
	if _, err := s.SaveBooking(ctx, rec); err != nil {
		return models.ToolResult{Success: false, Message: "The booking could not be saved. Please try again later."}
	}
	return models.ToolResult{Success: true, Message: "Booking saved. Tell the client their request has been recorded and the team will be in touch."}
}

// RecoverBooking extracts a booking from the user's side of a transcript and
// saves it if the extraction yields enough to act on. It never surfaces
// errors to the conversation; recovery is a best-effort backstop.
func (s *IntakeService) RecoverBooking(ctx context.Context, userMessages []string, source models.Source) {
	rec, ok := ExtractBooking(userMessages, s.lex)
	if !ok {
		slog.Debug("IntakeService.RecoverBooking: transcript had too little to extract", "messages", len(userMessages))
		return
	}
	rec.Source = source
	if _, err := s.SaveBooking(ctx, *rec); err != nil {
		slog.Error("IntakeService.RecoverBooking: save failed", "error", err)
		return
	}
	slog.Info("IntakeService.RecoverBooking: booking recovered from transcript", "messages", len(userMessages))
}

// FormatSummary renders a booking as the staff notification text.
func (s *IntakeService) FormatSummary(rec models.BookingRecord) string {
	var b strings.Builder
	b.WriteString("New booking request:\n")
	fmt.Fprintf(&b, "Name: %s\n", rec.Name)
	fmt.Fprintf(&b, "Phone: %s\n", rec.Phone)
	fmt.Fprintf(&b, "Service: %s\n", rec.Service)
	fmt.Fprintf(&b, "Date: %s\n", rec.ScheduledAt)
	fmt.Fprintf(&b, "Documents: %s\n", rec.Documents)
	fmt.Fprintf(&b, "Comment: %s\n", rec.Comment)
	fmt.Fprintf(&b, "Source: %s", rec.Source)
	return b.String()
}
