package flow

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pravoline/intakebot/internal/models"
)

type mockSink struct {
	records []models.BookingRecord
	err     error
}

func (m *mockSink) AppendBooking(_ context.Context, rec models.BookingRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

type mockArchive struct {
	records []models.BookingRecord
	err     error
}

func (m *mockArchive) ArchiveBooking(_ context.Context, rec models.BookingRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

type mockNotifier struct {
	texts []string
	err   error
}

func (m *mockNotifier) Notify(_ context.Context, text string) error {
	if m.err != nil {
		return m.err
	}
	m.texts = append(m.texts, text)
	return nil
}

func newTestIntake(sink BookingSink, archive BookingArchive, notifier Notifier) *IntakeService {
	return NewIntakeService(sink, archive, notifier, DefaultLexicon(), time.UTC)
}

func TestSaveBookingStampsAndNormalizes(t *testing.T) {
	sink := &mockSink{}
	archive := &mockArchive{}
	notifier := &mockNotifier{}
	svc := newTestIntake(sink, archive, notifier)

	rec, err := svc.SaveBooking(context.Background(), models.BookingRecord{
		Name:      "  Ivan Petrov ",
		Phone:     "89001234567",
		Service:   "Legal consultation",
		Documents: "no",
		Comment:   "",
		Source:    models.SourceChat,
	})
	if err != nil {
		t.Fatalf("SaveBooking failed: %v", err)
	}

	if rec.ID == "" {
		t.Error("expected an assigned booking ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("expected a creation timestamp")
	}
	if rec.Name != "Ivan Petrov" {
		t.Errorf("expected trimmed name, got %q", rec.Name)
	}
	if rec.Documents != "none" || rec.Comment != "none" {
		t.Errorf("expected normalized optional fields, got %q / %q", rec.Documents, rec.Comment)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 sink write, got %d", len(sink.records))
	}
	if len(archive.records) != 1 {
		t.Fatalf("expected 1 archive write, got %d", len(archive.records))
	}
	if len(notifier.texts) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.texts))
	}
	if !strings.Contains(notifier.texts[0], "Ivan Petrov") {
		t.Errorf("expected notification to mention the client, got %q", notifier.texts[0])
	}
}

func TestSaveBookingRequiresNameAndPhone(t *testing.T) {
	sink := &mockSink{}
	svc := newTestIntake(sink, nil, nil)

	_, err := svc.SaveBooking(context.Background(), models.BookingRecord{Phone: "89001234567"})
	if !errors.Is(err, models.ErrMissingName) {
		t.Errorf("expected ErrMissingName, got %v", err)
	}
	_, err = svc.SaveBooking(context.Background(), models.BookingRecord{Name: "Anna"})
	if !errors.Is(err, models.ErrMissingPhone) {
		t.Errorf("expected ErrMissingPhone, got %v", err)
	}
	if len(sink.records) != 0 {
		t.Errorf("expected no sink writes, got %d", len(sink.records))
	}
}

func TestSaveBookingSinkFailureSurfaces(t *testing.T) {
	sink := &mockSink{err: errors.New("sheet unavailable")}
	notifier := &mockNotifier{}
	svc := newTestIntake(sink, nil, notifier)

	_, err := svc.SaveBooking(context.Background(), models.BookingRecord{
		Name:  "Anna",
		Phone: "89001234567",
	})
	if err == nil {
		t.Fatal("expected persistence failure to surface")
	}
	if len(notifier.texts) != 0 {
		t.Errorf("expected no notification for a failed save, got %d", len(notifier.texts))
	}
}

func TestSaveBookingArchiveFailureIsNonFatal(t *testing.T) {
	sink := &mockSink{}
	archive := &mockArchive{err: errors.New("disk full")}
	notifier := &mockNotifier{}
	svc := newTestIntake(sink, archive, notifier)

	_, err := svc.SaveBooking(context.Background(), models.BookingRecord{
		Name:  "Anna",
		Phone: "89001234567",
	})
	if err != nil {
		t.Fatalf("expected archive failure to be swallowed, got %v", err)
	}
	if len(notifier.texts) != 1 {
		t.Errorf("expected notification despite archive failure, got %d", len(notifier.texts))
	}
}

func TestHandleFunctionCallSavesBooking(t *testing.T) {
	sink := &mockSink{}
	svc := newTestIntake(sink, nil, nil)

	args, _ := json.Marshal(map[string]string{
		"name":     "Ivan Petrov",
		"phone":    "89001234567",
		"service":  "Legal consultation",
		"datetime": "25.12.2024 15:00",
	})
	result := svc.HandleFunctionCall(context.Background(), models.ToolNameSaveBooking, args, models.SourceWidget)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 sink write, got %d", len(sink.records))
	}
	if sink.records[0].Source != models.SourceWidget {
		t.Errorf("expected widget source, got %q", sink.records[0].Source)
	}
}

func TestHandleFunctionCallReportsMissingFields(t *testing.T) {
	sink := &mockSink{}
	svc := newTestIntake(sink, nil, nil)

	args, _ := json.Marshal(map[string]string{"name": "Ivan Petrov"})
	result := svc.HandleFunctionCall(context.Background(), models.ToolNameSaveBooking, args, models.SourceChat)
	if result.Success {
		t.Fatal("expected failure for incomplete arguments")
	}
	if !strings.Contains(result.Message, "phone") {
		t.Errorf("expected missing-phone mention, got %q", result.Message)
	}
	if len(sink.records) != 0 {
		t.Errorf("expected no sink writes, got %d", len(sink.records))
	}
}

func TestHandleFunctionCallUnknownFunction(t *testing.T) {
	svc := newTestIntake(&mockSink{}, nil, nil)

	result := svc.HandleFunctionCall(context.Background(), "delete_everything", nil, models.SourceChat)
	if result.Success {
		t.Fatal("expected failure for unknown function")
	}
	if !strings.Contains(result.Message, "delete_everything") {
		t.Errorf("expected the function name in the message, got %q", result.Message)
	}
}

func TestRecoverBookingSavesWhenExtractable(t *testing.T) {
	sink := &mockSink{}
	svc := newTestIntake(sink, nil, nil)

	svc.RecoverBooking(context.Background(), []string{"Ivan Petrov", "89001234567"}, models.SourceChat)
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 recovered booking, got %d", len(sink.records))
	}
	if sink.records[0].Name != "Ivan Petrov" {
		t.Errorf("unexpected recovered name %q", sink.records[0].Name)
	}
}

func TestRecoverBookingSilentOnInsufficientData(t *testing.T) {
	sink := &mockSink{err: errors.New("should not be called")}
	svc := newTestIntake(sink, nil, nil)

	// Neither extraction failure nor sink failure may panic or surface.
	svc.RecoverBooking(context.Background(), []string{"hello"}, models.SourceChat)
	svc.RecoverBooking(context.Background(), []string{"Ivan Petrov", "89001234567"}, models.SourceChat)
}

func TestFormatSummary(t *testing.T) {
	svc := newTestIntake(&mockSink{}, nil, nil)

	text := svc.FormatSummary(models.BookingRecord{
		Name:        "Ivan Petrov",
		Phone:       "89001234567",
		Service:     "Legal consultation",
		ScheduledAt: "25.12.2024 15:00",
		Documents:   "passport",
		Comment:     "none",
		Source:      models.SourceChat,
	})

	for _, want := range []string{
		"New booking request:",
		"Name: Ivan Petrov",
		"Phone: 89001234567",
		"Service: Legal consultation",
		"Date: 25.12.2024 15:00",
		"Documents: passport",
		"Comment: none",
		"Source: chat",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("summary missing %q:\n%s", want, text)
		}
	}
}
