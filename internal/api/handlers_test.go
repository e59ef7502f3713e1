package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pravoline/intakebot/internal/assistant"
	"github.com/pravoline/intakebot/internal/flow"
	"github.com/pravoline/intakebot/internal/models"
	"github.com/pravoline/intakebot/internal/store"
)

type fakeResponder struct {
	reply    string
	threadID string
	err      error
}

func (f *fakeResponder) Respond(_ context.Context, threadID, _ string, _ models.Source) (string, string, error) {
	if f.threadID == "" {
		f.threadID = threadID
	}
	return f.reply, f.threadID, f.err
}

type fakeSink struct {
	records []models.BookingRecord
	err     error
}

func (f *fakeSink) AppendBooking(_ context.Context, rec models.BookingRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type testServer struct {
	server    *Server
	responder *fakeResponder
	sink      *fakeSink
	archive   store.Store
}

func newTestServer() *testServer {
	responder := &fakeResponder{reply: "hello from assistant", threadID: "thread-1"}
	sink := &fakeSink{}
	archive := store.NewInMemoryStore()
	intake := flow.NewIntakeService(sink, nil, nil, flow.DefaultLexicon(), time.UTC)
	server := NewServer(nil, responder, intake, archive, models.Services())
	return &testServer{server: server, responder: responder, sink: sink, archive: archive}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.server.routes().ServeHTTP(rec, req)
	return rec
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) models.APIResponse {
	t.Helper()
	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestChatHandler(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: "hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode chat response: %v", err)
	}
	if resp.Response != "hello from assistant" {
		t.Errorf("unexpected reply %q", resp.Response)
	}
	if resp.ThreadID != "thread-1" {
		t.Errorf("expected thread handle, got %q", resp.ThreadID)
	}
}

func TestChatHandlerEmptyMessage(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/chat", models.ChatRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestChatHandlerDegradesOnAssistantFailure(t *testing.T) {
	ts := newTestServer()
	ts.responder.err = errors.New("assistant down")

	rec := ts.do(t, http.MethodPost, "/api/chat", models.ChatRequest{Message: "hello", ThreadID: "thread-9"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even on failure, got %d", rec.Code)
	}

	var resp models.ChatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode chat response: %v", err)
	}
	if resp.Response != assistant.FallbackReply {
		t.Errorf("expected fallback reply, got %q", resp.Response)
	}
}

func TestBookingHandler(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/api/booking", models.BookingRequest{
		Name:    "Ivan Petrov",
		Phone:   "89001234567",
		Service: "Legal consultation",
		Date:    "25.12.2024 15:00",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(ts.sink.records) != 1 {
		t.Fatalf("expected 1 persisted booking, got %d", len(ts.sink.records))
	}
	saved := ts.sink.records[0]
	if saved.Source != models.SourceWidget {
		t.Errorf("expected widget source, got %q", saved.Source)
	}
	if saved.Documents != "none" || saved.Comment != "none" {
		t.Errorf("expected normalized optional fields, got %q / %q", saved.Documents, saved.Comment)
	}
}

func TestBookingHandlerValidatesFields(t *testing.T) {
	ts := newTestServer()

	cases := []struct {
		name string
		req  models.BookingRequest
		want string
	}{
		{"missing name", models.BookingRequest{Phone: "89001234567", Service: "Legal consultation", Date: "y"}, "name"},
		{"missing phone", models.BookingRequest{Name: "Anna", Service: "Legal consultation", Date: "y"}, "phone"},
		{"missing service", models.BookingRequest{Name: "Anna", Phone: "89001234567", Date: "y"}, "service"},
		{"unlisted service", models.BookingRequest{Name: "Anna", Phone: "89001234567", Service: "Fortune telling", Date: "y"}, "service"},
		{"missing date", models.BookingRequest{Name: "Anna", Phone: "89001234567", Service: "Legal consultation"}, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/booking", tc.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeAPIResponse(t, rec)
			if !strings.Contains(resp.Message, tc.want) {
				t.Errorf("expected %q in message, got %q", tc.want, resp.Message)
			}
		})
	}
	if len(ts.sink.records) != 0 {
		t.Errorf("expected no persisted bookings, got %d", len(ts.sink.records))
	}
}

func TestBookingHandlerPersistFailure(t *testing.T) {
	ts := newTestServer()
	ts.sink.err = errors.New("sheet unavailable")

	rec := ts.do(t, http.MethodPost, "/api/booking", models.BookingRequest{
		Name:    "Ivan Petrov",
		Phone:   "89001234567",
		Service: "Legal consultation",
		Date:    "25.12.2024 15:00",
	})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestServicesHandler(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/services", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeAPIResponse(t, rec)
	services, ok := resp.Result.([]interface{})
	if !ok {
		t.Fatalf("expected a service list, got %T", resp.Result)
	}
	if len(services) != len(models.Services()) {
		t.Errorf("expected %d services, got %d", len(models.Services()), len(services))
	}
}

func TestBookingsHandler(t *testing.T) {
	ts := newTestServer()
	if err := ts.archive.AddBooking(models.BookingRecord{ID: "b-1", Name: "Anna", Phone: "89001234567"}); err != nil {
		t.Fatalf("AddBooking failed: %v", err)
	}

	rec := ts.do(t, http.MethodGet, "/api/bookings?limit=10", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeAPIResponse(t, rec)
	bookings, ok := resp.Result.([]interface{})
	if !ok || len(bookings) != 1 {
		t.Errorf("expected 1 booking, got %v", resp.Result)
	}
}

func TestBookingsHandlerRejectsBadLimit(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/bookings?limit=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestWebhookWithoutBot(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodPost, "/webhook", map[string]interface{}{"update_id": 1})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a bot handler, got %d", rec.Code)
	}
}

func TestHealthHandler(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeAPIResponse(t, rec)
	if resp.Status != string(models.APIStatusOK) {
		t.Errorf("expected ok status, got %q", resp.Status)
	}

	flags, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected channel flags, got %T", resp.Result)
	}
	// No bot handler is wired in this fixture; the API channel is up.
	if flags["telegram_bot"] != false {
		t.Errorf("expected telegram_bot false, got %v", flags["telegram_bot"])
	}
	if flags["api"] != true {
		t.Errorf("expected api true, got %v", flags["api"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodGet, "/api/chat", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(t, http.MethodOptions, "/api/chat", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
