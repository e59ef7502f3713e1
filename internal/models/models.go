// Package models defines the core data structures for the intake service.
//
// It includes the booking record shared across modules, per-user flow state
// constants, and the API request/response envelopes.
package models

import (
	"errors"
	"time"
)

// Source identifies which inbound channel produced a booking.
type Source string

const (
	// SourceChat marks bookings collected through the chat bot.
	SourceChat Source = "chat"
	// SourceWidget marks bookings submitted through the website widget.
	SourceWidget Source = "widget"
)

// Error variables for better error handling and testability
var (
	ErrMissingName    = errors.New("name is required")
	ErrMissingPhone   = errors.New("phone is required")
	ErrMissingService = errors.New("service is required")
	ErrMissingDate    = errors.New("date is required")
	ErrUnknownService = errors.New("service must be one of the listed services")
	ErrEmptyMessage   = errors.New("message cannot be empty")
)

// BookingRecord is the unit of persisted work: one request for legal services.
//
// Name and Phone must be non-empty for a record to be persisted. Documents and
// Comment are normalized to the literal "none" when left empty or answered with
// a negative-response synonym.
type BookingRecord struct {
	ID          string    `json:"id,omitempty"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Service     string    `json:"service"`
	ScheduledAt string    `json:"scheduled_at"`
	Documents   string    `json:"documents,omitempty"`
	Comment     string    `json:"comment,omitempty"`
	Source      Source    `json:"source"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// Validate checks the invariant required for persistence: non-empty name and
// phone. Service and scheduled time are validated separately by the paths that
// require them.
func (r *BookingRecord) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.Phone == "" {
		return ErrMissingPhone
	}
	return nil
}

// Services returns the fixed, ordered list of offered services. The structured
// intake flow accepts only exact matches against this list.
func Services() []string {
	return []string{
		"Legal consultation",
		"Attorney visit to client",
		"Written legal opinion",
		"Document drafting",
		"Participation in negotiations",
		"Representation before organizations",
		"Representation in courts",
		"Criminal and administrative defense",
		"Victim representation (inquiry, investigation, trial)",
	}
}

// IsKnownService reports whether s exactly matches one of the offered services.
func IsKnownService(s string) bool {
	for _, svc := range Services() {
		if s == svc {
			return true
		}
	}
	return false
}

// ChatRequest is the payload for the widget conversational endpoint.
type ChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// ChatResponse carries the assistant reply and the continuation handle the
// widget must echo back on the next turn.
type ChatResponse struct {
	Response string `json:"response"`
	ThreadID string `json:"thread_id"`
}

// BookingRequest is the payload for the widget structured-booking endpoint.
type BookingRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Service   string `json:"service"`
	Date      string `json:"date"`
	Documents string `json:"documents,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

// Validate performs field-level validation on a widget booking submission.
// The widget form presents the fixed service list, so anything outside it is
// rejected rather than stored as free text.
func (r *BookingRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.Phone == "" {
		return ErrMissingPhone
	}
	if r.Service == "" {
		return ErrMissingService
	}
	if !IsKnownService(r.Service) {
		return ErrUnknownService
	}
	if r.Date == "" {
		return ErrMissingDate
	}
	return nil
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// SuccessWithMessage creates a successful API response with a message and optional result data.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Message: message, Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
