// Package models defines tool structures for assistant function calling.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ToolNameSaveBooking is the only function the assistant may invoke.
const ToolNameSaveBooking = "save_booking"

// ToolCall represents a function call requested by the assistant mid-run.
type ToolCall struct {
	ID        string          `json:"id"`        // Tool call ID from the assistant service
	Name      string          `json:"name"`      // Function name (e.g., "save_booking")
	Arguments json.RawMessage `json:"arguments"` // JSON arguments as raw message
}

// ToolResult is the structured result returned to the assistant for one call.
// The assistant is expected to re-prompt the user when Success is false.
type ToolResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ToolOutput pairs a serialized result with the tool call it responds to.
type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// SaveBookingParams defines the argument object of the save_booking function.
type SaveBookingParams struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Service   string `json:"service"`
	Datetime  string `json:"datetime"`
	Documents string `json:"documents,omitempty"`
	Comments  string `json:"comments,omitempty"`
}

// ParseSaveBookingParams parses the tool call arguments as SaveBookingParams.
func (tc *ToolCall) ParseSaveBookingParams() (*SaveBookingParams, error) {
	if tc.Name != ToolNameSaveBooking {
		return nil, fmt.Errorf("function %s is not %s", tc.Name, ToolNameSaveBooking)
	}
	var params SaveBookingParams
	if err := json.Unmarshal(tc.Arguments, &params); err != nil {
		return nil, fmt.Errorf("failed to parse save_booking parameters: %w", err)
	}
	return &params, nil
}

// MissingFields returns human-readable descriptions of the required fields
// that are empty after trimming. All four must be present for the explicit
// function-invocation path; the assistant is asked to collect the rest.
func (p *SaveBookingParams) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "the client's name")
	}
	if strings.TrimSpace(p.Phone) == "" {
		missing = append(missing, "a phone number")
	}
	if strings.TrimSpace(p.Service) == "" {
		missing = append(missing, "the requested service")
	}
	if strings.TrimSpace(p.Datetime) == "" {
		missing = append(missing, "the meeting date and time")
	}
	return missing
}
