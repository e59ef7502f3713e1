package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestBookingRecordValidate(t *testing.T) {
	cases := []struct {
		name string
		rec  BookingRecord
		want error
	}{
		{"complete", BookingRecord{Name: "Anna", Phone: "89001234567"}, nil},
		{"missing name", BookingRecord{Phone: "89001234567"}, ErrMissingName},
		{"missing phone", BookingRecord{Name: "Anna"}, ErrMissingPhone},
		// Service and date are optional at the record level.
		{"minimal", BookingRecord{Name: "Anna", Phone: "89001234567", Service: "", ScheduledAt: ""}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.rec.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestBookingRequestValidate(t *testing.T) {
	full := BookingRequest{Name: "Anna", Phone: "89001234567", Service: "Legal consultation", Date: "25.12.2024"}
	if err := full.Validate(); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}

	cases := []struct {
		name string
		req  BookingRequest
		want error
	}{
		{"no name", BookingRequest{Phone: "x", Service: "Legal consultation", Date: "z"}, ErrMissingName},
		{"no phone", BookingRequest{Name: "x", Service: "Legal consultation", Date: "z"}, ErrMissingPhone},
		{"no service", BookingRequest{Name: "x", Phone: "y", Date: "z"}, ErrMissingService},
		{"unknown service", BookingRequest{Name: "x", Phone: "y", Service: "Tax evasion advice", Date: "z"}, ErrUnknownService},
		{"no date", BookingRequest{Name: "x", Phone: "y", Service: "Legal consultation"}, ErrMissingDate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.req.Validate(); !errors.Is(err, tc.want) {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestIsKnownService(t *testing.T) {
	for _, svc := range Services() {
		if !IsKnownService(svc) {
			t.Errorf("expected %q to be known", svc)
		}
	}
	for _, unknown := range []string{"", "legal consultation", "Something else"} {
		if IsKnownService(unknown) {
			t.Errorf("expected %q to be unknown", unknown)
		}
	}
}

func TestParseSaveBookingParams(t *testing.T) {
	call := ToolCall{
		ID:   "call-1",
		Name: ToolNameSaveBooking,
		Arguments: json.RawMessage(`{
			"name": "Ivan Petrov",
			"phone": "89001234567",
			"service": "Legal consultation",
			"datetime": "25.12.2024 15:00",
			"documents": "passport",
			"comments": "urgent"
		}`),
	}

	params, err := call.ParseSaveBookingParams()
	if err != nil {
		t.Fatalf("ParseSaveBookingParams failed: %v", err)
	}
	if params.Name != "Ivan Petrov" || params.Datetime != "25.12.2024 15:00" {
		t.Errorf("unexpected params %+v", params)
	}
	if missing := params.MissingFields(); len(missing) != 0 {
		t.Errorf("expected no missing fields, got %v", missing)
	}
}

func TestParseSaveBookingParamsWrongFunction(t *testing.T) {
	call := ToolCall{Name: "other_function", Arguments: json.RawMessage(`{}`)}
	if _, err := call.ParseSaveBookingParams(); err == nil {
		t.Error("expected an error for a foreign function")
	}
}

func TestMissingFields(t *testing.T) {
	params := SaveBookingParams{Name: "Ivan Petrov", Phone: "  "}
	missing := params.MissingFields()
	if len(missing) != 3 {
		t.Fatalf("expected 3 missing fields, got %v", missing)
	}
	// Whitespace-only values count as missing.
	if missing[0] != "a phone number" {
		t.Errorf("expected the phone first, got %q", missing[0])
	}
}
