// Package api provides HTTP handlers for the intake endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/pravoline/intakebot/internal/assistant"
	"github.com/pravoline/intakebot/internal/models"
	"github.com/pravoline/intakebot/internal/telegram"
)

// webhookHandler receives Telegram updates. It always acknowledges with 200
// once the payload parses; failing an update would only make Telegram
// redeliver it.
func (s *Server) webhookHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	if s.bot == nil {
		slog.Warn("Server.webhookHandler: webhook hit but no bot handler configured")
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Bot not configured"))
		return
	}

	var upd telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		slog.Error("Server.webhookHandler: failed to decode update", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid update payload"))
		return
	}

	if err := s.bot.HandleUpdate(r.Context(), upd); err != nil {
		slog.Error("Server.webhookHandler: update handling failed", "update_id", upd.UpdateID, "error", err)
	}
	writeJSONResponse(w, http.StatusOK, models.Success(nil))
}

// chatHandler answers a widget message through the assistant. Assistant
// failures degrade to an apologetic reply rather than an error status, so
// the widget always has something to render.
func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}
	if req.Message == "" {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(models.ErrEmptyMessage.Error()))
		return
	}

	reply, threadID, err := s.responder.Respond(r.Context(), req.ThreadID, req.Message, models.SourceWidget)
	if err != nil {
		slog.Error("Server.chatHandler: assistant failed", "error", err)
		writeJSONResponse(w, http.StatusOK, models.ChatResponse{Response: assistant.FallbackReply, ThreadID: threadID})
		return
	}
	writeJSONResponse(w, http.StatusOK, models.ChatResponse{Response: reply, ThreadID: threadID})
}

// bookingHandler accepts a structured booking from the widget form. The form
// collects all four required fields, so validation here is stricter than the
// conversational paths.
func (s *Server) bookingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}

	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, models.Error(err.Error()))
		return
	}

	rec := models.BookingRecord{
		Name:        req.Name,
		Phone:       req.Phone,
		Service:     req.Service,
		ScheduledAt: req.Date,
		Documents:   req.Documents,
		Comment:     req.Comment,
		Source:      models.SourceWidget,
	}
	saved, err := s.intake.SaveBooking(r.Context(), rec)
	if err != nil {
		slog.Error("Server.bookingHandler: booking save failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to save booking"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Booking recorded", saved))
}

// servicesHandler lists the offered services for the widget's picker.
func (s *Server) servicesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(s.services))
}

// bookingsHandler lists recent bookings from the local archive.
func (s *Server) bookingsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	if s.archive == nil {
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Archive not configured"))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONResponse(w, http.StatusBadRequest, models.Error("Invalid limit parameter"))
			return
		}
		limit = parsed
	}

	bookings, err := s.archive.ListBookings(limit)
	if err != nil {
		slog.Error("Server.bookingsHandler: failed to list bookings", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list bookings"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(bookings))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONResponse(w, http.StatusMethodNotAllowed, models.Error("Method not allowed"))
		return
	}
	// One flag per inbound channel: the Telegram webhook and the widget API
	// (always up once this handler answers).
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("healthy", map[string]bool{
		"telegram_bot": s.bot != nil,
		"api":          true,
	}))
}
