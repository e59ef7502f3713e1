package flow

import (
	"log/slog"

	"github.com/pravoline/intakebot/internal/models"
)

// Prompts sent by the structured intake flow, one per collection state.
const (
	promptName      = "Let's set up your booking.\nWhat is your name?"
	promptPhone     = "What is your phone number?"
	promptService   = "Please choose a service:"
	promptBadOption = "Please choose a service from the list:"
	promptDate      = "When would you like to meet? (e.g. 25.12.2024 15:00)"
	promptDocuments = "List the documents you have on hand (or say 'none'):"
	promptComment   = "Anything else we should know? (or say 'none'):"
)

// StepResult describes what the flow wants sent back to the user after one
// turn, and carries the completed record once the final field is collected.
type StepResult struct {
	Reply          string
	Keyboard       [][]string
	OneTime        bool
	RemoveKeyboard bool
	// Completed is non-nil exactly once, when the flow reaches its terminal
	// state. The caller persists it and composes the final reply itself, so
	// a storage failure can be surfaced instead of a false confirmation.
	Completed *models.BookingRecord
}

// BookingFlow is the fixed-order structured intake state machine:
// name, phone, service, date, documents, comment. Only the service step
// validates its input; every other step stores the message verbatim.
type BookingFlow struct {
	services []string
}

// NewBookingFlow creates the state machine over the given service list.
func NewBookingFlow(services []string) *BookingFlow {
	return &BookingFlow{services: services}
}

// Begin enters the flow: resets any partial record and asks for the name.
func (f *BookingFlow) Begin(sess *Session) StepResult {
	sess.Draft = models.BookingRecord{}
	sess.State = models.StateCollectName
	slog.Debug("BookingFlow.Begin: flow entered", "session", sess.Key)
	return StepResult{Reply: promptName, RemoveKeyboard: true}
}

// Cancel discards the partial record and returns the session to idle.
func (f *BookingFlow) Cancel(sess *Session) {
	slog.Debug("BookingFlow.Cancel: flow cancelled", "session", sess.Key, "state", sess.State)
	sess.Draft = models.BookingRecord{}
	sess.State = models.StateIdle
}

// HandleInput consumes one user message for the session's current state and
// advances the machine. An unknown service selection re-prompts without
// advancing; there is no attempt limit.
func (f *BookingFlow) HandleInput(sess *Session, text string) StepResult {
	slog.Debug("BookingFlow.HandleInput: processing input", "session", sess.Key, "state", sess.State)

	switch sess.State {
	case models.StateCollectName:
		sess.Draft.Name = text
		sess.State = models.StateCollectPhone
		return StepResult{Reply: promptPhone}

	case models.StateCollectPhone:
		sess.Draft.Phone = text
		sess.State = models.StateCollectService
		return StepResult{Reply: promptService, Keyboard: f.serviceKeyboard(), OneTime: true}

	case models.StateCollectService:
		if !f.isListedService(text) {
			slog.Debug("BookingFlow.HandleInput: service not in list, re-prompting", "session", sess.Key)
			return StepResult{Reply: promptBadOption, Keyboard: f.serviceKeyboard(), OneTime: true}
		}
		sess.Draft.Service = text
		sess.State = models.StateCollectDate
		return StepResult{Reply: promptDate, RemoveKeyboard: true}

	case models.StateCollectDate:
		sess.Draft.ScheduledAt = text
		sess.State = models.StateCollectDocuments
		return StepResult{Reply: promptDocuments}

	case models.StateCollectDocuments:
		sess.Draft.Documents = text
		sess.State = models.StateCollectComment
		return StepResult{Reply: promptComment}

	case models.StateCollectComment:
		sess.Draft.Comment = text
		rec := sess.Draft
		rec.Source = models.SourceChat
		sess.Draft = models.BookingRecord{}
		sess.State = models.StateIdle
		slog.Info("BookingFlow.HandleInput: flow completed", "session", sess.Key)
		return StepResult{Completed: &rec}
	}

	slog.Warn("BookingFlow.HandleInput: input outside flow", "session", sess.Key, "state", sess.State)
	return StepResult{}
}

func (f *BookingFlow) isListedService(text string) bool {
	for _, svc := range f.services {
		if text == svc {
			return true
		}
	}
	return false
}

// serviceKeyboard renders the service list as one option per row.
func (f *BookingFlow) serviceKeyboard() [][]string {
	rows := make([][]string, 0, len(f.services))
	for _, svc := range f.services {
		rows = append(rows, []string{svc})
	}
	return rows
}
