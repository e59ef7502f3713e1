// Package bot routes incoming Telegram messages between the structured
// booking flow and the assistant-backed consultation flow.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pravoline/intakebot/internal/assistant"
	"github.com/pravoline/intakebot/internal/flow"
	"github.com/pravoline/intakebot/internal/models"
	"github.com/pravoline/intakebot/internal/telegram"
)

// Menu labels and commands.
const (
	menuQuickBooking = "Quick booking"
	menuConsultation = "Consultation"
	cmdStart         = "/start"
	cmdCancel        = "/cancel"
)

// Canned replies.
const (
	greeting = "Hello! I'm the Pravoline legal assistant.\n" +
		"Choose \"Quick booking\" to book a meeting step by step, or \"Consultation\" to ask a question in your own words."
	consultationPrompt = "What would you like to know? Describe your situation and I'll do my best to help."
	cancelled          = "Cancelled. What would you like to do next?"
	bookingSaved       = "Thank you! Your booking has been recorded. Our team will contact you shortly."
	bookingFailed      = "Sorry, we couldn't save your booking right now. Please try again a little later."
)

// Transport sends replies back to Telegram chats. telegram.Client implements
// it; tests use a fake.
type Transport interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, kb telegram.Keyboard) error
	SendMessageRemovingKeyboard(ctx context.Context, chatID int64, text string) error
}

// Responder produces free-form answers; assistant.Client implements it.
type Responder interface {
	Respond(ctx context.Context, threadID, message string, source models.Source) (string, string, error)
}

// Handler processes Telegram updates.
type Handler struct {
	transport Transport
	sessions  *flow.SessionStore
	booking   *flow.BookingFlow
	intake    *flow.IntakeService
	responder Responder
}

// NewHandler wires the update router.
func NewHandler(transport Transport, sessions *flow.SessionStore, booking *flow.BookingFlow, intake *flow.IntakeService, responder Responder) *Handler {
	return &Handler{
		transport: transport,
		sessions:  sessions,
		booking:   booking,
		intake:    intake,
		responder: responder,
	}
}

// HandleUpdate routes one incoming update. Non-message updates and messages
// without text are ignored.
func (h *Handler) HandleUpdate(ctx context.Context, upd telegram.Update) error {
	if upd.Message == nil || strings.TrimSpace(upd.Message.Text) == "" {
		slog.Debug("Handler.HandleUpdate: ignoring update without message text", "update_id", upd.UpdateID)
		return nil
	}

	chatID := upd.Message.Chat.ID
	// Trimming is for command and menu matching only; the structured flow
	// stores each answer verbatim.
	trimmed := strings.TrimSpace(upd.Message.Text)
	sess := h.sessions.Get(sessionKey(upd.Message))

	slog.Debug("Handler.HandleUpdate: routing message", "chat_id", chatID, "state", sess.State)

	switch {
	case trimmed == cmdStart:
		sess.State = models.StateIdle
		sess.Draft = models.BookingRecord{}
		return h.sendMenu(ctx, chatID, greeting)
	case trimmed == cmdCancel:
		h.booking.Cancel(sess)
		return h.sendMenu(ctx, chatID, cancelled)
	case sess.State != models.StateIdle:
		return h.continueBooking(ctx, chatID, sess, upd.Message.Text)
	case trimmed == menuQuickBooking:
		return h.sendStep(ctx, chatID, h.booking.Begin(sess))
	case trimmed == menuConsultation:
		return h.transport.SendMessageRemovingKeyboard(ctx, chatID, consultationPrompt)
	default:
		return h.consult(ctx, chatID, sess, trimmed)
	}
}

// continueBooking feeds the message to the structured flow and finalizes the
// booking when the flow completes.
func (h *Handler) continueBooking(ctx context.Context, chatID int64, sess *flow.Session, text string) error {
	step := h.booking.HandleInput(sess, text)
	if step.Completed == nil {
		return h.sendStep(ctx, chatID, step)
	}

	if _, err := h.intake.SaveBooking(ctx, *step.Completed); err != nil {
		slog.Error("Handler.continueBooking: booking save failed", "chat_id", chatID, "error", err)
		return h.sendMenu(ctx, chatID, bookingFailed)
	}
	return h.sendMenu(ctx, chatID, bookingSaved)
}

// consult forwards the message to the assistant and relays the reply.
func (h *Handler) consult(ctx context.Context, chatID int64, sess *flow.Session, text string) error {
	reply, threadID, err := h.responder.Respond(ctx, sess.ThreadID, text, models.SourceChat)
	sess.ThreadID = threadID
	if err != nil {
		slog.Error("Handler.consult: assistant failed", "chat_id", chatID, "error", err)
		return h.transport.SendMessage(ctx, chatID, assistant.FallbackReply)
	}
	return h.transport.SendMessage(ctx, chatID, reply)
}

// sendStep renders a structured-flow step, choosing the keyboard treatment
// the step asks for.
func (h *Handler) sendStep(ctx context.Context, chatID int64, step flow.StepResult) error {
	switch {
	case len(step.Keyboard) > 0:
		return h.transport.SendMessageWithKeyboard(ctx, chatID, step.Reply, telegram.Keyboard{
			Rows:    step.Keyboard,
			OneTime: step.OneTime,
		})
	case step.RemoveKeyboard:
		return h.transport.SendMessageRemovingKeyboard(ctx, chatID, step.Reply)
	default:
		return h.transport.SendMessage(ctx, chatID, step.Reply)
	}
}

func (h *Handler) sendMenu(ctx context.Context, chatID int64, text string) error {
	return h.transport.SendMessageWithKeyboard(ctx, chatID, text, telegram.Keyboard{
		Rows:    [][]string{{menuQuickBooking, menuConsultation}},
		OneTime: false,
	})
}

// sessionKey identifies a user across messages. The sender ID is preferred;
// channel posts fall back to the chat ID.
func sessionKey(msg *telegram.Message) string {
	if msg.From != nil {
		return strconv.FormatInt(msg.From.ID, 10)
	}
	return fmt.Sprintf("chat:%d", msg.Chat.ID)
}
