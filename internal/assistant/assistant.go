// Package assistant drives free-form conversations through a hosted OpenAI
// assistant: one thread per user, run polling with a hard cap, dispatch of
// required tool calls, and a transcript-recovery backstop triggered by
// closing phrases in the assistant's reply.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pravoline/intakebot/internal/models"
)

// FallbackReply is what callers should show the user when the assistant
// cannot produce an answer.
const FallbackReply = "Sorry, something went wrong on our side. Please try again in a moment, or use the quick booking option."

// Polling defaults. A run is abandoned once maxPolls status checks have been
// spent on it.
const (
	defaultPollInterval = time.Second
	defaultMaxPolls     = 120
)

// Run statuses as reported by the threads API.
const (
	runStatusQueued         = "queued"
	runStatusInProgress     = "in_progress"
	runStatusRequiresAction = "requires_action"
	runStatusCompleted      = "completed"
)

// defaultTriggerPhrases are the closing formulas the hosted assistant is
// instructed to use once it has gathered the booking details. Seeing one in
// a reply triggers transcript recovery in case the assistant skipped the
// save_booking call.
var defaultTriggerPhrases = []string{
	"i'll save your booking",
	"all the details are collected",
}

// RunState is a snapshot of an assistant run: its status and, when the run
// is waiting on us, the tool calls to satisfy.
type RunState struct {
	Status    string
	ToolCalls []models.ToolCall
}

// ThreadMessage is one message from a thread listing.
type ThreadMessage struct {
	Role string
	Text string
}

// threadAPI is the slice of the Assistants API the client needs. The
// production implementation wraps the OpenAI SDK; tests substitute a fake.
type threadAPI interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, text string) error
	StartRun(ctx context.Context, threadID string) (string, error)
	RunStatus(ctx context.Context, threadID, runID string) (RunState, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []models.ToolOutput) error
	// ListMessages returns the thread's messages newest-first.
	ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error)
}

// ToolHandler executes a function the assistant asked for.
type ToolHandler interface {
	HandleFunctionCall(ctx context.Context, name string, args json.RawMessage, source models.Source) models.ToolResult
}

// RecoveryHandler attempts to salvage a booking from the user's side of a
// transcript.
type RecoveryHandler interface {
	RecoverBooking(ctx context.Context, userMessages []string, source models.Source)
}

// Client runs conversations against a configured assistant.
type Client struct {
	api            threadAPI
	pollInterval   time.Duration
	maxPolls       int
	tools          ToolHandler
	recovery       RecoveryHandler
	triggerPhrases []string
}

// Option configures a Client.
type Option func(*Client)

// WithPollInterval overrides the delay between run status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithMaxPolls overrides the status-check budget per run.
func WithMaxPolls(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPolls = n
		}
	}
}

// WithTriggerPhrases replaces the closing phrases that trigger transcript
// recovery. Matching is case-insensitive substring.
func WithTriggerPhrases(phrases []string) Option {
	return func(c *Client) { c.triggerPhrases = phrases }
}

// NewClient creates an assistant client over the given thread API.
func NewClient(api threadAPI, tools ToolHandler, recovery RecoveryHandler, opts ...Option) *Client {
	c := &Client{
		api:            api,
		pollInterval:   defaultPollInterval,
		maxPolls:       defaultMaxPolls,
		tools:          tools,
		recovery:       recovery,
		triggerPhrases: defaultTriggerPhrases,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Respond sends the user's message on the given thread (creating one when
// threadID is empty), drives the run to completion, and returns the
// assistant's reply together with the thread ID to carry forward. The
// returned thread ID is valid even when err is non-nil, so callers keep the
// conversation context across transient failures.
func (c *Client) Respond(ctx context.Context, threadID, message string, source models.Source) (string, string, error) {
	if strings.TrimSpace(message) == "" {
		return "", threadID, models.ErrEmptyMessage
	}

	if threadID == "" {
		id, err := c.api.CreateThread(ctx)
		if err != nil {
			return "", "", fmt.Errorf("failed to create thread: %w", err)
		}
		threadID = id
		slog.Debug("Client.Respond: thread created", "thread_id", threadID)
	}

	if err := c.api.AddUserMessage(ctx, threadID, message); err != nil {
		return "", threadID, fmt.Errorf("failed to add message: %w", err)
	}

	runID, err := c.api.StartRun(ctx, threadID)
	if err != nil {
		return "", threadID, fmt.Errorf("failed to start run: %w", err)
	}
	slog.Debug("Client.Respond: run started", "thread_id", threadID, "run_id", runID)

	if err := c.awaitRun(ctx, threadID, runID, source); err != nil {
		return "", threadID, err
	}

	reply, err := c.latestAssistantReply(ctx, threadID)
	if err != nil {
		return "", threadID, err
	}

	if c.recovery != nil && c.containsTrigger(reply) {
		slog.Info("Client.Respond: closing phrase detected, running transcript recovery", "thread_id", threadID)
		c.recoverFromTranscript(ctx, threadID, source)
	}

	return reply, threadID, nil
}

// awaitRun polls the run until it completes, handling requires_action by
// dispatching tool calls. It fails once the poll budget is exhausted or the
// run ends in a non-completed terminal status.
func (c *Client) awaitRun(ctx context.Context, threadID, runID string, source models.Source) error {
	for polls := 0; polls < c.maxPolls; polls++ {
		state, err := c.api.RunStatus(ctx, threadID, runID)
		if err != nil {
			return fmt.Errorf("failed to poll run: %w", err)
		}

		switch state.Status {
		case runStatusCompleted:
			return nil
		case runStatusRequiresAction:
			if err := c.submitTools(ctx, threadID, runID, state.ToolCalls, source); err != nil {
				return err
			}
		case runStatusQueued, runStatusInProgress:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pollInterval):
			}
		default:
			return fmt.Errorf("run ended with status %q", state.Status)
		}
	}
	return fmt.Errorf("run %s did not complete within %d polls", runID, c.maxPolls)
}

func (c *Client) submitTools(ctx context.Context, threadID, runID string, calls []models.ToolCall, source models.Source) error {
	outputs := make([]models.ToolOutput, 0, len(calls))
	for _, call := range calls {
		slog.Debug("Client.submitTools: executing tool call", "thread_id", threadID, "function", call.Name)
		result := c.tools.HandleFunctionCall(ctx, call.Name, call.Arguments, source)
		encoded, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode tool result: %w", err)
		}
		outputs = append(outputs, models.ToolOutput{ToolCallID: call.ID, Output: string(encoded)})
	}
	if err := c.api.SubmitToolOutputs(ctx, threadID, runID, outputs); err != nil {
		return fmt.Errorf("failed to submit tool outputs: %w", err)
	}
	return nil
}

// latestAssistantReply returns the newest assistant message on the thread.
func (c *Client) latestAssistantReply(ctx context.Context, threadID string) (string, error) {
	messages, err := c.api.ListMessages(ctx, threadID)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}
	for _, msg := range messages {
		if msg.Role == "assistant" && msg.Text != "" {
			return msg.Text, nil
		}
	}
	return "", fmt.Errorf("thread %s has no assistant reply", threadID)
}

func (c *Client) containsTrigger(reply string) bool {
	lowered := strings.ToLower(reply)
	for _, phrase := range c.triggerPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// recoverFromTranscript feeds the user's messages, oldest first, to the
// recovery handler. Failures here are logged only; the user already has a
// reply.
func (c *Client) recoverFromTranscript(ctx context.Context, threadID string, source models.Source) {
	messages, err := c.api.ListMessages(ctx, threadID)
	if err != nil {
		slog.Error("Client.recoverFromTranscript: failed to list messages", "thread_id", threadID, "error", err)
		return
	}
	var userMessages []string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			userMessages = append(userMessages, messages[i].Text)
		}
	}
	c.recovery.RecoverBooking(ctx, userMessages, source)
}
