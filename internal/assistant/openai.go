package assistant

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/pravoline/intakebot/internal/models"
)

// openAIThreads adapts the OpenAI SDK's Beta Threads surface to threadAPI.
type openAIThreads struct {
	client      openai.Client
	assistantID string
}

// NewOpenAIThreads creates a threadAPI backed by the OpenAI Assistants API.
func NewOpenAIThreads(apiKey, assistantID string) *openAIThreads {
	return &openAIThreads{
		client:      openai.NewClient(option.WithAPIKey(apiKey)),
		assistantID: assistantID,
	}
}

func (o *openAIThreads) CreateThread(ctx context.Context) (string, error) {
	thread, err := o.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", err
	}
	return thread.ID, nil
}

func (o *openAIThreads) AddUserMessage(ctx context.Context, threadID, text string) error {
	_, err := o.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(text),
		},
	})
	return err
}

func (o *openAIThreads) StartRun(ctx context.Context, threadID string) (string, error) {
	run, err := o.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: o.assistantID,
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

func (o *openAIThreads) RunStatus(ctx context.Context, threadID, runID string) (RunState, error) {
	run, err := o.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return RunState{}, err
	}

	state := RunState{Status: string(run.Status)}
	if run.Status == openai.RunStatusRequiresAction {
		for _, call := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			state.ToolCalls = append(state.ToolCalls, models.ToolCall{
				ID:        call.ID,
				Name:      call.Function.Name,
				Arguments: json.RawMessage(call.Function.Arguments),
			})
		}
	}
	return state, nil
}

func (o *openAIThreads) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []models.ToolOutput) error {
	params := openai.BetaThreadRunSubmitToolOutputsParams{}
	for _, out := range outputs {
		params.ToolOutputs = append(params.ToolOutputs, openai.BetaThreadRunSubmitToolOutputsParamsToolOutput{
			ToolCallID: openai.String(out.ToolCallID),
			Output:     openai.String(out.Output),
		})
	}
	_, err := o.client.Beta.Threads.Runs.SubmitToolOutputs(ctx, threadID, runID, params)
	return err
}

func (o *openAIThreads) ListMessages(ctx context.Context, threadID string) ([]ThreadMessage, error) {
	page, err := o.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
	})
	if err != nil {
		return nil, err
	}

	var messages []ThreadMessage
	for _, msg := range page.Data {
		var text string
		for _, part := range msg.Content {
			if part.Text.Value != "" {
				text = part.Text.Value
				break
			}
		}
		messages = append(messages, ThreadMessage{Role: string(msg.Role), Text: text})
	}
	return messages, nil
}
