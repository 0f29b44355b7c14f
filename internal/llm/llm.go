// Package llm adapts chat-completion providers to one tool-calling interface.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/vntrieu/moodscreen/internal/config"
)

// Message roles understood by every provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ErrEmptyResponse is returned when a provider answers without any choice.
var ErrEmptyResponse = errors.New("model returned no choices")

// ToolCall is a function invocation requested by the model. Arguments is the
// raw JSON object produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is one entry of the conversation sent to the model. Tool results use
// RoleTool with ToolCallID and Name set; assistant turns that requested tools
// carry ToolCalls.
type Message struct {
	Role       string
	Content    string
	Name       string
	ToolCallID string
	ToolCalls  []ToolCall
}

// Property describes one argument of a tool.
type Property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
}

// Parameters is the JSON-schema object describing tool arguments.
type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required"`
}

// ToolSpec is a function the model may call.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  Parameters
}

// Request is a single completion call.
type Request struct {
	System      string
	Messages    []Message
	Tools       []ToolSpec
	Temperature float32
}

// Response is the model's answer: text, tool calls, or both.
type Response struct {
	Content   string
	ToolCalls []ToolCall
}

// Completer runs chat completions.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// New builds the provider selected by cfg. It returns a nil Completer and no
// error when no provider is configured.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "", config.ProviderNone:
		return nil, nil
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return NewOpenAI(cfg), nil
	case config.ProviderGemini:
		if cfg.APIKey == "" {
			return nil, nil
		}
		g, err := NewGemini(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// ObjectParameters returns an empty object schema ready for properties.
func ObjectParameters() Parameters {
	return Parameters{Type: "object", Properties: map[string]Property{}, Required: []string{}}
}
