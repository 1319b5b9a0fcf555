// Package llm defines the provider abstraction used by the explain command.
//
// Implementations live in sub-packages (see llm/ollama) and import this
// package for the shared message and stream types.
//
//	stream, err := provider.ChatStream(ctx, messages, &llm.ChatOptions{
//	    Model:       "llama3.2",
//	    Temperature: 0,
//	})
//	text, err := llm.Drain(stream, func(chunk string) { fmt.Print(chunk) })
package llm

import (
	"context"
	"errors"
	"strings"
)

// Provider defines the interface for LLM interactions.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Chat sends messages and returns a complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// ChatStream sends messages and returns a channel of streaming events.
	// The channel is closed when the stream completes or fails.
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan StreamEvent, error)

	// Heartbeat returns nil if the provider is reachable.
	Heartbeat(ctx context.Context) error

	// ModelAvailable reports whether model can be used without pulling it.
	ModelAvailable(ctx context.Context, model string) (bool, error)
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string
	Content string
}

// ChatOptions configures chat behavior. A nil *ChatOptions uses provider
// defaults.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int // 0 means provider default
}

// Response represents a complete LLM response.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// StreamEvent represents a single event in a streaming response. A non-nil
// Error terminates the stream.
type StreamEvent struct {
	Content string
	Done    bool
	Error   error
}

// Common errors returned by LLM providers.
var (
	ErrProviderUnavailable = errors.New("llm provider is not reachable")
	ErrModelNotFound       = errors.New("requested model is not available")
	ErrEmptyMessages       = errors.New("messages cannot be empty")
	ErrContextCanceled     = errors.New("operation was canceled")
)

// Drain reads stream until it closes, passing each chunk to onChunk (which
// may be nil), and returns the concatenated text. The first event error is
// returned together with the text received so far.
func Drain(stream <-chan StreamEvent, onChunk func(string)) (string, error) {
	var sb strings.Builder
	for event := range stream {
		if event.Error != nil {
			return sb.String(), event.Error
		}
		if event.Content == "" {
			continue
		}
		sb.WriteString(event.Content)
		if onChunk != nil {
			onChunk(event.Content)
		}
	}
	return sb.String(), nil
}
