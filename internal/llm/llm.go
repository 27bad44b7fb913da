// Package llm is the port to the text generation provider and the JSON
// contract every structured call goes through.
package llm

import (
	"context"
	"errors"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// Request is a single generation call. Operation names the call for logs and metrics.
type Request struct {
	Operation string
	System    string
	Messages  []Message
	MaxTokens int
}

// Generator produces the raw text of the first reply block.
//
//go:generate mockgen -destination=mocks/generator.go -package=mocks ptcoach/pt-server/internal/llm Generator
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// --- Error Definitions ---
var (
	ErrGeneration    = errors.New("generation failed")
	ErrEmptyResponse = errors.New("provider returned no text content")
)

type FailureKind string

const (
	FailureProvider FailureKind = "provider"
	FailureDecode   FailureKind = "decode"
	FailureSchema   FailureKind = "schema"
)

// GenerationError reports a failed structured call. Its message is the
// user-facing text, prefixed with the name of the operation.
type GenerationError struct {
	Prefix string
	Kind   FailureKind
	Err    error
}

func (e *GenerationError) Error() string {
	switch e.Kind {
	case FailureProvider:
		return e.Prefix + " request failed: " + e.Err.Error()
	default:
		return e.Prefix + " returned invalid JSON: " + e.Err.Error()
	}
}

func (e *GenerationError) Unwrap() []error { return []error{ErrGeneration, e.Err} }

// UserMessage builds a single-turn conversation.
func UserMessage(content string) []Message {
	return []Message{{Role: RoleUser, Content: content}}
}
