// Package llm backs the chat and intent-extraction endpoints with a hosted
// language model.
package llm

import (
	"context"
	"errors"
)

// Request is a single-turn completion: one system instruction and one user
// message.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int
}

// Generator is a text completion provider.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

var ErrNoChoices = errors.New("model returned no choices")
