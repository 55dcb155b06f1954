package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/assistant"
	"github.com/malik-dev28/OTA-AI/internal/metrics"
	"github.com/malik-dev28/OTA-AI/internal/reveal"
)

// maxHistoryPrompts bounds how many earlier prompts are folded into the
// system message.
const maxHistoryPrompts = 10

// Responder answers travel questions.
type Responder struct {
	gen     Generator
	tmpl    PromptSpec
	timeout time.Duration
	logger  *zap.Logger
}

func NewResponder(gen Generator, prompts *Prompts, timeout time.Duration, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{gen: gen, tmpl: prompts.Chat, timeout: timeout, logger: logger}
}

// Respond returns the model's reply to prompt. Earlier prompts of the same
// conversation are embedded in the system message as a transcript. Failures
// are *assistant.ChatFailed, the same error the HTTP chat client returns.
func (r *Responder) Respond(ctx context.Context, prompt string, history []string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	out, err := r.gen.Generate(ctx, r.tmpl.request(r.system(history), prompt))
	metrics.UpstreamDuration.WithLabelValues("llm_chat").Observe(time.Since(start).Seconds())
	if err != nil {
		r.logger.Error("chat generation failed", zap.Error(err))
		return "", &assistant.ChatFailed{StatusCode: upstreamStatus(err), Err: err}
	}
	return out, nil
}

// upstreamStatus is the provider's HTTP status when the error carries one.
func upstreamStatus(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

// Reply is Respond shaped for the conversation pipeline.
func (r *Responder) Reply(ctx context.Context, prompt string, history []string) (reveal.Reply, error) {
	out, err := r.Respond(ctx, prompt, history)
	if err != nil {
		return reveal.Reply{}, err
	}
	return reveal.NewReply(out), nil
}

func (r *Responder) system(history []string) string {
	if len(history) > maxHistoryPrompts {
		history = history[len(history)-maxHistoryPrompts:]
	}
	var b strings.Builder
	b.WriteString(strings.TrimSpace(r.tmpl.System))
	written := false
	for _, h := range history {
		h = strings.TrimSpace(strings.ReplaceAll(h, "\n\n", "\n"))
		if h == "" {
			continue
		}
		if !written {
			b.WriteString("\n\nEarlier questions from this traveller (oldest first):\n")
			written = true
		}
		b.WriteString("USER: ")
		b.WriteString(h)
		b.WriteString("\n")
	}
	return b.String()
}
