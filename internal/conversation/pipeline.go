// Package conversation routes each submitted message either to a flight
// search or to the chat assistant and keeps the per-session state the views
// render from.
package conversation

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/metrics"
	"github.com/malik-dev28/OTA-AI/internal/reveal"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

// MsgChatFailed is shown in place of a reply when the chat service fails.
const MsgChatFailed = "Error fetching response. Please try again."

var ErrEmptyInput = errors.New("empty input")

// IntentExtractor returns a complete flight query, or nil for anything that
// should go to chat. It never fails.
type IntentExtractor interface {
	Extract(ctx context.Context, text string) *types.FlightQuery
}

type ChatService interface {
	Reply(ctx context.Context, prompt string, history []string) (reveal.Reply, error)
}

// HistoryRecorder persists submitted prompts.
type HistoryRecorder interface {
	Append(ctx context.Context, sessionID, prompt string) error
}

// Sink observes a turn as it runs. Token receives exactly the chunks that
// were appended to the session's displayed response.
type Sink interface {
	TurnStarted(id uint64)
	Token(chunk string)
}

type nopSink struct{}

func (nopSink) TurnStarted(uint64) {}
func (nopSink) Token(string)       {}

type Kind string

const (
	KindChat         Kind = "chat"
	KindFlightSearch Kind = "flight_search"
	KindError        Kind = "error"
	// KindSuperseded means a newer turn or a reset took over the session
	// before this one completed.
	KindSuperseded Kind = "superseded"
)

// Result is what one turn produced. Exactly one of Query (flight search)
// or Text (chat reply or error message) is meaningful, depending on Kind.
type Result struct {
	Kind   Kind
	TurnID uint64
	Query  *types.FlightQuery
	Text   string
	Err    error
}

type Pipeline struct {
	Intent   IntentExtractor
	Chat     ChatService
	Revealer *reveal.Revealer
	History  HistoryRecorder
	Logger   *zap.Logger
}

func NewPipeline(intent IntentExtractor, chat ChatService, revealer *reveal.Revealer, logger *zap.Logger) *Pipeline {
	if revealer == nil {
		revealer = reveal.New(reveal.DefaultDelay)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{Intent: intent, Chat: chat, Revealer: revealer, Logger: logger}
}

// Submit runs one turn for text: it is recorded in history, checked for a
// flight request, and otherwise answered by chat and revealed word by word.
// Adapter failures are reported through Result, never as an error.
func (p *Pipeline) Submit(ctx context.Context, s *Session, text string, sink Sink) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyInput
	}
	if sink == nil {
		sink = nopSink{}
	}

	turnCtx, turn, prior := s.Begin(ctx, text, true)
	defer s.Finish(turn)
	sink.TurnStarted(turn)
	p.record(ctx, s.ID, text)

	if q := p.Intent.Extract(turnCtx, text); q != nil {
		if turnCtx.Err() != nil || !s.ShowFlightQuery(turn, *q) {
			return p.superseded("flight", turn), nil
		}
		metrics.TurnsRouted.WithLabelValues("flight", "ok").Inc()
		p.Logger.Info("routed to flight search",
			zap.String("session", s.ID),
			zap.Uint64("turn", turn),
			zap.String("origin", q.Origin),
			zap.String("destination", q.Destination))
		return Result{Kind: KindFlightSearch, TurnID: turn, Query: q}, nil
	}
	if turnCtx.Err() != nil {
		return p.superseded("chat", turn), nil
	}
	return p.chat(turnCtx, s, turn, text, prior, sink), nil
}

// Replay answers a prompt from the recent list again. It goes straight to
// chat and does not add the prompt to history a second time.
func (p *Pipeline) Replay(ctx context.Context, s *Session, prompt string, sink Sink) (Result, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Result{}, ErrEmptyInput
	}
	if sink == nil {
		sink = nopSink{}
	}

	turnCtx, turn, prior := s.Begin(ctx, prompt, false)
	defer s.Finish(turn)
	sink.TurnStarted(turn)
	return p.chat(turnCtx, s, turn, prompt, prior, sink), nil
}

func (p *Pipeline) chat(ctx context.Context, s *Session, turn uint64, prompt string, history []string, sink Sink) Result {
	reply, err := p.Chat.Reply(ctx, prompt, history)
	if err != nil {
		if ctx.Err() != nil {
			return p.superseded("chat", turn)
		}
		p.Logger.Warn("chat failed", zap.String("session", s.ID), zap.Uint64("turn", turn), zap.Error(err))
		if !s.Fail(turn, MsgChatFailed) {
			return p.superseded("chat", turn)
		}
		metrics.TurnsRouted.WithLabelValues("chat", "error").Inc()
		return Result{Kind: KindError, TurnID: turn, Text: MsgChatFailed, Err: err}
	}

	if !s.StartReveal(turn) {
		return p.superseded("chat", turn)
	}
	err = p.Revealer.Play(ctx, reply, func(chunk string) bool {
		if !s.Append(turn, chunk) {
			return false
		}
		sink.Token(chunk)
		return true
	})
	if err != nil {
		return p.superseded("chat", turn)
	}
	metrics.TurnsRouted.WithLabelValues("chat", "ok").Inc()
	return Result{Kind: KindChat, TurnID: turn, Text: s.Snapshot().DisplayedResponse}
}

func (p *Pipeline) superseded(route string, turn uint64) Result {
	metrics.TurnsRouted.WithLabelValues(route, "superseded").Inc()
	p.Logger.Debug("turn superseded", zap.String("route", route), zap.Uint64("turn", turn))
	return Result{Kind: KindSuperseded, TurnID: turn}
}

func (p *Pipeline) record(ctx context.Context, sessionID, prompt string) {
	if p.History == nil {
		return
	}
	if err := p.History.Append(ctx, sessionID, prompt); err != nil {
		p.Logger.Warn("failed to persist prompt", zap.String("session", sessionID), zap.Error(err))
	}
}
