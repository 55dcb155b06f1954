package conversation

import (
	"context"
	"sync"

	"github.com/malik-dev28/OTA-AI/internal/types"
)

type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseSubmitting   Phase = "submitting"
	PhaseRevealing    Phase = "revealing"
	PhaseResultsReady Phase = "results_ready"
)

// State is a read-only snapshot of a session.
type State struct {
	InputText          string             `json:"inputText"`
	History            []string           `json:"history"`
	RecentPrompt       string             `json:"recentPrompt"`
	IsLoading          bool               `json:"isLoading"`
	DisplayedResponse  string             `json:"displayedResponse"`
	CurrentFlightQuery *types.FlightQuery `json:"currentFlightQuery"`
	Phase              Phase              `json:"phase"`
	TurnID             uint64             `json:"turnId"`
}

// Session owns one conversation. Every mutation goes through a transition
// method; methods taking a turn id are no-ops (returning false) once a newer
// turn has begun.
type Session struct {
	ID string

	mu         sync.Mutex
	st         State
	cancel     context.CancelFunc
	maxHistory int
}

func NewSession(id string, history []string, maxHistory int) *Session {
	s := &Session{ID: id, maxHistory: maxHistory}
	s.st.Phase = PhaseIdle
	s.st.History = trimHistory(append([]string(nil), history...), maxHistory)
	return s
}

func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.st
	out.History = append([]string(nil), s.st.History...)
	if s.st.CurrentFlightQuery != nil {
		q := *s.st.CurrentFlightQuery
		out.CurrentFlightQuery = &q
	}
	return out
}

func (s *Session) SetInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.InputText = text
}

// Begin starts a new turn for prompt. Any turn still running is cancelled
// and its buffer discarded. When record is set the prompt is appended to
// history. It returns the turn's context, its id and the history as it was
// before this turn.
func (s *Session) Begin(ctx context.Context, prompt string, record bool) (context.Context, uint64, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	turnCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	prior := append([]string(nil), s.st.History...)
	s.st.TurnID++
	s.st.DisplayedResponse = ""
	s.st.CurrentFlightQuery = nil
	s.st.RecentPrompt = prompt
	s.st.IsLoading = true
	s.st.Phase = PhaseSubmitting
	if record {
		s.st.History = trimHistory(append(s.st.History, prompt), s.maxHistory)
	}
	return turnCtx, s.st.TurnID, prior
}

// StartReveal moves the turn into the revealing phase.
func (s *Session) StartReveal(turn uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn != s.st.TurnID {
		return false
	}
	s.st.Phase = PhaseRevealing
	return true
}

// Append grows the displayed response. Chunks of a superseded turn are
// refused.
func (s *Session) Append(turn uint64, chunk string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn != s.st.TurnID {
		return false
	}
	s.st.DisplayedResponse += chunk
	return true
}

func (s *Session) ShowFlightQuery(turn uint64, q types.FlightQuery) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn != s.st.TurnID {
		return false
	}
	s.st.CurrentFlightQuery = &q
	s.st.Phase = PhaseResultsReady
	return true
}

// Fail replaces the displayed response with msg and returns to idle.
func (s *Session) Fail(turn uint64, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn != s.st.TurnID {
		return false
	}
	s.st.DisplayedResponse = msg
	s.st.Phase = PhaseIdle
	return true
}

// Finish clears the loading flag and the input box. A turn that produced a
// flight query stays in PhaseResultsReady until the results view consumes it.
func (s *Session) Finish(turn uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if turn != s.st.TurnID {
		return
	}
	s.st.IsLoading = false
	s.st.InputText = ""
	if s.st.Phase != PhaseResultsReady {
		s.st.Phase = PhaseIdle
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// ConsumeFlightQuery hands the pending query to the results view and returns
// the session to idle. The query itself is kept so a retry can reuse it; it
// is dropped by the next turn or a reset.
func (s *Session) ConsumeFlightQuery() (types.FlightQuery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.CurrentFlightQuery == nil {
		return types.FlightQuery{}, false
	}
	if s.st.Phase == PhaseResultsReady {
		s.st.Phase = PhaseIdle
	}
	return *s.st.CurrentFlightQuery, true
}

// Reset starts a new chat. Recent prompts are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.st = State{
		History: s.st.History,
		Phase:   PhaseIdle,
		TurnID:  s.st.TurnID + 1,
	}
}

// ClearHistory forgets the recent prompts.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.History = nil
}

func trimHistory(h []string, limit int) []string {
	if limit > 0 && len(h) > limit {
		return append([]string(nil), h[len(h)-limit:]...)
	}
	return h
}
