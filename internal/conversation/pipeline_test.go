package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/malik-dev28/OTA-AI/internal/reveal"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

type fakeIntent struct {
	mu    sync.Mutex
	query *types.FlightQuery
	calls int
}

func (f *fakeIntent) Extract(_ context.Context, _ string) *types.FlightQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.query
}

type chatCall struct {
	prompt  string
	history []string
}

type fakeChat struct {
	mu      sync.Mutex
	replies map[string]string
	err     error
	calls   []chatCall
}

func (f *fakeChat) Reply(_ context.Context, prompt string, history []string) (reveal.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, chatCall{prompt: prompt, history: append([]string(nil), history...)})
	if f.err != nil {
		return reveal.Reply{}, f.err
	}
	return reveal.NewReply(f.replies[prompt]), nil
}

func (f *fakeChat) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingSink struct {
	mu     sync.Mutex
	turn   uint64
	tokens []string
	first  chan struct{}
	once   sync.Once
}

func newRecordingSink() *recordingSink {
	return &recordingSink{first: make(chan struct{})}
}

func (r *recordingSink) TurnStarted(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turn = id
}

func (r *recordingSink) Token(chunk string) {
	r.mu.Lock()
	r.tokens = append(r.tokens, chunk)
	r.mu.Unlock()
	r.once.Do(func() { close(r.first) })
}

type fakeHistory struct {
	mu      sync.Mutex
	prompts []string
	err     error
}

func (f *fakeHistory) Append(_ context.Context, _ string, prompt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.err
}

func newPipeline(t *testing.T, intent IntentExtractor, chat ChatService, delay time.Duration) *Pipeline {
	t.Helper()
	return NewPipeline(intent, chat, reveal.New(delay), zaptest.NewLogger(t))
}

func TestSubmit_ChatPath(t *testing.T) {
	intent := &fakeIntent{}
	chat := &fakeChat{replies: map[string]string{"best time for Kyoto?": "Visit in **spring** for blossoms."}}
	p := newPipeline(t, intent, chat, 0)
	s := NewSession("s1", nil, 10)
	s.SetInput("best time for Kyoto?")
	sink := newRecordingSink()

	res, err := p.Submit(context.Background(), s, "best time for Kyoto?", sink)
	require.NoError(t, err)

	assert.Equal(t, KindChat, res.Kind)
	assert.Equal(t, 1, intent.calls)
	assert.Equal(t, 1, chat.count(), "chat is called exactly once")
	assert.Empty(t, chat.calls[0].history)

	st := s.Snapshot()
	want := "Visit in <b>spring</b> for blossoms. "
	assert.Equal(t, want, st.DisplayedResponse)
	assert.Equal(t, want, res.Text)
	assert.Equal(t, []string{"Visit ", "in ", "<b>spring</b> ", "for ", "blossoms. "}, sink.tokens)
	assert.Equal(t, res.TurnID, sink.turn)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.InputText)
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Nil(t, st.CurrentFlightQuery)
	assert.Equal(t, []string{"best time for Kyoto?"}, st.History)
	assert.Equal(t, "best time for Kyoto?", st.RecentPrompt)
}

func TestSubmit_FlightPathSkipsChat(t *testing.T) {
	q := &types.FlightQuery{Origin: "NYC", Destination: "LAX", DepartureDate: "2025-12-25", PassengerCount: 1}
	chat := &fakeChat{}
	p := newPipeline(t, &fakeIntent{query: q}, chat, 0)
	s := NewSession("s1", nil, 10)

	res, err := p.Submit(context.Background(), s, "Find flights from NYC to LAX on Dec 25 2025 for 1 passenger", nil)
	require.NoError(t, err)

	assert.Equal(t, KindFlightSearch, res.Kind)
	assert.Equal(t, q, res.Query)
	assert.Zero(t, chat.count())

	st := s.Snapshot()
	assert.Equal(t, PhaseResultsReady, st.Phase)
	assert.Empty(t, st.DisplayedResponse, "a flight turn never shows a chat reply")
	require.NotNil(t, st.CurrentFlightQuery)
	assert.Equal(t, *q, *st.CurrentFlightQuery)
	assert.False(t, st.IsLoading)

	got, ok := s.ConsumeFlightQuery()
	require.True(t, ok)
	assert.Equal(t, *q, got)
	assert.Equal(t, PhaseIdle, s.Snapshot().Phase)
}

func TestSubmit_ChatFailureShowsApology(t *testing.T) {
	chat := &fakeChat{err: errors.New("status 500")}
	p := newPipeline(t, &fakeIntent{}, chat, 0)
	s := NewSession("s1", nil, 10)
	s.SetInput("hello")

	res, err := p.Submit(context.Background(), s, "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, KindError, res.Kind)
	assert.Error(t, res.Err)

	st := s.Snapshot()
	assert.Equal(t, MsgChatFailed, st.DisplayedResponse)
	assert.False(t, st.IsLoading)
	assert.Empty(t, st.InputText)
	assert.Equal(t, PhaseIdle, st.Phase)
}

func TestSubmit_EmptyInput(t *testing.T) {
	p := newPipeline(t, &fakeIntent{}, &fakeChat{}, 0)
	s := NewSession("s1", nil, 10)
	_, err := p.Submit(context.Background(), s, "   ", nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, s.Snapshot().TurnID)
}

func TestSubmit_PassesPriorHistoryAndRecords(t *testing.T) {
	chat := &fakeChat{replies: map[string]string{}}
	hist := &fakeHistory{}
	p := newPipeline(t, &fakeIntent{}, chat, 0)
	p.History = hist
	s := NewSession("s1", []string{"older"}, 10)

	_, err := p.Submit(context.Background(), s, "first", nil)
	require.NoError(t, err)
	_, err = p.Submit(context.Background(), s, "second", nil)
	require.NoError(t, err)

	require.Equal(t, 2, chat.count())
	assert.Equal(t, []string{"older"}, chat.calls[0].history)
	assert.Equal(t, []string{"older", "first"}, chat.calls[1].history)
	assert.Equal(t, []string{"first", "second"}, hist.prompts)
	assert.Equal(t, []string{"older", "first", "second"}, s.Snapshot().History)
}

func TestSubmit_HistoryFailureDoesNotBlockTurn(t *testing.T) {
	chat := &fakeChat{replies: map[string]string{"hi": "hello"}}
	p := newPipeline(t, &fakeIntent{}, chat, 0)
	p.History = &fakeHistory{err: errors.New("db down")}
	s := NewSession("s1", nil, 10)

	res, err := p.Submit(context.Background(), s, "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, KindChat, res.Kind)
	assert.Equal(t, "hello ", s.Snapshot().DisplayedResponse)
}

func TestSubmit_NewTurnAbandonsStaleReveal(t *testing.T) {
	chat := &fakeChat{replies: map[string]string{
		"first":  "one two three four five six seven eight",
		"second": "alpha beta",
	}}
	p := newPipeline(t, &fakeIntent{}, chat, 15*time.Millisecond)
	s := NewSession("s1", nil, 10)

	firstSink := newRecordingSink()
	done := make(chan Result, 1)
	go func() {
		res, _ := p.Submit(context.Background(), s, "first", firstSink)
		done <- res
	}()

	select {
	case <-firstSink.first:
	case <-time.After(2 * time.Second):
		t.Fatal("first reveal never started")
	}

	res, err := p.Submit(context.Background(), s, "second", nil)
	require.NoError(t, err)
	assert.Equal(t, KindChat, res.Kind)

	var stale Result
	select {
	case stale = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stale turn did not stop")
	}
	assert.Equal(t, KindSuperseded, stale.Kind)

	// Give any stray timer of the first turn a chance to fire.
	time.Sleep(50 * time.Millisecond)
	st := s.Snapshot()
	assert.Equal(t, "alpha beta ", st.DisplayedResponse)
	assert.Equal(t, res.TurnID, st.TurnID)
	assert.False(t, st.IsLoading)

	firstSink.mu.Lock()
	defer firstSink.mu.Unlock()
	assert.Less(t, len(firstSink.tokens), 8)
}

func TestReplay_ChatOnlyAndNotRecorded(t *testing.T) {
	q := &types.FlightQuery{Origin: "NYC", Destination: "LAX", DepartureDate: "2025-12-25", PassengerCount: 1}
	intent := &fakeIntent{query: q}
	chat := &fakeChat{replies: map[string]string{"tips for Rome": "Wear comfy shoes."}}
	hist := &fakeHistory{}
	p := newPipeline(t, intent, chat, 0)
	p.History = hist
	s := NewSession("s1", []string{"tips for Rome", "hello"}, 10)

	res, err := p.Replay(context.Background(), s, "tips for Rome", nil)
	require.NoError(t, err)

	assert.Equal(t, KindChat, res.Kind)
	assert.Zero(t, intent.calls)
	assert.Empty(t, hist.prompts)
	st := s.Snapshot()
	assert.Equal(t, []string{"tips for Rome", "hello"}, st.History)
	assert.Equal(t, "Wear comfy shoes. ", st.DisplayedResponse)
	assert.Equal(t, "tips for Rome", st.RecentPrompt)
}

func TestSubmit_MarkupReplyIsAtomic(t *testing.T) {
	chat := &fakeChat{replies: map[string]string{"x": "<h3>Found Flights:</h3><ul><li>a b</li></ul>"}}
	sink := newRecordingSink()
	p := newPipeline(t, &fakeIntent{}, chat, time.Hour)
	s := NewSession("s1", nil, 10)

	_, err := p.Submit(context.Background(), s, "x", sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"<h3>Found Flights:</h3><ul><li>a b</li></ul>"}, sink.tokens)
}
