package reveal

import (
	"context"
	"errors"
	"time"
)

// DefaultDelay is the pause between two revealed words.
const DefaultDelay = 75 * time.Millisecond

// ErrStale is returned when the sink refuses a chunk because a newer turn
// has taken over the buffer.
var ErrStale = errors.New("reveal superseded by a newer turn")

// Emit appends one chunk to the visible response. It returns false when the
// chunk belongs to a turn that is no longer current.
type Emit func(chunk string) bool

// Revealer plays a reply back word by word on a single goroutine. Each word
// waits for the previous one, so the output order is the token order no
// matter how the timer fires.
type Revealer struct {
	Delay time.Duration
}

func New(delay time.Duration) *Revealer {
	if delay < 0 {
		delay = 0
	}
	return &Revealer{Delay: delay}
}

// Play reveals r through emit. Pre-rendered markup is emitted at once.
func (rv *Revealer) Play(ctx context.Context, r Reply, emit Emit) error {
	if r.Markup {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !emit(r.Text) {
			return ErrStale
		}
		return nil
	}
	return rv.Reveal(ctx, Tokens(r), emit)
}

// Reveal emits token+" " for every token. Token i becomes visible roughly
// i*Delay after the call. Cancelling ctx stops the whole sequence.
func (rv *Revealer) Reveal(ctx context.Context, tokens []string, emit Emit) error {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for i, tok := range tokens {
		if i > 0 && rv.Delay > 0 {
			if timer == nil {
				timer = time.NewTimer(rv.Delay)
			} else {
				timer.Reset(rv.Delay)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !emit(tok + " ") {
			return ErrStale
		}
	}
	return nil
}
