package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/metrics"
	"github.com/malik-dev28/OTA-AI/internal/reveal"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

// ChatFailed wraps any failure of the chat endpoint. StatusCode is zero for
// transport and decoding errors.
type ChatFailed struct {
	StatusCode int
	Err        error
}

func (e *ChatFailed) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("chat failed: %v", e.Err)
	}
	return fmt.Sprintf("chat failed: status %d: %v", e.StatusCode, e.Err)
}

func (e *ChatFailed) Unwrap() error { return e.Err }

// Reply sends prompt with the prior prompts to the chat endpoint.
func (c *Client) Reply(ctx context.Context, prompt string, history []string) (reveal.Reply, error) {
	start := time.Now()
	var out types.ChatResponse
	err := c.postJSON(ctx, chatPath, types.ChatRequest{Prompt: prompt, History: history}, &out)
	metrics.UpstreamDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())
	if err != nil {
		cf := &ChatFailed{Err: err}
		var se *statusError
		if errors.As(err, &se) {
			cf.StatusCode = se.code
		}
		c.logger.Warn("chat request failed", zap.Int("status", cf.StatusCode), zap.Error(err))
		return reveal.Reply{}, cf
	}
	return reveal.NewReply(out.Response), nil
}
