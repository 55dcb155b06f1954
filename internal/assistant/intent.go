package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/metrics"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

// Extract asks the intent endpoint whether text is a flight request. It makes
// one attempt and never fails: an unreachable service, an unparsable body or
// a query missing required fields all come back as nil, so the caller falls
// through to chat. The reason is still logged and counted.
func (c *Client) Extract(ctx context.Context, text string) *types.FlightQuery {
	start := time.Now()
	var out types.AnalyzeResponse
	err := c.postJSON(ctx, analyzePath, types.AnalyzeRequest{Prompt: text}, &out)
	metrics.UpstreamDuration.WithLabelValues("intent").Observe(time.Since(start).Seconds())

	outcome := classify(out.Params, err)
	metrics.ExtractionOutcomes.WithLabelValues(outcome).Inc()
	switch outcome {
	case metrics.OutcomeFlight:
		q := out.Params.Normalized()
		c.logger.Debug("flight request detected",
			zap.String("origin", q.Origin),
			zap.String("destination", q.Destination),
			zap.String("departure_date", q.DepartureDate))
		return &q
	case metrics.OutcomeNotFlight:
		c.logger.Debug("no flight intent")
	default:
		c.logger.Warn("intent extraction degraded to chat", zap.String("outcome", outcome), zap.Error(err))
	}
	return nil
}

func classify(params *types.FlightQuery, err error) string {
	if err != nil {
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syn) || errors.As(err, &typ) ||
			errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return metrics.OutcomeMalformed
		}
		return metrics.OutcomeUnavailable
	}
	if params == nil {
		return metrics.OutcomeNotFlight
	}
	if !params.Complete() {
		return metrics.OutcomeIncomplete
	}
	return metrics.OutcomeFlight
}
