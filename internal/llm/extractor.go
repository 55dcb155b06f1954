package llm

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/metrics"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

// Extractor asks the model whether a message is a flight search and, if so,
// for its parameters.
type Extractor struct {
	gen     Generator
	tmpl    PromptSpec
	timeout time.Duration
	logger  *zap.Logger
}

func NewExtractor(gen Generator, prompts *Prompts, timeout time.Duration, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{gen: gen, tmpl: prompts.Extract, timeout: timeout, logger: logger}
}

// Extract returns a complete, normalized query or nil. Model errors and
// unusable answers are logged and counted, never returned.
func (e *Extractor) Extract(ctx context.Context, text string, today time.Time) *types.FlightQuery {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := e.gen.Generate(ctx, e.tmpl.request(e.tmpl.System, e.tmpl.render(text, today)))
	metrics.UpstreamDuration.WithLabelValues("llm_extract").Observe(time.Since(start).Seconds())
	if err != nil {
		e.record(metrics.OutcomeUnavailable, zap.Error(err))
		return nil
	}

	q, outcome := parseQuery(raw)
	if outcome != metrics.OutcomeFlight {
		e.record(outcome, zap.String("raw", raw))
		return nil
	}
	n := q.Normalized()
	e.record(outcome, zap.String("origin", n.Origin), zap.String("destination", n.Destination))
	return &n
}

func (e *Extractor) record(outcome string, fields ...zap.Field) {
	metrics.ExtractionOutcomes.WithLabelValues(outcome).Inc()
	fields = append(fields, zap.String("outcome", outcome))
	switch outcome {
	case metrics.OutcomeFlight, metrics.OutcomeNotFlight:
		e.logger.Debug("intent extracted", fields...)
	default:
		e.logger.Warn("intent extraction degraded", fields...)
	}
}

// ForClock binds the extractor to a clock so it can serve as the
// conversation pipeline's intent source.
func (e *Extractor) ForClock(now func() time.Time) *ClockedExtractor {
	if now == nil {
		now = time.Now
	}
	return &ClockedExtractor{e: e, now: now}
}

type ClockedExtractor struct {
	e   *Extractor
	now func() time.Time
}

func (c *ClockedExtractor) Extract(ctx context.Context, text string) *types.FlightQuery {
	return c.e.Extract(ctx, text, c.now())
}

func parseQuery(raw string) (*types.FlightQuery, string) {
	s := cleanJSONString(raw)
	if s == "" {
		return nil, metrics.OutcomeMalformed
	}
	if strings.EqualFold(strings.Trim(s, `"'`), "null") {
		return nil, metrics.OutcomeNotFlight
	}

	var q *types.FlightQuery
	if err := json.Unmarshal([]byte(s), &q); err != nil {
		// Models sometimes wrap the object in prose; retry on the outermost braces.
		first := strings.IndexByte(s, '{')
		last := strings.LastIndexByte(s, '}')
		if first < 0 || last <= first {
			return nil, metrics.OutcomeMalformed
		}
		q = nil
		if err := json.Unmarshal([]byte(s[first:last+1]), &q); err != nil {
			return nil, metrics.OutcomeMalformed
		}
	}
	if q == nil {
		return nil, metrics.OutcomeNotFlight
	}
	if !q.Complete() {
		return nil, metrics.OutcomeIncomplete
	}
	return q, metrics.OutcomeFlight
}

// cleanJSONString removes markdown code fences (```json ... ```).
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
