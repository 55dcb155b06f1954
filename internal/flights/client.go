package flights

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/metrics"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

// Searcher is the contract the conversation and results view depend on.
type Searcher interface {
	Search(ctx context.Context, q types.FlightQuery) ([]Offer, error)
}

// Client talks to the flight-pricing provider. It does not cache, retry or
// re-rank; offers come back in provider order.
type Client struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, url string, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{httpClient: httpClient, url: url, logger: logger}
}

// BuildRequest turns a query into the provider body.
func BuildRequest(q types.FlightQuery) (Request, error) {
	if !q.Complete() {
		return Request{}, fmt.Errorf("%w: origin, destination and a YYYY-MM-DD departure date are required", ErrInvalidQuery)
	}
	q = q.Normalized()
	legs := []OriginDestination{{
		Departure: Departure{AirportCode: q.Origin, Date: q.DepartureDate},
		Arrival:   Arrival{AirportCode: q.Destination},
	}}
	if q.ReturnDate != "" {
		legs = append(legs, OriginDestination{
			Departure: Departure{AirportCode: q.Destination, Date: q.ReturnDate},
			Arrival:   Arrival{AirportCode: q.Origin},
		})
	}
	return Request{
		OriginDestinations: legs,
		Travellers:         Travellers{Adults: q.PassengerCount},
	}, nil
}

func (c *Client) Search(ctx context.Context, q types.FlightQuery) ([]Offer, error) {
	body, err := BuildRequest(q)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode flight request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(b))
	if err != nil {
		return nil, &SearchFailed{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamDuration.WithLabelValues("flights").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FlightSearchFailures.WithLabelValues("0").Inc()
		c.logger.Warn("flight search request failed", zap.Error(err))
		return nil, &SearchFailed{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bb, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.FlightSearchFailures.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		c.logger.Warn("flight provider returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(bb))))
		return nil, &SearchFailed{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &SearchFailed{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !env.Success {
		metrics.FlightSearchFailures.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &SearchFailed{StatusCode: resp.StatusCode, Err: errors.New("provider reported an unsuccessful search")}
	}

	offers := make([]Offer, 0, len(env.Data.Raw.Data))
	for _, o := range env.Data.Raw.Data {
		if !o.hasSegments() {
			c.logger.Warn("dropping offer without segments", zap.String("offer_id", o.ID))
			continue
		}
		offers = append(offers, o)
	}
	c.logger.Debug("flight search completed",
		zap.String("origin", body.OriginDestinations[0].Departure.AirportCode),
		zap.String("destination", body.OriginDestinations[0].Arrival.AirportCode),
		zap.Int("legs", len(body.OriginDestinations)),
		zap.Int("offers", len(offers)))
	return offers, nil
}
