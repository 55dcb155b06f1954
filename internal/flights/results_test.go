package flights

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malik-dev28/OTA-AI/internal/types"
)

type stubSearcher struct {
	offers []Offer
	err    error
	calls  int
}

func (s *stubSearcher) Search(_ context.Context, _ types.FlightQuery) ([]Offer, error) {
	s.calls++
	return s.offers, s.err
}

func TestFormatDuration(t *testing.T) {
	tests := map[string]string{
		"PT5H30M":   "5h 30m",
		"PT2H":      "2h 0m",
		"PT45M":     "0h 45m",
		"P1DT2H5M":  "26h 5m",
		"PT10H5M0S": "10h 5m",
		"garbage":   "garbage",
		"":          "",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatDuration(in), in)
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "USD 350.20", FormatPrice(Price{Currency: "USD", Total: "320.10", GrandTotal: "350.20"}))
	assert.Equal(t, "EUR 99.00", FormatPrice(Price{Currency: "EUR", Total: "99.00"}))
}

func TestLoad_MissingParameters(t *testing.T) {
	s := &stubSearcher{}

	res, err := Load(context.Background(), s, nil, "/retry")
	require.NoError(t, err)
	assert.Equal(t, StateMissingParameters, res.State)
	assert.Equal(t, MsgMissingParameters, res.Message)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, "/", res.Actions[0].Path)

	res, err = Load(context.Background(), s, &types.FlightQuery{Origin: "NYC"}, "/retry")
	require.NoError(t, err)
	assert.Equal(t, StateMissingParameters, res.State)
	assert.Zero(t, s.calls, "search must not run without parameters")
}

func TestLoad_SearchFailedOffersRetry(t *testing.T) {
	s := &stubSearcher{err: &SearchFailed{StatusCode: 500, Err: errors.New("boom")}}
	q := &types.FlightQuery{Origin: "NYC", Destination: "LAX", DepartureDate: "2025-12-25", PassengerCount: 1}

	res, err := Load(context.Background(), s, q, "/api/flights/results")
	require.Error(t, err)
	assert.Equal(t, StateError, res.State)
	assert.Equal(t, MsgSearchFailed, res.Message)
	require.NotEmpty(t, res.Actions)
	assert.Equal(t, "/api/flights/results", res.Actions[0].Path)
}

func TestLoad_RendersOneCardPerOffer(t *testing.T) {
	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(offersPayload), &env))
	offers := []Offer{env.Data.Raw.Data[0], env.Data.Raw.Data[2]}
	s := &stubSearcher{offers: offers}
	q := &types.FlightQuery{Origin: "NYC", Destination: "LAX", DepartureDate: "2025-12-25", PassengerCount: 1}

	res, err := Load(context.Background(), s, q, "/retry")
	require.NoError(t, err)
	assert.Equal(t, StateReady, res.State)
	assert.Equal(t, "NYC → LAX • 2025-12-25 • 1 Adult", res.Summary)
	require.Len(t, res.Cards, 2)

	first := res.Cards[0]
	assert.Equal(t, "AA", first.Airline)
	assert.Equal(t, "USD 350.20", first.Price)
	assert.Equal(t, 4, first.SeatsLeft)
	require.Len(t, first.Legs, 1)
	assert.Equal(t, Leg{DepartTime: "08:00", From: "JFK", Duration: "5h 30m", Stops: 0, ArriveTime: "13:30", To: "LAX"}, first.Legs[0])

	second := res.Cards[1]
	assert.Equal(t, "USD 299.00", second.Price)
	require.Len(t, second.Legs, 1)
	assert.Equal(t, 1, second.Legs[0].Stops)
	assert.Equal(t, "EWR", second.Legs[0].From)
	assert.Equal(t, "LAX", second.Legs[0].To)
	assert.Equal(t, "8h 15m", second.Legs[0].Duration)
}

func TestLoad_Empty(t *testing.T) {
	q := &types.FlightQuery{Origin: "NYC", Destination: "LAX", DepartureDate: "2025-12-25", PassengerCount: 3}
	res, err := Load(context.Background(), &stubSearcher{}, q, "/retry")
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, res.State)
	assert.Equal(t, MsgNoFlights, res.Message)
	assert.Equal(t, "NYC → LAX • 2025-12-25 • 3 Adults", res.Summary)
}
