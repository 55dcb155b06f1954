package server

import (
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/flights"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

const resultsRoute = "/api/flights/results"

// resultsPath encodes q as query parameters so the results view can be
// reloaded or retried without session state.
func resultsPath(q types.FlightQuery) string {
	v := url.Values{}
	v.Set("origin", q.Origin)
	v.Set("destination", q.Destination)
	v.Set("departureDate", q.DepartureDate)
	if q.ReturnDate != "" {
		v.Set("returnDate", q.ReturnDate)
	}
	v.Set("adults", strconv.Itoa(q.PassengerCount))
	return resultsRoute + "?" + v.Encode()
}

// queryFromValues returns nil when no search parameters were given at all.
func queryFromValues(v url.Values) *types.FlightQuery {
	if v.Get("origin") == "" && v.Get("destination") == "" && v.Get("departureDate") == "" {
		return nil
	}
	q := &types.FlightQuery{
		Origin:        v.Get("origin"),
		Destination:   v.Get("destination"),
		DepartureDate: v.Get("departureDate"),
		ReturnDate:    v.Get("returnDate"),
	}
	if n, err := strconv.Atoi(v.Get("adults")); err == nil {
		q.PassengerCount = n
	}
	return q
}

// handleFlightResults renders the results view and always moves the session
// out of results_ready. Explicit query parameters win; otherwise the query
// the session's last turn produced is used. With neither, the view is the
// missing-parameters state.
func (s *Server) handleFlightResults(w http.ResponseWriter, r *http.Request) {
	pending, ok := s.session(w, r).ConsumeFlightQuery()
	q := queryFromValues(r.URL.Query())
	if q == nil && ok {
		q = &pending
	}

	retry := resultsRoute
	if q != nil {
		retry = resultsPath(q.Normalized())
	}
	res, err := flights.Load(r.Context(), s.deps.Flights, q, retry)
	if err != nil {
		s.logger.Warn("flight search failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, res)
}
