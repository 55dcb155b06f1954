package flights

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/malik-dev28/OTA-AI/internal/types"
)

type ViewState string

const (
	StateReady             ViewState = "ready"
	StateEmpty             ViewState = "empty"
	StateError             ViewState = "error"
	StateMissingParameters ViewState = "missing_parameters"
)

const (
	MsgMissingParameters = "Missing search parameters. Please start a new search from the chat."
	MsgSearchFailed      = "Failed to fetch flight results. Please try again."
	MsgNoFlights         = "No flights found for this route and date."
)

// Results is the flight-results view model.
type Results struct {
	State   ViewState          `json:"state"`
	Query   *types.FlightQuery `json:"query,omitempty"`
	Summary string             `json:"summary,omitempty"`
	Cards   []Card             `json:"cards,omitempty"`
	Message string             `json:"message,omitempty"`
	Actions []Action           `json:"actions,omitempty"`
}

type Action struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

type Card struct {
	ID        string `json:"id"`
	Airline   string `json:"airline"`
	Price     string `json:"price"`
	SeatsLeft int    `json:"seatsLeft"`
	Legs      []Leg  `json:"legs"`
}

type Leg struct {
	DepartTime string `json:"departTime"`
	From       string `json:"from"`
	Duration   string `json:"duration"`
	Stops      int    `json:"stops"`
	ArriveTime string `json:"arriveTime"`
	To         string `json:"to"`
}

var backToChat = Action{Label: "Back to Chat", Path: "/"}

// Load runs the results view for the navigation state q. A nil or
// incomplete query is the terminal missing-parameters state, not an error.
// The search error, if any, is returned alongside the error view so the
// caller can log it.
func Load(ctx context.Context, s Searcher, q *types.FlightQuery, retryPath string) (Results, error) {
	if q == nil || !q.Complete() {
		return Results{
			State:   StateMissingParameters,
			Message: MsgMissingParameters,
			Actions: []Action{backToChat},
		}, nil
	}
	nq := q.Normalized()
	offers, err := s.Search(ctx, nq)
	if err != nil {
		return Results{
			State:   StateError,
			Query:   &nq,
			Summary: Summary(nq),
			Message: MsgSearchFailed,
			Actions: []Action{{Label: "Try Again", Path: retryPath}, backToChat},
		}, err
	}
	return BuildResults(nq, offers), nil
}

// BuildResults renders one card per offer in provider order.
func BuildResults(q types.FlightQuery, offers []Offer) Results {
	res := Results{Query: &q, Summary: Summary(q)}
	if len(offers) == 0 {
		res.State = StateEmpty
		res.Message = MsgNoFlights
		res.Actions = []Action{{Label: "Search Different Dates", Path: "/"}}
		return res
	}
	res.State = StateReady
	res.Cards = make([]Card, 0, len(offers))
	for _, o := range offers {
		res.Cards = append(res.Cards, cardFor(o))
	}
	return res
}

func cardFor(o Offer) Card {
	c := Card{
		ID:        o.ID,
		Airline:   o.ValidatingAirline(),
		Price:     FormatPrice(o.Price),
		SeatsLeft: o.NumberOfBookableSeats,
	}
	for _, it := range o.Itineraries {
		if len(it.Segments) == 0 {
			continue
		}
		first := it.Segments[0]
		last := it.Segments[len(it.Segments)-1]
		c.Legs = append(c.Legs, Leg{
			DepartTime: FormatClock(first.Departure.At),
			From:       first.Departure.IATACode,
			Duration:   FormatDuration(it.Duration),
			Stops:      len(it.Segments) - 1,
			ArriveTime: FormatClock(last.Arrival.At),
			To:         last.Arrival.IATACode,
		})
	}
	return c
}

// Summary is the header line of the results view, e.g.
// "NYC → LAX • 2025-12-25 • 1 Adult".
func Summary(q types.FlightQuery) string {
	adults := "Adult"
	if q.PassengerCount > 1 {
		adults = "Adults"
	}
	s := fmt.Sprintf("%s → %s • %s", q.Origin, q.Destination, q.DepartureDate)
	if q.ReturnDate != "" {
		s += " – " + q.ReturnDate
	}
	return fmt.Sprintf("%s • %d %s", s, q.PassengerCount, adults)
}

// FormatPrice renders "<currency> <amount>", preferring the grand total.
func FormatPrice(p Price) string {
	amount := p.GrandTotal
	if amount == "" {
		amount = p.Total
	}
	return p.Currency + " " + amount
}

var isoDuration = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// FormatDuration turns an ISO-8601 duration ("PT5H30M") into "5h 30m".
// Days fold into hours. Unparseable input is returned unchanged.
func FormatDuration(iso string) string {
	m := isoDuration.FindStringSubmatch(iso)
	if m == nil || iso == "P" || iso == "PT" {
		return iso
	}
	days := atoi(m[1])
	hours := atoi(m[2])
	minutes := atoi(m[3])
	return fmt.Sprintf("%dh %dm", days*24+hours, minutes)
}

// FormatClock renders a provider timestamp as HH:MM.
func FormatClock(at string) string {
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, at); err == nil {
			return t.Format("15:04")
		}
	}
	return at
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
