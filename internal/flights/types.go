package flights

// Request is the provider search body. Legs are ordered: outbound first,
// return second when present.
type Request struct {
	OriginDestinations []OriginDestination `json:"originDestinations"`
	Travellers         Travellers          `json:"travellers"`
}

type OriginDestination struct {
	Departure Departure `json:"departure"`
	Arrival   Arrival   `json:"arrival"`
}

type Departure struct {
	AirportCode string `json:"airportCode"`
	Date        string `json:"date"`
}

type Arrival struct {
	AirportCode string `json:"airportCode"`
}

type Travellers struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// Envelope wraps the raw provider payload.
type Envelope struct {
	Success bool `json:"success"`
	Data    struct {
		Raw struct {
			Data []Offer `json:"data"`
		} `json:"amadeusRawJson"`
	} `json:"data"`
}

// Offer is read-only display data owned by the provider.
type Offer struct {
	ID                     string      `json:"id"`
	Price                  Price       `json:"price"`
	Itineraries            []Itinerary `json:"itineraries"`
	NumberOfBookableSeats  int         `json:"numberOfBookableSeats"`
	ValidatingAirlineCodes []string    `json:"validatingAirlineCodes"`
}

type Price struct {
	Currency   string `json:"currency"`
	Total      string `json:"total"`
	GrandTotal string `json:"grandTotal,omitempty"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Departure   Endpoint `json:"departure"`
	Arrival     Endpoint `json:"arrival"`
	CarrierCode string   `json:"carrierCode"`
	Number      string   `json:"number,omitempty"`
}

type Endpoint struct {
	IATACode string `json:"iataCode"`
	At       string `json:"at"`
}

// ValidatingAirline returns the first validating carrier, falling back to
// the carrier of the first segment.
func (o Offer) ValidatingAirline() string {
	if len(o.ValidatingAirlineCodes) > 0 && o.ValidatingAirlineCodes[0] != "" {
		return o.ValidatingAirlineCodes[0]
	}
	for _, it := range o.Itineraries {
		if len(it.Segments) > 0 {
			return it.Segments[0].CarrierCode
		}
	}
	return ""
}

func (o Offer) hasSegments() bool {
	if len(o.Itineraries) == 0 {
		return false
	}
	for _, it := range o.Itineraries {
		if len(it.Segments) == 0 {
			return false
		}
	}
	return true
}
