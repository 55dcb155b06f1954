package types

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used on every wire boundary.
const DateLayout = "2006-01-02"

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Prompt  string   `json:"prompt"`
	History []string `json:"history,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

// AnalyzeRequest is the body of POST /api/analyze-flight.
type AnalyzeRequest struct {
	Prompt string `json:"prompt"`
}

// AnalyzeResponse carries a null Params when the text is not a flight request.
type AnalyzeResponse struct {
	Params *FlightQuery `json:"params"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// FlightQuery is the structured form of a flight request.
type FlightQuery struct {
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`
	DepartureDate  string `json:"departureDate"`
	ReturnDate     string `json:"returnDate,omitempty"`
	PassengerCount int    `json:"adults"`
}

// Complete reports whether the required fields are present and well formed.
// A zero passenger count is treated as one adult.
func (q FlightQuery) Complete() bool {
	if strings.TrimSpace(q.Origin) == "" || strings.TrimSpace(q.Destination) == "" {
		return false
	}
	if !ValidDate(q.DepartureDate) {
		return false
	}
	if q.ReturnDate != "" && !ValidDate(q.ReturnDate) {
		return false
	}
	return q.PassengerCount >= 0
}

// Normalized trims fields and applies the one-adult default.
func (q FlightQuery) Normalized() FlightQuery {
	q.Origin = strings.TrimSpace(q.Origin)
	q.Destination = strings.TrimSpace(q.Destination)
	q.DepartureDate = strings.TrimSpace(q.DepartureDate)
	q.ReturnDate = strings.TrimSpace(q.ReturnDate)
	if q.PassengerCount < 1 {
		q.PassengerCount = 1
	}
	return q
}

func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
