package flights

import (
	"errors"
	"fmt"
)

var ErrInvalidQuery = errors.New("invalid flight query")

// SearchFailed is returned for any failed search. StatusCode is zero when
// the request never got an HTTP response.
type SearchFailed struct {
	StatusCode int
	Err        error
}

func (e *SearchFailed) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("flight search failed: %v", e.Err)
	}
	return fmt.Sprintf("flight search failed: status %d: %v", e.StatusCode, e.Err)
}

func (e *SearchFailed) Unwrap() error { return e.Err }
