package source

import (
	"fmt"

	"github.com/leapstack-labs/ssot/pkg/core"
)

// FetchError reports a failed GET of a dataset. Status is 0 when no
// response was received.
type FetchError struct {
	Dataset core.DatasetID
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// UpdateError reports a failed PUT of a row. Message is the response body
// text when the backend sent one.
type UpdateError struct {
	Dataset core.DatasetID
	Action  string
	Status  int
	Message string
	Err     error
}

func (e *UpdateError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpdateError) Unwrap() error { return e.Err }
