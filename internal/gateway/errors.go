package gateway

import (
	"errors"
	"fmt"
)

// ErrUnexpectedStatus marks a non-2xx response.
var ErrUnexpectedStatus = errors.New("unexpected status")

// FetchError reports a failed retrieval of subjects, topics or questions.
type FetchError struct {
	Op         string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// PersistError reports a failed save of results or progress.
type PersistError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *PersistError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("persist %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// IsFetchFailure reports whether err is a FetchError.
func IsFetchFailure(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsPersistFailure reports whether err is a PersistError.
func IsPersistFailure(err error) bool {
	var pe *PersistError
	return errors.As(err, &pe)
}
