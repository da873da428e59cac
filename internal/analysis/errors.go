package analysis

import "fmt"

// UpstreamError describes a failed classification call. StatusCode is zero
// when no HTTP response was received.
type UpstreamError struct {
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("analysis service returned %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("analysis service call failed: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
