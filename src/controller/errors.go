package controller

// ValidationError marks a permanent signal rejection: bad symbol, bad
// stop-loss ordering, missing position. Maps to HTTP 400, never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Reason
}
