package oracle

import "errors"

// ErrInvalidScore is returned when an oracle implementation violates its
// contract (a positive score, or NaN).
var ErrInvalidScore = errors.New("oracle: score must be <= 0")
