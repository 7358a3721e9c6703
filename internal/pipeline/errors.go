package pipeline

import (
	"errors"
	"fmt"
	"time"
)

// QuotaExceededError indicates the user is out of generation calls for the
// current 24-hour window. Unavailable is set when the limiter itself could
// not be consulted; the quota fails closed, so that is still a denial, but
// without a meaningful reset time.
type QuotaExceededError struct {
	ResetAt     time.Time
	Unavailable bool
}

func (e *QuotaExceededError) Error() string {
	if e.Unavailable {
		return "generation quota unavailable, denying by policy"
	}
	return fmt.Sprintf("generation quota exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

// IsQuotaExceeded reports whether err is (or wraps) a QuotaExceededError.
func IsQuotaExceeded(err error) bool {
	var target *QuotaExceededError
	return errors.As(err, &target)
}
