package parsing

import (
	"errors"
	"fmt"
)

// MalformedResponseError indicates no well-formed recommendation could be
// extracted from the model's output. The raw model text is deliberately not
// carried on the error so it can never leak to API callers.
type MalformedResponseError struct {
	Message string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %s", e.Message)
}

// IsMalformedResponse reports whether err is (or wraps) a MalformedResponseError.
func IsMalformedResponse(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}
