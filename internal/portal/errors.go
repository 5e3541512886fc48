package portal

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginFailed means the portal bounced the login form. Fatal for the
	// whole run: without a session nothing else can proceed.
	ErrLoginFailed = errors.New("portal login failed")

	// ErrRejected means the portal answered a submit with its rejection
	// marker. Terminal for that date only.
	ErrRejected = errors.New("portal rejected the submission")
)

// BadStatusError reports a non-success HTTP status from the portal.
type BadStatusError struct {
	Code int
}

func (e *BadStatusError) Error() string {
	return fmt.Sprintf("portal returned status %d", e.Code)
}
