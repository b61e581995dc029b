package referral

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no case matches the given id.
var ErrNotFound = errors.New("referral not found")

// InvalidTransitionError reports an operation whose target status is not
// reachable from the case's current status. The case is left unchanged and
// no audit entry is appended.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid referral transition: %s -> %s", e.From, e.To)
}
