package teaching

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no lecture matches the given id.
var ErrNotFound = errors.New("lecture not found")

// ErrAccessDenied is returned when the viewer may not see the lecture.
var ErrAccessDenied = errors.New("lecture access denied")

// InvalidStageError reports an operation invoked while the lecture is not in
// an allowed source stage. The lecture is left unchanged and no history
// entry is added.
type InvalidStageError struct {
	Op      string
	Current Stage
	Allowed []Stage
}

func (e *InvalidStageError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("%s requires stage in [%s], lecture is %s", e.Op, strings.Join(allowed, " "), e.Current)
}
