package production

import (
	"fmt"

	"github.com/printdesk/printdesk/internal/shared"
)

// Domain errors for production jobs.
var (
	ErrJobNotFound   = fmt.Errorf("job %w", shared.ErrNotFound)
	ErrPhaseNotFound = fmt.Errorf("phase %w", shared.ErrNotFound)
	ErrNotAuthorized = fmt.Errorf("%w: you are not allowed to work on this phase", shared.ErrForbidden)
	ErrNotManager    = fmt.Errorf("%w: only admins and sales managers may skip phases", shared.ErrForbidden)
)

func illegal(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrIllegalTransition, fmt.Sprintf(format, args...))
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", shared.ErrConflict, fmt.Sprintf(format, args...))
}
