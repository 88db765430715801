package adcs

import "errors"

var (
	// ErrSingularMatrix is returned when a 3x3 inversion meets a determinant below SingularityThreshold.
	ErrSingularMatrix = errors.New("singular matrix")
	// ErrDegenerateReference is returned when a zero norm vector is used as a direction.
	ErrDegenerateReference = errors.New("degenerate reference vector")
	// ErrTaskCreation is reported when an OBC task could not be started.
	ErrTaskCreation = errors.New("task not created")
)
