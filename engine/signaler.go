package engine

import (
	"context"
	"errors"
)

// ErrSignalRejected indicates the engine refused the resume signal, e.g. the
// handle expired or the execution already finished by other means. Rejection
// is terminal for a resume attempt and must not be retried.
var ErrSignalRejected = errors.New("resume signal rejected by engine")

// Signaler delivers resume signals to the workflow engine. Implementations
// wrap the engine's resume-by-handle API.
//
// Signal must return an error wrapping ErrSignalRejected when the engine
// refuses the handle; any other error is treated as a transport failure and
// may be retried.
type Signaler interface {
	Signal(ctx context.Context, handle string, payload []byte) error
}
