package acquisition

import (
	"errors"
	"fmt"
)

// Kind classifies fatal pipeline errors.
type Kind int

// Error kinds.
const (
	// KindConfiguration aborts session setup: a required feature was rejected,
	// a parameter is out of bounds or core pinning failed.
	KindConfiguration Kind = iota + 1
	// KindLifecycle means the device rejected a start or stop request.
	KindLifecycle
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindLifecycle:
		return "lifecycle"
	default:
		return "unknown"
	}
}

// Error is a fatal condition raised by the controller or configurator.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func configError(op string, err error) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

func lifecycleError(op string, err error) *Error {
	return &Error{Kind: KindLifecycle, Op: op, Err: err}
}

// Sentinel errors.
var (
	ErrInvalidState      = errors.New("invalid state")
	ErrAlreadyConfigured = errors.New("already configured")
	ErrFrameRate         = errors.New("frame rate out of range")
	ErrROI               = errors.New("region of interest out of bounds")
	ErrNotTriggerMode    = errors.New("not in a software trigger mode")
)
