package core

import (
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

var (
	ErrNoCapableDevice  = errors.New("no physical device meets the requirements")
	ErrMissingExtension = errors.New("required extension is missing")
	ErrMissingLayer     = errors.New("required validation layer is missing")
	ErrInvalidShader    = errors.New("shader binary is unreadable or invalid")
	ErrInvalidModel     = errors.New("model file is unreadable or invalid")
	ErrNoMemoryType     = errors.New("no suitable memory type")
	ErrSurfaceStale     = errors.New("surface out of date, swapchain must be recreated")
	ErrDeviceLost       = errors.New("device lost")
	ErrOutOfMemory      = errors.New("out of memory")
	ErrNotInitialized   = errors.New("not initialized")
	ErrUnknown          = errors.New("unknown")
)

// FatalInitError aborts engine startup. There is no retry.
type FatalInitError struct {
	Op  string
	Err error
}

func (e *FatalInitError) Error() string {
	return fmt.Sprintf("initialization failed: %s: %v", e.Op, e.Err)
}

func (e *FatalInitError) Unwrap() error { return e.Err }

// FatalRuntimeError is returned from the render loop when GPU or driver state
// can no longer be trusted. The caller is expected to stop rendering.
type FatalRuntimeError struct {
	Op  string
	Err error
}

func (e *FatalRuntimeError) Error() string {
	return fmt.Sprintf("render loop failed: %s: %v", e.Op, e.Err)
}

func (e *FatalRuntimeError) Unwrap() error { return e.Err }

func NewFatalInitError(op string, err error) error {
	var fi *FatalInitError
	if errors.As(err, &fi) {
		return err
	}
	return &FatalInitError{Op: op, Err: pkgerrors.WithStack(err)}
}

func NewFatalRuntimeError(op string, err error) error {
	var fr *FatalRuntimeError
	if errors.As(err, &fr) {
		return err
	}
	return &FatalRuntimeError{Op: op, Err: pkgerrors.WithStack(err)}
}

// IsFatal reports whether err belongs to one of the two fatal classes.
func IsFatal(err error) bool {
	var fi *FatalInitError
	var fr *FatalRuntimeError
	return errors.As(err, &fi) || errors.As(err, &fr)
}

// IsSurfaceStale reports the one recoverable condition of the render loop.
func IsSurfaceStale(err error) bool {
	return errors.Is(err, ErrSurfaceStale)
}
