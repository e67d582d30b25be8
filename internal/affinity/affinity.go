// Package affinity pins the calling process to a single CPU core.
package affinity

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
)

// ErrUnsupported is returned on platforms without thread affinity control.
var ErrUnsupported = errors.New("cpu affinity is not supported on this platform")

// Validate checks that core is one the process is allowed to run on.
func Validate(core int) error {
	if core < 0 {
		return fmt.Errorf("core %d is negative", core)
	}
	if allowed, err := Current(); err == nil {
		if !slices.Contains(allowed, core) {
			return fmt.Errorf("core %d is not in the allowed set %v", core, allowed)
		}
		return nil
	}
	if n := runtime.NumCPU(); core >= n {
		return fmt.Errorf("core %d out of range [0, %d)", core, n)
	}
	return nil
}

// Pin restricts every thread of the process to core. It is all-or-nothing
// from the caller's point of view: on error the process must not continue
// as if pinned.
func Pin(core int) error {
	if err := Validate(core); err != nil {
		return err
	}
	return pin(core)
}
