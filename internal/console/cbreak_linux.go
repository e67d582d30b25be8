package console

import (
	"errors"

	"golang.org/x/sys/unix"
)

var errUnsupported = errors.New("console: cbreak mode not supported")

// enableCbreak turns off line buffering and echo on fd, leaving signal keys
// and output processing alone. The returned func restores the previous mode.
func enableCbreak(fd int) (func() error, error) {
	old, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	mode := *old
	mode.Lflag &^= unix.ICANON | unix.ECHO
	mode.Cc[unix.VMIN] = 1
	mode.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &mode); err != nil {
		return nil, err
	}
	return func() error {
		return unix.IoctlSetTermios(fd, unix.TCSETS, old)
	}, nil
}
