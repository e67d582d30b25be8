//go:build !linux

package console

import "errors"

var errUnsupported = errors.New("console: cbreak mode not supported")

func enableCbreak(int) (func() error, error) {
	return nil, errUnsupported
}
