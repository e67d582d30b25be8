// Package console handles operator interaction on the controlling terminal.
package console

import (
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// interruptKey is Ctrl+C as delivered when the terminal does not translate it.
const interruptKey = 0x03

// ReadKeys forwards every byte read from r to the returned channel and closes
// it at EOF, on the first read error or once done is closed. Ctrl+C calls
// onInterrupt, when set, instead of being forwarded.
func ReadKeys(r io.Reader, onInterrupt func(), done <-chan struct{}) <-chan byte {
	keys := make(chan byte, 16)
	go func() {
		defer close(keys)
		buf := make([]byte, 1)
		for {
			n, err := r.Read(buf)
			if n == 1 {
				if buf[0] == interruptKey && onInterrupt != nil {
					onInterrupt()
					continue
				}
				select {
				case keys <- buf[0]:
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return keys
}

// Keyboard reads single key presses from a terminal without waiting for Enter.
type Keyboard struct {
	keys    <-chan byte
	done    chan struct{}
	once    sync.Once
	restore func() error
}

// OpenKeyboard switches f to unbuffered, non-echoing input when it is a
// terminal and starts reading keys. When f is not a terminal, input stays
// line buffered and keys arrive when a line is completed.
func OpenKeyboard(f *os.File, onInterrupt func()) (*Keyboard, error) {
	restore := func() error { return nil }
	if term.IsTerminal(int(f.Fd())) {
		r, err := enableCbreak(int(f.Fd()))
		if err != nil && !errors.Is(err, errUnsupported) {
			return nil, err
		}
		if r != nil {
			restore = r
		}
	}
	done := make(chan struct{})
	return &Keyboard{keys: ReadKeys(f, onInterrupt, done), done: done, restore: restore}, nil
}

// Keys returns the key channel. It is closed when input ends or after Close.
func (k *Keyboard) Keys() <-chan byte {
	return k.keys
}

// Close stops forwarding keys and restores the terminal mode. A read already
// in progress returns with the next byte.
func (k *Keyboard) Close() error {
	var err error
	k.once.Do(func() {
		close(k.done)
		err = k.restore()
	})
	return err
}
