//go:build !linux

package affinity

func pin(int) error {
	return ErrUnsupported
}

// Current returns ErrUnsupported outside linux.
func Current() ([]int, error) {
	return nil, ErrUnsupported
}
