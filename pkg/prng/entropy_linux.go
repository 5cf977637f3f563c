//go:build linux

package prng

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// readEntropy fills b with getrandom(2), blocking until the pool is ready.
func readEntropy(b []byte) error {
	for len(b) > 0 {
		n, err := unix.Getrandom(b, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("getrandom: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("getrandom returned no bytes")
		}
		b = b[n:]
	}
	return nil
}
