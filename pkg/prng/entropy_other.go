//go:build !linux

package prng

import (
	"crypto/rand"
	"io"
)

func readEntropy(b []byte) error {
	_, err := io.ReadFull(rand.Reader, b)
	return err
}
