// Package transform wraps exported run data in reversible byte codecs.
package transform

import (
	"bytes"
	"errors"
	"fmt"
)

type Transform interface {
	Apply(data []byte) ([]byte, error)
	Reverse(data []byte) ([]byte, error)
}

type noOpTransform struct{}

func NewNoOpTransform() Transform                            { return &noOpTransform{} }
func (n *noOpTransform) Apply(data []byte) ([]byte, error)   { return data, nil }
func (n *noOpTransform) Reverse(data []byte) ([]byte, error) { return data, nil }

// Codec names accepted by ForCodec.
const (
	CodecZstd = "zstd"
	CodecGzip = "gzip"
	CodecNone = "none"
)

// MaxDecoded bounds the size a codec will inflate an export to.
const MaxDecoded = 256 << 20

var ErrTooLarge = errors.New("transform: decoded export exceeds size limit")

// Level is a codec-independent compression level.
type Level int

const (
	LevelFastest Level = iota
	LevelDefault
	LevelBetter
	LevelBest
)

var levelNames = map[string]Level{
	"fastest": LevelFastest,
	"default": LevelDefault,
	"better":  LevelBetter,
	"best":    LevelBest,
}

// ParseLevel reads a level name as given to the export command.
func ParseLevel(name string) (Level, error) {
	if name == "" {
		return LevelDefault, nil
	}
	if l, ok := levelNames[name]; ok {
		return l, nil
	}
	return LevelDefault, fmt.Errorf("transform: unknown level %q (fastest, default, better, best)", name)
}

// ForCodec returns the transform for an export codec name.
func ForCodec(name string, level Level) (Transform, error) {
	switch name {
	case CodecZstd, "":
		return NewZstdTransform(level)
	case CodecGzip:
		return NewGzipTransform(level), nil
	case CodecNone:
		return NewNoOpTransform(), nil
	}
	return nil, fmt.Errorf("transform: unknown codec %q", name)
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// Detect names the codec that produced data from its leading magic bytes.
// Anything else is taken to be plain JSON lines.
func Detect(data []byte) string {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return CodecZstd
	case bytes.HasPrefix(data, gzipMagic):
		return CodecGzip
	}
	return CodecNone
}

// Extension is the file suffix conventionally used for a codec.
func Extension(name string) string {
	switch name {
	case CodecZstd, "":
		return ".zst"
	case CodecGzip:
		return ".gz"
	}
	return ""
}
