package transform

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var zstdLevels = map[Level]zstd.EncoderLevel{
	LevelFastest: zstd.SpeedFastest,
	LevelDefault: zstd.SpeedDefault,
	LevelBetter:  zstd.SpeedBetterCompression,
	LevelBest:    zstd.SpeedBestCompression,
}

// zstdTransform compresses a whole export as one checksummed frame.
type zstdTransform struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewZstdTransform(level Level) (Transform, error) {
	return newZstdTransform(level, MaxDecoded)
}

func newZstdTransform(level Level, maxDecoded uint64) (Transform, error) {
	zl, ok := zstdLevels[level]
	if !ok {
		return nil, fmt.Errorf("zstd: unsupported level %d", level)
	}
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zl),
		zstd.WithEncoderCRC(true),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to initialize encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderMaxMemory(maxDecoded),
		zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("zstd: failed to initialize decoder: %w", err)
	}
	return &zstdTransform{encoder: enc, decoder: dec}, nil
}

func (s *zstdTransform) Apply(data []byte) ([]byte, error) {
	return s.encoder.EncodeAll(data, make([]byte, 0, len(data)/4)), nil
}

func (s *zstdTransform) Reverse(data []byte) ([]byte, error) {
	out, err := s.decoder.DecodeAll(data, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) {
		return nil, fmt.Errorf("zstd: %w", ErrTooLarge)
	}
	if err != nil {
		return nil, fmt.Errorf("zstd: corrupt export: %w", err)
	}
	return out, nil
}
