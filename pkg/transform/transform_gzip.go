package transform

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

var gzipLevels = map[Level]int{
	LevelFastest: gzip.BestSpeed,
	LevelDefault: gzip.DefaultCompression,
	LevelBetter:  8,
	LevelBest:    gzip.BestCompression,
}

// exportName is recorded in the gzip header so gunzip -N restores it.
const exportName = "runs.jsonl"

type gzipTransform struct {
	level      int
	maxDecoded int64
}

func NewGzipTransform(level Level) Transform {
	return newGzipTransform(level, MaxDecoded)
}

func newGzipTransform(level Level, maxDecoded int64) Transform {
	gl, ok := gzipLevels[level]
	if !ok {
		gl = gzip.DefaultCompression
	}
	return &gzipTransform{level: gl, maxDecoded: maxDecoded}
}

func (g *gzipTransform) Apply(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz, err := gzip.NewWriterLevel(&buf, g.level)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	gz.Name = exportName
	gz.Comment = "forkcheck runs"
	if _, err := gz.Write(data); err != nil {
		_ = gz.Close()
		return nil, fmt.Errorf("gzip: failed to compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("gzip: failed to finish stream: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *gzipTransform) Reverse(data []byte) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: corrupt export: %w", err)
	}
	defer gz.Close()
	out, err := io.ReadAll(io.LimitReader(gz, g.maxDecoded+1))
	if err != nil {
		return nil, fmt.Errorf("gzip: corrupt export: %w", err)
	}
	if int64(len(out)) > g.maxDecoded {
		return nil, fmt.Errorf("gzip: %w", ErrTooLarge)
	}
	return out, nil
}
