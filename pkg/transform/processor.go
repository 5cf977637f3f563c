package transform

import (
	"errors"
	"fmt"
)

// Pipeline applies its transforms in order on output and in reverse order
// on input.
type Pipeline struct {
	transforms []Transform
}

// NewPipeline requires at least one transform. Use NewNoOpTransform for an
// explicitly empty pipeline.
func NewPipeline(transforms ...Transform) (*Pipeline, error) {
	if len(transforms) == 0 {
		return nil, errors.New("transform: pipeline requires at least one transform")
	}
	return &Pipeline{transforms: append([]Transform(nil), transforms...)}, nil
}

// Encode runs every transform forward.
func (p *Pipeline) Encode(payload []byte) ([]byte, error) {
	var err error
	for i, t := range p.transforms {
		if payload, err = t.Apply(payload); err != nil {
			return nil, fmt.Errorf("encode: transform %d (%T) failed: %w", i, t, err)
		}
	}
	return payload, nil
}

// Decode undoes Encode.
func (p *Pipeline) Decode(payload []byte) ([]byte, error) {
	var err error
	for i := len(p.transforms) - 1; i >= 0; i-- {
		t := p.transforms[i]
		if payload, err = t.Reverse(payload); err != nil {
			return nil, fmt.Errorf("decode: transform %d (%T) failed: %w", i, t, err)
		}
	}
	return payload, nil
}
