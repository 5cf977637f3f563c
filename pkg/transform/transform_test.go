package transform

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/require"
)

func exportPayload() []byte {
	return bytes.Repeat([]byte(`{"target_sum":0,"control_sum":11}`+"\n"), 200)
}

func TestCodecsRoundTrip(t *testing.T) {
	payload := exportPayload()
	for _, name := range []string{CodecZstd, CodecGzip, CodecNone} {
		for lname, level := range levelNames {
			t.Run(name+"/"+lname, func(t *testing.T) {
				tr, err := ForCodec(name, level)
				require.NoError(t, err)
				enc, err := tr.Apply(payload)
				require.NoError(t, err)
				require.Equal(t, name, Detect(enc))
				if name != CodecNone {
					require.Less(t, len(enc), len(payload))
				}
				dec, err := tr.Reverse(enc)
				require.NoError(t, err)
				require.Equal(t, payload, dec)
			})
		}
	}
}

func TestZstdReuse(t *testing.T) {
	tr, err := ForCodec(CodecZstd, LevelDefault)
	require.NoError(t, err)
	for _, s := range []string{"first", "second payload", ""} {
		enc, err := tr.Apply([]byte(s))
		require.NoError(t, err)
		dec, err := tr.Reverse(enc)
		require.NoError(t, err)
		require.Equal(t, s, string(dec))
	}
}

func TestDecodeLimit(t *testing.T) {
	payload := exportPayload()

	z, err := newZstdTransform(LevelFastest, 1024)
	require.NoError(t, err)
	enc, err := z.Apply(payload)
	require.NoError(t, err)
	_, err = z.Reverse(enc)
	require.ErrorIs(t, err, ErrTooLarge)

	g := newGzipTransform(LevelFastest, 1024)
	enc, err = g.Apply(payload)
	require.NoError(t, err)
	_, err = g.Reverse(enc)
	require.ErrorIs(t, err, ErrTooLarge)

	g = newGzipTransform(LevelFastest, int64(len(payload)))
	dec, err := g.Reverse(enc)
	require.NoError(t, err)
	require.Equal(t, payload, dec)
}

func TestGzipHeader(t *testing.T) {
	enc, err := NewGzipTransform(LevelBest).Apply([]byte("x\n"))
	require.NoError(t, err)
	r, err := gzip.NewReader(bytes.NewReader(enc))
	require.NoError(t, err)
	require.Equal(t, "runs.jsonl", r.Name)
}

func TestCorruptInput(t *testing.T) {
	z, err := ForCodec(CodecZstd, LevelDefault)
	require.NoError(t, err)
	_, err = z.Reverse(append([]byte{0x28, 0xb5, 0x2f, 0xfd}, "garbage"...))
	require.Error(t, err)
	_, err = NewGzipTransform(LevelDefault).Reverse([]byte("not gzip"))
	require.Error(t, err)
}

func TestLevelsAndNames(t *testing.T) {
	l, err := ParseLevel("best")
	require.NoError(t, err)
	require.Equal(t, LevelBest, l)
	l, err = ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, LevelDefault, l)
	_, err = ParseLevel("max")
	require.Error(t, err)

	_, err = ForCodec("lz4", LevelDefault)
	require.Error(t, err)
	require.Equal(t, "", Extension(CodecNone))
	require.Equal(t, ".zst", Extension(CodecZstd))
	require.Equal(t, CodecNone, Detect([]byte(`{"id":"x"}`)))
}

func TestPipelineOrder(t *testing.T) {
	z, err := ForCodec(CodecZstd, LevelDefault)
	require.NoError(t, err)
	p, err := NewPipeline(NewGzipTransform(LevelDefault), z)
	require.NoError(t, err)

	enc, err := p.Encode([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, CodecZstd, Detect(enc), "outermost layer is zstd")

	dec, err := p.Decode(enc)
	require.NoError(t, err)
	require.Equal(t, "hello", string(dec))

	_, err = NewPipeline()
	require.Error(t, err)
}
