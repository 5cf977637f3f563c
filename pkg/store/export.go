package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"forkskinny-go/pkg/transform"
)

// Export writes runs as JSON lines passed through codec.
func Export(w io.Writer, runs []Run, codec transform.Transform) error {
	p, err := transform.NewPipeline(codec)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range runs {
		if err := enc.Encode(&runs[i]); err != nil {
			return fmt.Errorf("store: encoding run %s: %w", runs[i].ID, err)
		}
	}
	out, err := p.Encode(buf.Bytes())
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("store: writing export: %w", err)
	}
	return nil
}

// ReadExport decodes what Export wrote, whichever codec it used.
func ReadExport(r io.Reader) ([]Run, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("store: reading export: %w", err)
	}
	codec, err := transform.ForCodec(transform.Detect(data), transform.LevelDefault)
	if err != nil {
		return nil, err
	}
	p, err := transform.NewPipeline(codec)
	if err != nil {
		return nil, err
	}
	if data, err = p.Decode(data); err != nil {
		return nil, err
	}
	var runs []Run
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var r Run
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			return nil, fmt.Errorf("store: bad export line: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, sc.Err()
}
