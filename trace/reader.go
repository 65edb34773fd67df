package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Reader reads records from a trace stream.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	closers []func() error
}

// NewReader creates a reader over an uncompressed trace stream.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// NewCompressedReader creates a reader over a compressed stream. Close
// releases the decoder but not r.
func NewCompressedReader(r io.Reader, c Compression) (*Reader, error) {
	dr, closeDecoder, err := decompress(r, c)
	if err != nil {
		return nil, err
	}

	reader := NewReader(dr)
	reader.closers = append(reader.closers, closeDecoder)
	return reader, nil
}

// Open opens the trace file at path. CompressionAuto picks the decoder from
// the file extension.
func Open(path string, c Compression) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}

	reader, err := NewCompressedReader(f, c.Resolve(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	reader.closers = append(reader.closers, f.Close)
	return reader, nil
}

// Next returns the next record, or io.EOF when the trace is exhausted.
func (r *Reader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		rec, ok, err := ParseRecord(r.scanner.Text())
		if err != nil {
			return Record{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		if ok {
			return rec, nil
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("failed to read trace: %w", err)
	}
	return Record{}, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int {
	return r.line
}

// Close releases the decoder and the underlying file, if any.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// ReadAll reads every record from an uncompressed stream.
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var records []Record
	for {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return records, err
		}
		records = append(records, rec)
	}
}
