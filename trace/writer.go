package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// Writer writes records in the trace line format.
type Writer struct {
	buf     *bufio.Writer
	encoder io.WriteCloser
	file    *os.File
	count   int
}

// NewWriter creates a writer over an uncompressed stream.
func NewWriter(w io.Writer) *Writer {
	return &Writer{buf: bufio.NewWriter(w)}
}

// NewCompressedWriter creates a writer that compresses into w. Close
// finishes the compressed stream but does not close w.
func NewCompressedWriter(w io.Writer, c Compression) (*Writer, error) {
	enc, err := compress(w, c)
	if err != nil {
		return nil, err
	}
	return &Writer{buf: bufio.NewWriter(enc), encoder: enc}, nil
}

// Create creates the trace file at path. CompressionAuto picks the encoder
// from the file extension. bzip2 is read-only.
func Create(path string, c Compression) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace: %w", err)
	}

	w, err := NewCompressedWriter(f, c.Resolve(path))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.file = f
	return w, nil
}

// Write appends one record.
func (w *Writer) Write(rec Record) error {
	if _, err := fmt.Fprintln(w.buf, rec.String()); err != nil {
		return fmt.Errorf("failed to write trace record: %w", err)
	}
	w.count++
	return nil
}

// WriteAll appends every record in order.
func (w *Writer) WriteAll(records []Record) error {
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Flush flushes buffered lines to the encoder or stream.
func (w *Writer) Flush() error {
	return w.buf.Flush()
}

// Close flushes, finishes the compressed stream and closes the file opened
// by Create.
func (w *Writer) Close() error {
	errs := []error{w.Flush()}
	if w.encoder != nil {
		errs = append(errs, w.encoder.Close())
	}
	if w.file != nil {
		errs = append(errs, w.file.Close())
	}
	return errors.Join(errs...)
}
