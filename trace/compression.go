package trace

import (
	"compress/bzip2"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression selects the container format of a trace file.
type Compression int

// Supported compressions.
const (
	CompressionAuto Compression = iota
	CompressionNone
	CompressionGzip
	CompressionZstd
	CompressionBzip2
)

var compressionNames = map[string]Compression{
	"auto":  CompressionAuto,
	"none":  CompressionNone,
	"gzip":  CompressionGzip,
	"zstd":  CompressionZstd,
	"bzip2": CompressionBzip2,
}

// String returns the compression name.
func (c Compression) String() string {
	for name, v := range compressionNames {
		if v == c {
			return name
		}
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// ParseCompression parses a compression name.
func ParseCompression(name string) (Compression, error) {
	c, ok := compressionNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown trace compression %q", name)
	}
	return c, nil
}

// MarshalText encodes the compression by name.
func (c Compression) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a compression name.
func (c *Compression) UnmarshalText(text []byte) error {
	v, err := ParseCompression(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Resolve replaces CompressionAuto with the compression implied by the
// file extension of path.
func (c Compression) Resolve(path string) Compression {
	if c != CompressionAuto {
		return c
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	case ".bz2":
		return CompressionBzip2
	default:
		return CompressionNone
	}
}

// decompress wraps r with a decoder. The returned close function releases
// the decoder, not r.
func decompress(r io.Reader, c Compression) (io.Reader, func() error, error) {
	noop := func() error { return nil }

	switch c {
	case CompressionNone, CompressionAuto:
		return r, noop, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open gzip trace: %w", err)
		}
		return zr, zr.Close, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open zstd trace: %w", err)
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case CompressionBzip2:
		return bzip2.NewReader(r), noop, nil
	default:
		return nil, nil, fmt.Errorf("unsupported trace compression %v", c)
	}
}

// compress wraps w with an encoder. Closing the returned writer flushes the
// encoder but does not close w.
func compress(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone, CompressionAuto:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		return gzip.NewWriter(w), nil
	case CompressionZstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zw, nil
	default:
		return nil, fmt.Errorf("unsupported trace compression for writing: %v", c)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
