// Package export writes the results of a simulation into files.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/pierrec/lz4/v4"
)

// Compression represents the framing applied to an exported stream.
type Compression uint8

// Supported framings.
const (
	CompressionNone Compression = iota
	CompressionSnappy
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// Extension is the file name suffix of the framing, including the dot.
func (c Compression) Extension() string {
	switch c {
	case CompressionSnappy:
		return ".sz"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseCompression converts a name to a Compression. An empty name means no
// compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unsupported compression %q", s)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// NewWriter wraps w so that everything written is framed with c. Closing the
// returned writer flushes the frame but does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopCloser{w}, nil
	case CompressionSnappy:
		return snappy.NewBufferedWriter(w), nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", c)
	}
}

// NewReader undoes the framing of NewWriter.
func NewReader(r io.Reader, c Compression) (io.Reader, error) {
	switch c {
	case CompressionNone:
		return r, nil
	case CompressionSnappy:
		return snappy.NewReader(r), nil
	case CompressionLZ4:
		return lz4.NewReader(r), nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %d", c)
	}
}
