package compressor

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Compress wraps data in a single lz4 frame.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("compression failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reads one lz4 frame. At most limit bytes are produced; a frame
// that expands beyond it is rejected.
func Decompress(data []byte, limit int64) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(reader, limit+1))
	if err != nil {
		return nil, fmt.Errorf("decompression failed: %w", err)
	}
	if n > limit {
		return nil, fmt.Errorf("decompression failed: output exceeds %d bytes", limit)
	}
	return buf.Bytes(), nil
}
