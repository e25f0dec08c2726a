package pointcloud

import (
	"fmt"
	"io"
)

// Encoder writes frames as multipart sections in exactly the format the
// decoder accepts, so encoded output is valid input for any source: the
// producer endpoint streams through it and recordings replay through
// FileSource without a separate on-disk format.
type Encoder struct {
	w        io.Writer
	boundary []byte
}

// NewEncoder returns an encoder writing to w with the default boundary.
func NewEncoder(w io.Writer) *Encoder {
	return NewEncoderWithBoundary(w, DefaultBoundary)
}

// NewEncoderWithBoundary returns an encoder using a custom section marker.
func NewEncoderWithBoundary(w io.Writer, boundary string) *Encoder {
	if boundary == "" {
		boundary = DefaultBoundary
	}
	return &Encoder{w: w, boundary: []byte(boundary)}
}

// WriteFrame writes one framed section: marker, headers, blank line, record
// payload, trailing line break.
func (e *Encoder) WriteFrame(f *Frame) error {
	payload := EncodeRecords(f)
	if _, err := e.w.Write(e.boundary); err != nil {
		return fmt.Errorf("write boundary: %w", err)
	}
	header := fmt.Sprintf("Content-Type: %s\r\nContent-Length: %d%s", contentType, len(payload), headerEnd)
	if _, err := io.WriteString(e.w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := e.w.Write(payload); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	if _, err := io.WriteString(e.w, "\r\n"); err != nil {
		return fmt.Errorf("write payload terminator: %w", err)
	}
	return nil
}
