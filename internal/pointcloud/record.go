package pointcloud

import (
	"encoding/binary"
	"math"
)

// Point record wire format constants.
// Each point on the stream is a fixed 24-byte little-endian record; a frame
// payload is a plain concatenation of records with no count prefix.
const (
	RECORD_STRIDE    = 24 // Bytes per point record
	OFFSET_X         = 0  // float32, millimetres
	OFFSET_Y         = 4  // float32, millimetres
	OFFSET_Z         = 8  // float32, millimetres
	OFFSET_INTENSITY = 12 // uint16 return strength
	OFFSET_PAD       = 14 // 2 alignment bytes, ignored
	OFFSET_TIMESTAMP = 16 // uint64 microseconds, ignored by the decoder

	// Positions travel in millimetres and are held in metres.
	POSITION_SCALE = 0.001
)

// Multipart framing constants shared by the decoder, encoder and sources.
const (
	DefaultBoundary = "--frame\r\n"
	contentType     = "application/octet-stream"
	headerEnd       = "\r\n\r\n"
)

// DecodeRecords parses a frame payload into a Frame. The payload length is
// truncated to whole records; a trailing partial record is ignored and its
// byte count returned. A zero-length payload yields a valid empty frame.
func DecodeRecords(payload []byte) (*Frame, int) {
	n := len(payload) / RECORD_STRIDE
	remainder := len(payload) - n*RECORD_STRIDE

	f := NewFrame(n)
	for i := 0; i < n; i++ {
		rec := payload[i*RECORD_STRIDE:]
		x := math.Float32frombits(binary.LittleEndian.Uint32(rec[OFFSET_X:]))
		y := math.Float32frombits(binary.LittleEndian.Uint32(rec[OFFSET_Y:]))
		z := math.Float32frombits(binary.LittleEndian.Uint32(rec[OFFSET_Z:]))
		intensity := binary.LittleEndian.Uint16(rec[OFFSET_INTENSITY:])
		f.Append(toMetres(x), toMetres(y), toMetres(z), intensity)
	}
	return f, remainder
}

// toMetres and toMillimetres scale through float64; multiplying in float32
// lands an ulp off on values like 3000 mm.
func toMetres(mm float32) float32 {
	return float32(float64(mm) * POSITION_SCALE)
}

func toMillimetres(m float32) float32 {
	return float32(float64(m) / POSITION_SCALE)
}

// EncodeRecords marshals a frame back into payload bytes, the inverse of
// DecodeRecords. Positions convert back to millimetres; the per-record
// timestamp field carries the frame time in microseconds.
func EncodeRecords(f *Frame) []byte {
	out := make([]byte, f.Len()*RECORD_STRIDE)
	ts := uint64(f.Timestamp.UnixMicro())
	for i := 0; i < f.Len(); i++ {
		rec := out[i*RECORD_STRIDE:]
		binary.LittleEndian.PutUint32(rec[OFFSET_X:], math.Float32bits(toMillimetres(f.X[i])))
		binary.LittleEndian.PutUint32(rec[OFFSET_Y:], math.Float32bits(toMillimetres(f.Y[i])))
		binary.LittleEndian.PutUint32(rec[OFFSET_Z:], math.Float32bits(toMillimetres(f.Z[i])))
		binary.LittleEndian.PutUint16(rec[OFFSET_INTENSITY:], f.Intensity[i])
		binary.LittleEndian.PutUint64(rec[OFFSET_TIMESTAMP:], ts)
	}
	return out
}
