package pointcloud

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/virtualloop/internal/monitoring"
)

// SerialSourceConfig configures a serial-port stream. Bench rigs ship the
// same multipart framing over UART, so the decoder is unchanged.
type SerialSourceConfig struct {
	Port     string
	BaudRate int // defaults to 115200
}

// SerialSource feeds raw serial reads into a decoder.
type SerialSource struct {
	cfg SerialSourceConfig
}

// NewSerialSource returns a source reading from the given port.
func NewSerialSource(cfg SerialSourceConfig) *SerialSource {
	if cfg.BaudRate <= 0 {
		cfg.BaudRate = 115200
	}
	return &SerialSource{cfg: cfg}
}

// Stream opens the port and feeds chunks until cancellation or a port error.
// The read timeout keeps cancellation responsive; timeouts themselves are not
// errors, just empty reads.
func (s *SerialSource) Stream(ctx context.Context, feed func([]byte)) error {
	mode := &serial.Mode{
		BaudRate: s.cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(s.cfg.Port, mode)
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", s.cfg.Port, err)
	}
	defer port.Close()

	if err := port.SetReadTimeout(100 * time.Millisecond); err != nil {
		return fmt.Errorf("set read timeout on %s: %w", s.cfg.Port, err)
	}
	monitoring.Logf("pointcloud: reading %s at %d baud", s.cfg.Port, s.cfg.BaudRate)

	buf := make([]byte, 4096)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := port.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read serial port %s: %w", s.cfg.Port, err)
		}
		if n > 0 {
			feed(buf[:n])
		}
	}
}
