package input

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialConfig configures the microcontroller click bridge.
type SerialConfig struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
	// Ack is the line the bridge answers after performing a click.
	Ack    string
	Logger *slog.Logger
}

// DefaultSerialConfig returns the bridge defaults.
func DefaultSerialConfig(port string) *SerialConfig {
	return &SerialConfig{
		Port:        port,
		Baud:        9600,
		ReadTimeout: 2 * time.Second,
		Ack:         "received",
	}
}

// SerialClicker sends click commands to a USB HID microcontroller that
// moves and clicks the mouse as a hardware device.
//
// Protocol: "click:<x>,<y>\n", answered by a single Ack line.
type SerialClicker struct {
	port   io.ReadWriteCloser
	ack    string
	logger *slog.Logger
	mu     sync.Mutex
}

// OpenSerialClicker opens the serial port.
func OpenSerialClicker(cfg *SerialConfig) (*SerialClicker, error) {
	if cfg == nil || cfg.Port == "" {
		return nil, errors.New("serial port is required")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Port, err)
	}
	return NewSerialClicker(port, cfg), nil
}

// NewSerialClicker wraps an open port.
func NewSerialClicker(port io.ReadWriteCloser, cfg *SerialConfig) *SerialClicker {
	if cfg == nil {
		cfg = DefaultSerialConfig("")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ack := cfg.Ack
	if ack == "" {
		ack = "received"
	}
	return &SerialClicker{port: port, ack: ack, logger: logger}
}

// Click sends one click command and waits for the acknowledgement.
func (c *SerialClicker) Click(ctx context.Context, x, y int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if x < 0 || y < 0 {
		return fmt.Errorf("invalid click position (%d, %d)", x, y)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.port, "click:%d,%d\n", x, y); err != nil {
		return fmt.Errorf("error writing to serial bridge: %w", err)
	}

	resp, err := c.readLine()
	if err != nil {
		return err
	}
	if resp != c.ack {
		return fmt.Errorf("unexpected response: %q", resp)
	}
	c.logger.Debug("Serial click acknowledged", "x", x, "y", y)
	return nil
}

// readLine reads until a newline. A read returning no data means the
// port timed out.
func (c *SerialClicker) readLine() (string, error) {
	var resp bytes.Buffer
	buf := make([]byte, 128)
	for {
		n, err := c.port.Read(buf)
		if n > 0 {
			resp.Write(buf[:n])
			if i := bytes.IndexByte(resp.Bytes(), '\n'); i >= 0 {
				return strings.TrimSpace(string(resp.Bytes()[:i])), nil
			}
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("error reading from serial bridge: %w", err)
		}
		if n == 0 {
			return "", errors.New("serial bridge did not acknowledge the click")
		}
	}
}

// Close releases the port.
func (c *SerialClicker) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port.Close()
}

var _ Clicker = (*SerialClicker)(nil)
