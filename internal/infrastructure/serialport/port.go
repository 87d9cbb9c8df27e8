package serialport

import (
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/nerrad567/noolite-mqtt/internal/infrastructure/config"
)

const (
	// DefaultBaud is the MTRF64's fixed UART rate.
	DefaultBaud = 9600

	defaultReadTimeout = 100 * time.Millisecond
	dataBits           = 8
)

// Logger interface for optional logging support.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// device is the subset of serial.Port the bridge relies on.
type device interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
}

// opener opens a device; replaced in tests.
type opener func(name string, mode *serial.Mode) (device, error)

func openSerial(name string, mode *serial.Mode) (device, error) {
	return serial.Open(name, mode)
}

// Port is a self-healing serial connection to the adapter.
//
// Thread Safety: Read and Write may be called from different goroutines;
// the bridge calls both from its loop.
type Port struct {
	name        string
	mode        *serial.Mode
	readTimeout time.Duration
	open        opener

	dev    device
	closed bool
	mu     sync.Mutex

	reopens int

	logger Logger
}

// Open opens the configured device.
//
// Parameters:
//   - cfg: serial configuration (device path, baud, read timeout)
//
// Returns:
//   - *Port: ready for Read and Write
//   - error: wrapped ErrOpenFailed if the device cannot be opened
func Open(cfg config.SerialConfig) (*Port, error) {
	return openWith(cfg, openSerial)
}

func openWith(cfg config.SerialConfig, open opener) (*Port, error) {
	baud := cfg.Baud
	if baud <= 0 {
		baud = DefaultBaud
	}
	timeout := time.Duration(cfg.ReadTimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}

	p := &Port{
		name: cfg.Device,
		mode: &serial.Mode{
			BaudRate: baud,
			DataBits: dataBits,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
		readTimeout: timeout,
		open:        open,
	}

	dev, err := p.connect()
	if err != nil {
		return nil, err
	}
	p.dev = dev
	return p, nil
}

// connect opens and configures the device, discarding stale buffered bytes.
func (p *Port) connect() (device, error) {
	dev, err := p.open(p.name, p.mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenFailed, p.name, err)
	}
	if err := dev.SetReadTimeout(p.readTimeout); err != nil {
		dev.Close()
		return nil, fmt.Errorf("%w: %s: set read timeout: %w", ErrOpenFailed, p.name, err)
	}
	// Best effort; not every driver supports flushing.
	_ = dev.ResetInputBuffer()
	_ = dev.ResetOutputBuffer()
	return dev, nil
}

// SetLogger sets the logger for reconnect events.
func (p *Port) SetLogger(logger Logger) {
	p.mu.Lock()
	p.logger = logger
	p.mu.Unlock()
}

// Name returns the device path.
func (p *Port) Name() string {
	return p.name
}

// Read reads from the adapter. It returns (0, nil) when the read timeout
// expires without data.
func (p *Port) Read(buf []byte) (int, error) {
	dev, err := p.current()
	if err != nil {
		return 0, err
	}
	n, err := dev.Read(buf)
	if err != nil {
		p.invalidate(dev, err)
	}
	return n, err
}

// Write writes a frame to the adapter.
func (p *Port) Write(buf []byte) (int, error) {
	dev, err := p.current()
	if err != nil {
		return 0, err
	}
	n, err := dev.Write(buf)
	if err != nil {
		p.invalidate(dev, err)
	}
	return n, err
}

// current returns the open device, reopening it if a previous call failed.
func (p *Port) current() (device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}
	if p.dev != nil {
		return p.dev, nil
	}

	dev, err := p.connect()
	if err != nil {
		return nil, err
	}
	p.dev = dev
	p.reopens++
	if p.logger != nil {
		p.logger.Info("serial port reopened", "device", p.name, "reopens", p.reopens)
	}
	return dev, nil
}

// invalidate drops dev after a failure so the next call reopens it.
func (p *Port) invalidate(dev device, cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.dev != dev {
		return
	}
	dev.Close()
	p.dev = nil
	if p.logger != nil {
		p.logger.Warn("serial port failed, will reopen", "device", p.name, "error", cause)
	}
}

// Reopens returns how many times the device was reopened after a failure.
func (p *Port) Reopens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reopens
}

// Close closes the device. Further Read and Write calls return ErrClosed.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	if p.dev == nil {
		return nil
	}
	err := p.dev.Close()
	p.dev = nil
	return err
}
