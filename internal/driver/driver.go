// Package driver owns the process-wide audio output lifecycle: exactly one
// open Driver at a time, guarded by a package-level mutex. No concrete
// hardware backend (PortAudio, ALSA, CoreAudio) is wired up, so Driver
// wraps a caller-supplied callback function rather than a hardware
// library — the lifecycle guarantee is the point, not the I/O.
package driver

import (
	"fmt"
	"sync"

	"github.com/schollz/tapecore/internal/errs"
)

// Callback is invoked once per audio block; it must fill buf (interleaved,
// len(buf)/2 frames) and never block or allocate.
type Callback func(buf []float32)

// Driver is a single open audio output stream.
type Driver struct {
	SampleRate int
	BlockSize  int
	callback   Callback

	mu      sync.Mutex
	running bool
}

var (
	singletonMu sync.Mutex
	singleton   *Driver
)

// Open constructs and starts the process's one Driver. A second call to
// Open before Close returns errs.SingletonViolation.
func Open(sampleRate, blockSize int, cb Callback) (*Driver, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singleton != nil {
		return nil, fmt.Errorf("a driver is already open: %w", errs.SingletonViolation)
	}
	if sampleRate <= 0 || blockSize <= 0 {
		return nil, fmt.Errorf("sampleRate and blockSize must be positive: %w", errs.InvalidRange)
	}
	d := &Driver{SampleRate: sampleRate, BlockSize: blockSize, callback: cb}
	d.running = true
	singleton = d
	return d, nil
}

// Close stops the Driver and clears the process singleton. Safe to call
// more than once.
func (d *Driver) Close() error {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return nil
	}
	d.running = false
	if singleton == d {
		singleton = nil
	}
	return nil
}

// Running reports whether the driver is still open.
func (d *Driver) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// PumpOnce synchronously runs one block through the callback, writing
// len(buf)/2 frames. Intended for offline/test drivers and for embedding
// into a real hardware callback once one is wired; the block contract
// (never block, never allocate) is the caller's to uphold inside cb.
func (d *Driver) PumpOnce(buf []float32) error {
	d.mu.Lock()
	running := d.running
	d.mu.Unlock()
	if !running {
		return fmt.Errorf("driver is closed: %w", errs.DriverFailure)
	}
	d.callback(buf)
	return nil
}
