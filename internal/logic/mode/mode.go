package mode

import (
	"fmt"
	"sync"

	"github.com/cjeanneret/FloatCam/internal/debug"
)

// Mode is the feature currently holding the shared active-feature slot.
type Mode int

const (
	Idle Mode = iota
	CameraActive
	AlbumOpen
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case CameraActive:
		return "camera"
	case AlbumOpen:
		return "album"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// BusyError is returned when the slot is held by another feature.
type BusyError struct {
	Requested Mode
	Holder    Mode
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("cannot enter %s mode while %s mode is active", e.Requested, e.Holder)
}

// Arbiter owns the active-feature slot. The camera and the album request
// transitions through it, so they can never be active together.
// It is safe for concurrent use; the web remote reads it off the tick loop.
type Arbiter struct {
	mu      sync.Mutex
	current Mode
}

// NewArbiter returns an arbiter in the Idle mode.
func NewArbiter() *Arbiter {
	return &Arbiter{}
}

// Current returns the mode holding the slot.
func (a *Arbiter) Current() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Is reports whether m holds the slot.
func (a *Arbiter) Is(m Mode) bool {
	return a.Current() == m
}

// Acquire moves the slot to m. It succeeds from Idle or when m already holds
// the slot; otherwise it returns a *BusyError and leaves the state unchanged.
func (a *Arbiter) Acquire(m Mode) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != Idle && a.current != m {
		return &BusyError{Requested: m, Holder: a.current}
	}
	if a.current != m {
		debug.Live("Mode: %s -> %s", a.current, m)
	}
	a.current = m
	return nil
}

// Release returns the slot to Idle if m holds it, and reports whether it did.
func (a *Arbiter) Release(m Mode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if m == Idle || a.current != m {
		return false
	}
	debug.Live("Mode: %s -> %s", a.current, Idle)
	a.current = Idle
	return true
}
