package input

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/cjeanneret/FloatCam/internal/debug"
)

// Action is a discrete trigger event (a controller button).
type Action string

const (
	ToggleAlbum  Action = "toggle_album"
	ToggleCamera Action = "toggle_camera"
	TakePhoto    Action = "take_photo"
	DeletePhoto  Action = "delete_photo"
)

// Actions lists every known action.
var Actions = []Action{ToggleAlbum, ToggleCamera, TakePhoto, DeletePhoto}

// ParseAction validates s as a known action name.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Axis is a two-axis directional value, each component in [-1, 1].
type Axis struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ValidateAxis checks a stick reading: both components finite and in [-1, 1].
func ValidateAxis(a Axis) error {
	if err := validateUnit("x", a.X); err != nil {
		return err
	}
	return validateUnit("y", a.Y)
}

// ValidateZoom checks a zoom reading: finite and in [-1, 1].
func ValidateZoom(v float64) error {
	return validateUnit("zoom", v)
}

func validateUnit(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < -1 || v > 1 {
		return fmt.Errorf("%s must be between -1 and 1, got %g", name, v)
	}
	return nil
}

// Handler is called on the tick goroutine when its action fires.
type Handler func()

// Driver defines the abstract input-polling capability.
// Continuous values are sampled each tick; actions are delivered to
// bound handlers during Poll.
type Driver interface {
	Stick() Axis
	Zoom() float64
	// Bind registers h for a; the returned function removes it again.
	Bind(a Action, h Handler) (unbind func())
	Poll()
}

// Queue is a Driver fed by producers on any goroutine (web handlers, tests)
// and drained on the tick goroutine.
type Queue struct {
	mu       sync.Mutex
	pending  []Action
	stick    Axis
	zoom     float64
	bindings map[Action]map[int]Handler
	nextID   int
}

// NewQueue creates an empty input queue.
func NewQueue() *Queue {
	return &Queue{bindings: make(map[Action]map[int]Handler)}
}

// Press queues an action for the next Poll.
func (q *Queue) Press(a Action) {
	debug.Trace("input: press %s", a)
	q.mu.Lock()
	q.pending = append(q.pending, a)
	q.mu.Unlock()
}

// SetStick sets the current stick deflection.
func (q *Queue) SetStick(v Axis) {
	debug.Trace("input: stick x=%.2f y=%.2f", v.X, v.Y)
	q.mu.Lock()
	q.stick = v
	q.mu.Unlock()
}

// SetZoom sets the current zoom axis value.
func (q *Queue) SetZoom(v float64) {
	debug.Trace("input: zoom %.2f", v)
	q.mu.Lock()
	q.zoom = v
	q.mu.Unlock()
}

func (q *Queue) Stick() Axis {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stick
}

func (q *Queue) Zoom() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.zoom
}

func (q *Queue) Bind(a Action, h Handler) func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.nextID
	q.nextID++
	if q.bindings[a] == nil {
		q.bindings[a] = make(map[int]Handler)
	}
	q.bindings[a][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			q.mu.Lock()
			delete(q.bindings[a], id)
			q.mu.Unlock()
		})
	}
}

// Bindings returns the number of handlers bound to a.
func (q *Queue) Bindings(a Action) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.bindings[a])
}

// Poll dispatches every queued action, in order, to its bound handlers.
// Handlers run without the lock held and may press further actions;
// those are delivered on the next Poll.
func (q *Queue) Poll() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()

	for _, a := range pending {
		q.mu.Lock()
		ids := make([]int, 0, len(q.bindings[a]))
		for id := range q.bindings[a] {
			ids = append(ids, id)
		}
		handlers := make([]Handler, 0, len(ids))
		slices.Sort(ids)
		for _, id := range ids {
			handlers = append(handlers, q.bindings[a][id])
		}
		q.mu.Unlock()

		if len(handlers) == 0 {
			debug.Trace("input: %s has no handler", a)
		}
		for _, h := range handlers {
			h()
		}
	}
}
