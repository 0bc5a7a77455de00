package message

import (
	"time"

	"github.com/cjeanneret/FloatCam/internal/debug"
)

// Sink displays or hides a transient message.
type Sink interface {
	ShowMessage(text string)
	HideMessage()
}

// Notifier is what features use to tell the user something.
type Notifier interface {
	Notify(text string)
}

// Toast shows one message at a time for a fixed duration. A new message
// replaces the current one and restarts the delay; deadlines never stack.
type Toast struct {
	sink     Sink
	duration time.Duration
	now      func() time.Time

	text     string
	visible  bool
	deadline time.Time
}

// NewToast creates a toast writing to sink. now is the clock the deadlines
// are measured with; nil means time.Now.
func NewToast(sink Sink, duration time.Duration, now func() time.Time) *Toast {
	if now == nil {
		now = time.Now
	}
	return &Toast{sink: sink, duration: duration, now: now}
}

// Notify shows text and schedules it to hide after the display duration,
// replacing any pending hide.
func (t *Toast) Notify(text string) {
	debug.Live("Message: %s", text)
	t.text = text
	t.visible = true
	t.deadline = t.now().Add(t.duration)
	t.sink.ShowMessage(text)
}

// Hide removes the message immediately and cancels the pending hide.
func (t *Toast) Hide() {
	t.visible = false
	t.deadline = time.Time{}
	t.sink.HideMessage()
}

// Tick hides the message once its deadline has passed.
func (t *Toast) Tick(now time.Time) {
	if t.visible && !now.Before(t.deadline) {
		t.Hide()
	}
}

// Visible reports whether a message is shown and returns its text.
func (t *Toast) Visible() (string, bool) {
	return t.text, t.visible
}

// Deadline returns when the current message hides (zero if none).
func (t *Toast) Deadline() time.Time {
	return t.deadline
}
