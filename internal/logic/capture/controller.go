package capture

import (
	"errors"
	"time"

	"github.com/cjeanneret/FloatCam/internal/debug"
	"github.com/cjeanneret/FloatCam/internal/hw/camera"
	"github.com/cjeanneret/FloatCam/internal/hw/input"
	"github.com/cjeanneret/FloatCam/internal/logic/message"
	"github.com/cjeanneret/FloatCam/internal/logic/mode"
)

// MsgAlbumOpen is shown when the camera is toggled while the album is open.
const MsgAlbumOpen = "Shutdown album to turn on camera"

// Controller binds the camera feature to user input: toggling the camera,
// taking photos and zooming.
type Controller struct {
	service  *Service
	rig      *camera.Rig
	arbiter  *mode.Arbiter
	input    input.Driver
	notifier message.Notifier
	now      func() time.Time

	unbind []func()
}

// NewController wires a capture service to an input driver. now supplies
// capture timestamps; nil means time.Now.
func NewController(svc *Service, in input.Driver, notifier message.Notifier, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{
		service:  svc,
		rig:      svc.rig,
		arbiter:  svc.arbiter,
		input:    in,
		notifier: notifier,
		now:      now,
	}
}

// Activate binds the camera actions. Calling it again while active does
// not register the handlers twice.
func (c *Controller) Activate() {
	if c.unbind != nil {
		return
	}
	c.unbind = []func(){
		c.input.Bind(input.ToggleCamera, c.ToggleCamera),
		c.input.Bind(input.TakePhoto, c.TakePhoto),
	}
}

// Deactivate removes every binding made by Activate.
func (c *Controller) Deactivate() {
	for _, u := range c.unbind {
		u()
	}
	c.unbind = nil
}

// Active reports whether the camera holds the active-feature slot.
func (c *Controller) Active() bool {
	return c.arbiter.Is(mode.CameraActive)
}

// ToggleCamera turns the camera on or off. Turning it on while the album
// is open is refused with a message and changes nothing.
func (c *Controller) ToggleCamera() {
	if c.Active() {
		c.arbiter.Release(mode.CameraActive)
		debug.Info("Camera off")
		return
	}
	if err := c.arbiter.Acquire(mode.CameraActive); err != nil {
		var busy *mode.BusyError
		if errors.As(err, &busy) && busy.Holder == mode.AlbumOpen {
			c.notifier.Notify(MsgAlbumOpen)
		}
		debug.Live("Camera: %v", err)
		return
	}
	debug.Info("Camera on (fov=%.1f)", c.rig.FOV())
}

// TakePhoto captures the current view. Failures abort the capture and
// are only logged.
func (c *Controller) TakePhoto() {
	if _, err := c.service.Capture(c.now()); err != nil {
		debug.Error(err)
	}
}

// Tick applies the zoom axis while the camera is active.
func (c *Controller) Tick(dt time.Duration) {
	if !c.Active() {
		return
	}
	c.rig.Zoom(c.input.Zoom(), dt.Seconds())
}
