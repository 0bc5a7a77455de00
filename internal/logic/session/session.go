// Package session drives the camera, the album and the message toast from
// a single tick loop.
package session

import (
	"context"
	"time"

	"github.com/cjeanneret/FloatCam/internal/debug"
	"github.com/cjeanneret/FloatCam/internal/logic/album"
	"github.com/cjeanneret/FloatCam/internal/logic/capture"
	"github.com/cjeanneret/FloatCam/internal/logic/message"
)

// Poller delivers queued input actions to their handlers.
type Poller interface {
	Poll()
}

// Session owns the per-frame update order. All feature state is touched
// from the goroutine calling Tick; input producers only enqueue.
type Session struct {
	input   Poller
	capture *capture.Service
	camera  *capture.Controller
	album   *album.Service
	toast   *message.Toast

	started bool
	last    time.Time
	frames  uint64
}

// New wires the features together. New captures are added to the album.
func New(in Poller, svc *capture.Service, camera *capture.Controller, alb *album.Service, toast *message.Toast) *Session {
	s := &Session{
		input:   in,
		capture: svc,
		camera:  camera,
		album:   alb,
		toast:   toast,
	}
	svc.OnCaptured(func(path string) {
		if err := alb.AddNewPhoto(path); err != nil {
			debug.Error(err)
		}
	})
	return s
}

// Start binds the input actions, hides any message and loads the album
// index from disk.
func (s *Session) Start() error {
	if s.started {
		return nil
	}
	s.camera.Activate()
	s.album.Activate()
	s.toast.Hide()
	s.started = true
	debug.Section("Session")
	return s.album.RefreshAlbumList()
}

// Stop unbinds every input action.
func (s *Session) Stop() {
	if !s.started {
		return
	}
	s.camera.Deactivate()
	s.album.Deactivate()
	s.started = false
	debug.Summary("Session stopped")
	debug.Value("Frames", s.frames)
	debug.Value("Photos in album", len(s.album.Paths()))
}

// Tick advances one frame: queued actions first, then zoom, paging and
// message expiry. Errors are logged and never stop the loop.
func (s *Session) Tick(now time.Time) {
	var dt time.Duration
	if !s.last.IsZero() {
		dt = now.Sub(s.last)
	}
	s.last = now
	s.frames++

	s.input.Poll()
	s.camera.Tick(dt)
	if err := s.album.Tick(now); err != nil {
		debug.Error(err)
	}
	s.toast.Tick(now)
	if debug.IsEnabled(debug.LevelTrace) {
		debug.Trace("frame %d dt=%s", s.frames, dt)
	}
}

// Run starts the session and ticks it every interval until ctx is done.
func (s *Session) Run(ctx context.Context, interval time.Duration) error {
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			s.Tick(now)
		}
	}
}

// Frames returns the number of ticks processed.
func (s *Session) Frames() uint64 {
	return s.frames
}
