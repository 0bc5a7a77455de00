package web

import (
	"bytes"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/cjeanneret/FloatCam/internal/debug"
	"github.com/cjeanneret/FloatCam/internal/logic/album"
)

// AlbumState is the album view as served on GET /album.
type AlbumState struct {
	Open           bool   `json:"open"`
	Description    string `json:"description"`
	HasImage       bool   `json:"has_image"`
	Photo          string `json:"photo,omitempty"`
	Message        string `json:"message"`
	MessageVisible bool   `json:"message_visible"`
	Mode           string `json:"mode"`
}

// Screen mirrors the album display and the message line for remote
// clients. The tick loop writes it; HTTP handlers read it.
type Screen struct {
	events *StatusBroadcaster

	mu             sync.RWMutex
	visible        bool
	image          []byte
	photo          string
	description    string
	message        string
	messageVisible bool
}

// NewScreen creates a screen publishing changes to events (may be nil).
func NewScreen(events *StatusBroadcaster) *Screen {
	return &Screen{events: events}
}

// SetVisible shows or hides the album.
func (s *Screen) SetVisible(visible bool) {
	s.mu.Lock()
	s.visible = visible
	s.mu.Unlock()
	if visible {
		s.publish(KindAlbum, "opened")
	} else {
		s.publish(KindAlbum, "closed")
	}
}

// SetTexture keeps a PNG copy of t for GET /album/image; nil clears it.
func (s *Screen) SetTexture(t *album.Texture) {
	var (
		data []byte
		name string
	)
	if t != nil && t.Image != nil {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, t.Image, imaging.PNG); err != nil {
			debug.Error(err)
		} else {
			data = buf.Bytes()
			name = filepath.Base(t.Path)
		}
	}

	s.mu.Lock()
	s.image = data
	s.photo = name
	s.mu.Unlock()
	s.publish(KindAlbum, name)
}

// SetDescription sets the text shown under the photo.
func (s *Screen) SetDescription(text string) {
	s.mu.Lock()
	s.description = text
	s.mu.Unlock()
}

// ShowMessage displays a transient message.
func (s *Screen) ShowMessage(text string) {
	s.mu.Lock()
	s.message = text
	s.messageVisible = true
	s.mu.Unlock()
	s.publish(KindMessage, text)
}

// HideMessage hides the message line.
func (s *Screen) HideMessage() {
	s.mu.Lock()
	s.messageVisible = false
	s.mu.Unlock()
}

// State returns a snapshot of the screen. Mode is left for the caller.
func (s *Screen) State() AlbumState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AlbumState{
		Open:           s.visible,
		Description:    s.description,
		HasImage:       len(s.image) > 0,
		Photo:          s.photo,
		Message:        s.message,
		MessageVisible: s.messageVisible,
	}
}

// Image returns the PNG of the photo on display.
func (s *Screen) Image() ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image, len(s.image) > 0
}

func (s *Screen) publish(kind, msg string) {
	if s.events != nil {
		s.events.Publish(kind, "", msg)
	}
}
