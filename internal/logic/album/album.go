package album

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"slices"
	"time"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"go.uber.org/multierr"

	"github.com/cjeanneret/FloatCam/internal/debug"
	"github.com/cjeanneret/FloatCam/internal/hw/input"
	"github.com/cjeanneret/FloatCam/internal/logic/message"
	"github.com/cjeanneret/FloatCam/internal/logic/mode"
	"github.com/cjeanneret/FloatCam/internal/photostore"
)

// Placeholder texts and the rejection message.
const (
	NoPhotos        = "(No photos)"
	NoDescription   = "(No description)"
	Unreadable      = "(Unreadable photo)"
	MsgCameraActive = "Shutdown camera to turn on album"
)

// Texture is a decoded photo handed to the display. It must be released
// when replaced; nothing reclaims it otherwise.
type Texture struct {
	Path  string
	Image image.Image

	released bool
}

// Release drops the decoded pixels.
func (t *Texture) Release() {
	t.Image = nil
	t.released = true
}

// Released reports whether Release was called.
func (t *Texture) Released() bool {
	return t.released
}

// Display is the album surface: a photo quad and a description text.
type Display interface {
	SetVisible(visible bool)
	// SetTexture shows t; nil clears the quad.
	SetTexture(t *Texture)
	SetDescription(text string)
}

// Billboard is implemented by displays whose description must turn to
// face the viewer every frame.
type Billboard interface {
	FaceViewer()
}

// Config holds the paging parameters.
type Config struct {
	Cooldown     time.Duration // minimum time between two accepted page changes
	Threshold    float64       // stick deflection that pages
	TextureMaxPx int           // decoded photos larger than this are scaled down (0 = no limit)
}

// Service is a navigable view over the photos in a store. Its index is a
// disposable copy of the directory listing.
type Service struct {
	store    photostore.Store
	arbiter  *mode.Arbiter
	input    input.Driver
	display  Display
	notifier message.Notifier
	cfg      Config

	paths    []string
	current  int
	texture  *Texture
	lastPage time.Time

	unbind []func()
}

// New creates a closed album.
func New(store photostore.Store, arbiter *mode.Arbiter, in input.Driver, display Display, notifier message.Notifier, cfg Config) *Service {
	return &Service{
		store:    store,
		arbiter:  arbiter,
		input:    in,
		display:  display,
		notifier: notifier,
		cfg:      cfg,
	}
}

// Activate binds the album actions. Calling it again while active does
// not register the handlers twice.
func (s *Service) Activate() {
	if s.unbind != nil {
		return
	}
	s.unbind = []func(){
		s.input.Bind(input.ToggleAlbum, func() {
			if err := s.Toggle(); err != nil {
				debug.Error(err)
			}
		}),
		s.input.Bind(input.DeletePhoto, func() {
			if !s.IsOpen() {
				debug.Live("Album: delete ignored, album is closed")
				return
			}
			if err := s.DeleteCurrentPhoto(); err != nil {
				debug.Error(err)
			}
		}),
	}
}

// Deactivate removes every binding made by Activate.
func (s *Service) Deactivate() {
	for _, u := range s.unbind {
		u()
	}
	s.unbind = nil
}

// IsOpen reports whether the album holds the active-feature slot.
func (s *Service) IsOpen() bool {
	return s.arbiter.Is(mode.AlbumOpen)
}

// Toggle opens or closes the album. Opening rebuilds the index from disk;
// opening while the camera is active is refused with a message.
func (s *Service) Toggle() error {
	if s.IsOpen() {
		s.arbiter.Release(mode.AlbumOpen)
		s.display.SetVisible(false)
		debug.Info("Album closed")
		return nil
	}
	if err := s.arbiter.Acquire(mode.AlbumOpen); err != nil {
		var busy *mode.BusyError
		if errors.As(err, &busy) && busy.Holder == mode.CameraActive {
			s.notifier.Notify(MsgCameraActive)
		}
		debug.Live("Album: %v", err)
		return nil
	}
	s.display.SetVisible(true)
	debug.Info("Album opened")
	return s.RefreshAlbumList()
}

// RefreshAlbumList rebuilds the index from the storage root and shows the
// first photo, or the placeholder when there is none.
func (s *Service) RefreshAlbumList() error {
	paths, err := s.store.List()
	if err != nil {
		return fmt.Errorf("refresh album: %w", err)
	}
	s.paths = paths
	s.current = 0
	debug.Verbose("Album: %d photos in %s", len(paths), s.store.Root)

	if len(s.paths) > 0 {
		return s.ShowPhoto(0)
	}
	s.setTexture(nil)
	s.display.SetDescription(NoPhotos)
	return nil
}

// ShowPhoto shows the photo at index, wrapped into range in both
// directions. It does nothing when the album is empty or the image file
// has disappeared since the last refresh. A photo that cannot be read or
// decoded still becomes current, shown as an empty quad with the Unreadable
// text, so it can be paged past and deleted; the error is returned for
// logging only.
func (s *Service) ShowPhoto(index int) error {
	n := len(s.paths)
	if n == 0 {
		return nil
	}
	index = ((index % n) + n) % n
	path := s.paths[index]

	if !photostore.Exists(path) {
		debug.Verbose("Album: %s no longer exists", path)
		return nil
	}
	data, err := s.store.ReadImage(path)
	if err != nil {
		s.showUnreadable(index, path)
		return fmt.Errorf("read photo %s: %w", path, err)
	}
	img, err := s.decode(data)
	if err != nil {
		s.showUnreadable(index, path)
		return fmt.Errorf("decode photo %s: %w", path, err)
	}
	text, ok, err := s.store.ReadDescription(path)
	if err != nil {
		return fmt.Errorf("read description of %s: %w", path, err)
	}
	if !ok {
		text = NoDescription
	}

	s.setTexture(&Texture{Path: path, Image: img})
	s.display.SetDescription(text)
	s.current = index
	s.logPage(index, path)
	return nil
}

func (s *Service) showUnreadable(index int, path string) {
	s.setTexture(nil)
	s.display.SetDescription(Unreadable)
	s.current = index
	s.logPage(index, path)
}

func (s *Service) logPage(index int, path string) {
	at, err := photostore.CapturedAt(path)
	if err != nil {
		debug.Verbose("Album: %v", err)
	}
	debug.Page(index, len(s.paths), path, at)
}

// DeleteCurrentPhoto removes the shown photo and its description, then
// rebuilds the index.
func (s *Service) DeleteCurrentPhoto() error {
	if len(s.paths) == 0 {
		return nil
	}
	path := s.paths[s.current]
	rmErr := s.store.Remove(path)
	debug.Info("Deleted photo: %s", filepath.Base(path))
	return multierr.Combine(rmErr, s.RefreshAlbumList())
}

// AddNewPhoto inserts path into the index if needed and shows it.
func (s *Service) AddNewPhoto(path string) error {
	if !slices.Contains(s.paths, path) {
		s.paths = append(s.paths, path)
		slices.Sort(s.paths)
	}
	return s.ShowPhoto(slices.Index(s.paths, path))
}

// Tick pages with the stick while the album is open. A page change is
// accepted at most once per cooldown, measured from the last accepted one.
func (s *Service) Tick(now time.Time) error {
	if !s.IsOpen() {
		return nil
	}
	if b, ok := s.display.(Billboard); ok {
		b.FaceViewer()
	}
	if len(s.paths) == 0 {
		return nil
	}
	if now.Sub(s.lastPage) < s.cfg.Cooldown {
		return nil
	}

	x := s.input.Stick().X
	switch {
	case x >= s.cfg.Threshold:
		s.lastPage = now
		return s.ShowPhoto(s.current + 1)
	case x <= -s.cfg.Threshold:
		s.lastPage = now
		return s.ShowPhoto(s.current - 1)
	}
	return nil
}

// Paths returns a copy of the index.
func (s *Service) Paths() []string {
	return slices.Clone(s.paths)
}

// Current returns the shown position and path; ok is false when empty.
func (s *Service) Current() (index int, path string, ok bool) {
	if len(s.paths) == 0 {
		return 0, "", false
	}
	return s.current, s.paths[s.current], true
}

// Texture returns the texture on display, if any.
func (s *Service) Texture() *Texture {
	return s.texture
}

func (s *Service) setTexture(t *Texture) {
	if s.texture != nil {
		s.texture.Release()
	}
	s.texture = t
	s.display.SetTexture(t)
}

func (s *Service) decode(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	limit := s.cfg.TextureMaxPx
	if b := img.Bounds(); limit > 0 && (b.Dx() > limit || b.Dy() > limit) {
		img = resize.Thumbnail(uint(limit), uint(limit), img, resize.Lanczos3)
	}
	return img, nil
}
