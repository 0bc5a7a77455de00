package capture

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/cjeanneret/FloatCam/internal/debug"
	"github.com/cjeanneret/FloatCam/internal/hw/camera"
	"github.com/cjeanneret/FloatCam/internal/logic/geometry"
	"github.com/cjeanneret/FloatCam/internal/logic/mode"
	"github.com/cjeanneret/FloatCam/internal/photostore"
	"github.com/cjeanneret/FloatCam/internal/scene"
)

// NoDetections is the description written when no tagged object is in view.
const NoDetections = "(No detectable objects)"

// Observer is notified with the image path of every completed capture.
type Observer func(imagePath string)

// Service turns the current camera view into a photo/description pair.
type Service struct {
	arbiter   *mode.Arbiter
	rig       *camera.Rig
	surface   camera.Surface
	scene     scene.Query
	store     photostore.Store
	observers []Observer
}

// NewService creates a capture service reading frames from surface and
// testing scene objects against rig's view.
func NewService(arbiter *mode.Arbiter, rig *camera.Rig, surface camera.Surface, q scene.Query, store photostore.Store) *Service {
	return &Service{
		arbiter: arbiter,
		rig:     rig,
		surface: surface,
		scene:   q,
		store:   store,
	}
}

// OnCaptured registers an observer called after each successful capture.
func (s *Service) OnCaptured(o Observer) {
	s.observers = append(s.observers, o)
}

// Capture writes photo_<now>.png and its .txt description. It is a no-op
// returning "" unless the camera holds the active-feature slot. A capture
// in the same second as a previous one overwrites it.
func (s *Service) Capture(now time.Time) (string, error) {
	if !s.arbiter.Is(mode.CameraActive) {
		debug.Verbose("Capture: camera is not active, ignoring")
		return "", nil
	}
	id := uuid.NewString()

	fr, err := s.rig.Frustum()
	if err != nil {
		return "", fmt.Errorf("capture %s: build frustum: %w", id, err)
	}

	img, err := s.surface.ReadPixels()
	if err != nil {
		return "", fmt.Errorf("capture %s: read back render surface: %w", id, err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return "", fmt.Errorf("capture %s: encode png: %w", id, err)
	}

	path := s.store.ImagePath(now)
	if err := s.store.WriteImage(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("capture %s: write image: %w", id, err)
	}
	debug.Infow("Photo saved", "capture_id", id, "path", path, "fov", s.rig.FOV())

	detected := Detect(fr, s.scene.Objects())
	if err := s.store.WriteDescription(path, Describe(detected)); err != nil {
		return "", fmt.Errorf("capture %s: write description: %w", id, err)
	}
	debug.Infow("Description saved", "capture_id", id, "path", photostore.DescriptionPath(path), "detections", len(detected))

	for _, o := range s.observers {
		o(path)
	}
	return path, nil
}

// Detect returns the objects whose bounds intersect the frustum, in scene order.
func Detect(fr *geometry.Frustum, objects []scene.Object) []scene.Object {
	var hits []scene.Object
	for _, o := range objects {
		if fr.IntersectsAABB(o.Bounds) {
			debug.Verbose("Capture: detected %s %v", o.Name, o.Tags)
			hits = append(hits, o)
		}
	}
	return hits
}

// DescribeObject formats one detection as "- <name> (Types: <tag1, tag2>)".
func DescribeObject(o scene.Object) string {
	return fmt.Sprintf("- %s (Types: %s)", o.Name, strings.Join(o.Tags, ", "))
}

// Describe joins the detections one per line, or returns NoDetections.
func Describe(objects []scene.Object) string {
	if len(objects) == 0 {
		return NoDetections
	}
	lines := make([]string, len(objects))
	for i, o := range objects {
		lines[i] = DescribeObject(o)
	}
	return strings.Join(lines, "\n")
}
