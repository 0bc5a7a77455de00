package capture

import (
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/cjeanneret/FloatCam/internal/hw/camera"
	"github.com/cjeanneret/FloatCam/internal/logic/geometry"
	"github.com/cjeanneret/FloatCam/internal/logic/mode"
	"github.com/cjeanneret/FloatCam/internal/photostore"
	"github.com/cjeanneret/FloatCam/internal/scene"
)

// staticSurface returns a solid frame of a fixed size.
type staticSurface struct {
	w, h  int
	reads int
}

func (s *staticSurface) ReadPixels() (*image.RGBA, error) {
	s.reads++
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img, nil
}

// failingSurface simulates a render target that cannot be read back.
type failingSurface struct{}

func (failingSurface) ReadPixels() (*image.RGBA, error) {
	return nil, errors.New("render texture lost")
}

var captureTime = time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)

type fixture struct {
	arbiter *mode.Arbiter
	rig     *camera.Rig
	scene   *scene.Registry
	store   photostore.Store
	surface camera.Surface
	service *Service
}

func newFixture(t *testing.T, surface camera.Surface, objects ...scene.Object) *fixture {
	t.Helper()
	f := &fixture{
		arbiter: mode.NewArbiter(),
		rig: camera.NewRig(camera.RigConfig{
			FOVDeg: 60, MinFOVDeg: 20, MaxFOVDeg: 80, ZoomSpeedDeg: 30,
			Near: 0.3, Far: 1000, Aspect: 1,
		}),
		scene:   scene.NewRegistry(objects...),
		store:   photostore.New(t.TempDir()),
		surface: surface,
	}
	f.service = NewService(f.arbiter, f.rig, f.surface, f.scene, f.store)
	return f
}

func inView(name string, tags ...string) scene.Object {
	return scene.Object{
		Name:   name,
		Tags:   tags,
		Bounds: geometry.BoxAround(geometry.Vec3{Z: 10}, geometry.Vec3{X: 1, Y: 1, Z: 1}),
	}
}

func behind(name string, tags ...string) scene.Object {
	return scene.Object{
		Name:   name,
		Tags:   tags,
		Bounds: geometry.BoxAround(geometry.Vec3{Z: -10}, geometry.Vec3{X: 1, Y: 1, Z: 1}),
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestCapture_SingleTaggedObject(t *testing.T) {
	f := newFixture(t, &staticSurface{w: 16, h: 8}, inView("Bruce", "Fish", "Shark"))
	_ = f.arbiter.Acquire(mode.CameraActive)

	path, err := f.service.Capture(captureTime)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	wantPath := filepath.Join(f.store.Root, "photo_20240101_100000.png")
	if path != wantPath {
		t.Errorf("path = %q, want %q", path, wantPath)
	}
	if got := readFile(t, photostore.DescriptionPath(path)); got != "- Bruce (Types: Fish, Shark)" {
		t.Errorf("description = %q", got)
	}

	img, err := imaging.Open(path)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("image size = %v, want 16x8", img.Bounds())
	}
	r, g, b, _ := img.At(3, 3).RGBA()
	if r>>8 != 200 || g>>8 != 100 || b>>8 != 50 {
		t.Errorf("pixel = (%d, %d, %d), want lossless (200, 100, 50)", r>>8, g>>8, b>>8)
	}
}

func TestCapture_MultipleObjectsInSceneOrder(t *testing.T) {
	f := newFixture(t, &staticSurface{w: 4, h: 4},
		inView("Nemo", "Fish"),
		behind("Ghost", "Shark"),
		inView("Luna", "Moon"),
	)
	_ = f.arbiter.Acquire(mode.CameraActive)

	path, err := f.service.Capture(captureTime)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	want := "- Nemo (Types: Fish)\n- Luna (Types: Moon)"
	if got := readFile(t, photostore.DescriptionPath(path)); got != want {
		t.Errorf("description = %q, want %q", got, want)
	}
}

func TestCapture_NoDetections(t *testing.T) {
	f := newFixture(t, &staticSurface{w: 4, h: 4}, behind("Ghost", "Shark"))
	_ = f.arbiter.Acquire(mode.CameraActive)

	path, err := f.service.Capture(captureTime)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if got := readFile(t, photostore.DescriptionPath(path)); got != NoDetections {
		t.Errorf("description = %q, want %q", got, NoDetections)
	}
}

func TestCapture_NoopWhenCameraInactive(t *testing.T) {
	for _, m := range []mode.Mode{mode.Idle, mode.AlbumOpen} {
		t.Run(m.String(), func(t *testing.T) {
			surface := &staticSurface{w: 4, h: 4}
			f := newFixture(t, surface, inView("Nemo", "Fish"))
			_ = f.arbiter.Acquire(m)

			path, err := f.service.Capture(captureTime)
			if err != nil || path != "" {
				t.Errorf("Capture = %q, %v; want no-op", path, err)
			}
			if surface.reads != 0 {
				t.Error("surface should not be read while inactive")
			}
			if paths, _ := f.store.List(); len(paths) != 0 {
				t.Errorf("files written while inactive: %v", paths)
			}
		})
	}
}

func TestCapture_ReadbackFailureWritesNothing(t *testing.T) {
	f := newFixture(t, failingSurface{}, inView("Nemo", "Fish"))
	_ = f.arbiter.Acquire(mode.CameraActive)

	if _, err := f.service.Capture(captureTime); err == nil {
		t.Fatal("expected error from failing surface")
	}
	entries, _ := os.ReadDir(f.store.Root)
	if len(entries) != 0 {
		t.Errorf("storage root holds %d entries, want 0", len(entries))
	}
}

func TestCapture_SameSecondOverwrites(t *testing.T) {
	f := newFixture(t, &staticSurface{w: 4, h: 4}, inView("Nemo", "Fish"))
	_ = f.arbiter.Acquire(mode.CameraActive)

	first, _ := f.service.Capture(captureTime)
	f.scene.Remove("Nemo")
	second, err := f.service.Capture(captureTime.Add(500 * time.Millisecond))
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	if paths, _ := f.store.List(); len(paths) != 1 {
		t.Errorf("List = %v, want a single photo", paths)
	}
	if got := readFile(t, photostore.DescriptionPath(second)); got != NoDetections {
		t.Errorf("description = %q, want the second capture's", got)
	}
}

func TestCapture_NotifiesObservers(t *testing.T) {
	f := newFixture(t, &staticSurface{w: 4, h: 4})
	_ = f.arbiter.Acquire(mode.CameraActive)

	var seen []string
	f.service.OnCaptured(func(p string) { seen = append(seen, p) })

	path, _ := f.service.Capture(captureTime)
	if len(seen) != 1 || seen[0] != path {
		t.Errorf("observer saw %v, want [%s]", seen, path)
	}
}

func TestCapture_ZoomNarrowsDetections(t *testing.T) {
	edge := scene.Object{
		Name:   "Reef",
		Tags:   []string{"Fish"},
		Bounds: geometry.BoxAround(geometry.Vec3{X: 4, Z: 10}, geometry.Vec3{X: 0.5, Y: 0.5, Z: 0.5}),
	}
	f := newFixture(t, &staticSurface{w: 4, h: 4}, edge)
	_ = f.arbiter.Acquire(mode.CameraActive)
	f.rig.Zoom(1, 10) // 60 -> 20 deg

	path, _ := f.service.Capture(captureTime)
	if got := readFile(t, photostore.DescriptionPath(path)); got != NoDetections {
		t.Errorf("description = %q, want object outside zoomed view", got)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		name    string
		objects []scene.Object
		want    string
	}{
		{"none", nil, NoDetections},
		{"one_tag", []scene.Object{{Name: "Nemo", Tags: []string{"Fish"}}}, "- Nemo (Types: Fish)"},
		{"no_tags", []scene.Object{{Name: "Rock"}}, "- Rock (Types: )"},
		{
			"two_objects",
			[]scene.Object{{Name: "A", Tags: []string{"Fish", "Shark"}}, {Name: "B", Tags: []string{"Moon"}}},
			"- A (Types: Fish, Shark)\n- B (Types: Moon)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Describe(tc.objects); got != tc.want {
				t.Errorf("Describe = %q, want %q", got, tc.want)
			}
		})
	}
}
