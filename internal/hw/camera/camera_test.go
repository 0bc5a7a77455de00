package camera

import (
	"errors"
	"image/color"
	"math"
	"testing"

	"github.com/cjeanneret/FloatCam/internal/logic/geometry"
	"github.com/cjeanneret/FloatCam/internal/scene"
)

func newTestRig() *Rig {
	return NewRig(RigConfig{
		FOVDeg:       60,
		MinFOVDeg:    20,
		MaxFOVDeg:    80,
		ZoomSpeedDeg: 30,
		Near:         0.3,
		Far:          1000,
		Aspect:       1,
	})
}

func TestNewRig_ClampsInitialFOV(t *testing.T) {
	r := NewRig(RigConfig{FOVDeg: 120, MinFOVDeg: 20, MaxFOVDeg: 80})
	if r.FOV() != 80 {
		t.Errorf("FOV() = %v, want 80", r.FOV())
	}
}

func TestRig_Zoom(t *testing.T) {
	cases := []struct {
		name  string
		input float64
		dt    float64
		want  float64
	}{
		{"zoom_in_one_second", 1, 1, 30},
		{"zoom_out_half_second", -1, 0.5, 75},
		{"half_input", 0.5, 1, 45},
		{"dead_zone", 0.005, 10, 60},
		{"clamped_min", 1, 10, 20},
		{"clamped_max", -1, 10, 80},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRig()
			if got := r.Zoom(tc.input, tc.dt); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Zoom(%v, %v) = %v, want %v", tc.input, tc.dt, got, tc.want)
			}
			if r.FOV() != r.Zoom(0, 1) {
				t.Error("FOV() should report the zoomed value")
			}
		})
	}
}

func TestRig_FrustumFollowsZoom(t *testing.T) {
	r := newTestRig()
	// At depth 10 a 60 deg view spans +-5.77; a 20 deg view spans +-1.76.
	box := geometry.BoxAround(geometry.Vec3{X: 4, Z: 10}, geometry.Vec3{X: 0.5, Y: 0.5, Z: 0.5})

	fr, err := r.Frustum()
	if err != nil {
		t.Fatalf("Frustum: %v", err)
	}
	if !fr.IntersectsAABB(box) {
		t.Fatal("box should be visible at 60 deg")
	}

	r.Zoom(1, 10)
	fr, _ = r.Frustum()
	if fr.IntersectsAABB(box) {
		t.Error("box should leave the view after zooming in to 20 deg")
	}
}

func TestRig_SetPose(t *testing.T) {
	r := newTestRig()
	p := geometry.Pose{Position: geometry.Vec3{X: 1, Y: 2, Z: 3}, YawDeg: 45}
	r.SetPose(p)
	if r.Pose() != p {
		t.Errorf("Pose() = %+v, want %+v", r.Pose(), p)
	}
}

func TestSoftwareSurface_Dimensions(t *testing.T) {
	s := NewSoftwareSurface(64, 32, newTestRig(), scene.NewRegistry())
	img, err := s.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 32 {
		t.Errorf("size = %v, want 64x32", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got != skyTop {
		t.Errorf("top-left = %v, want sky top %v", got, skyTop)
	}
	if got := img.RGBAAt(0, 31); got != skyBottom {
		t.Errorf("bottom-left = %v, want sky bottom %v", got, skyBottom)
	}
}

func TestSoftwareSurface_DrawsVisibleObjects(t *testing.T) {
	reg := scene.NewRegistry(
		scene.Object{Name: "Moon", Tags: []string{"Moon"}, Bounds: geometry.BoxAround(geometry.Vec3{Z: 10}, geometry.Vec3{X: 2, Y: 2, Z: 2})},
		scene.Object{Name: "Hidden", Bounds: geometry.BoxAround(geometry.Vec3{Z: -10}, geometry.Vec3{X: 2, Y: 2, Z: 2})},
	)
	s := NewSoftwareSurface(64, 64, newTestRig(), reg)
	img, err := s.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if got := img.RGBAAt(32, 32); got != objectColor("Moon") {
		t.Errorf("center pixel = %v, want Moon color %v", got, objectColor("Moon"))
	}
	if got := img.RGBAAt(0, 0); got != skyTop {
		t.Errorf("corner pixel = %v, want background", got)
	}
}

func TestSoftwareSurface_InvalidSize(t *testing.T) {
	s := NewSoftwareSurface(0, 10, newTestRig(), scene.NewRegistry())
	if _, err := s.ReadPixels(); !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("err = %v, want ErrInvalidSurface", err)
	}
}

func TestObjectColor_StableAndOpaque(t *testing.T) {
	a, b := objectColor("Shark"), objectColor("Shark")
	if a != b {
		t.Error("objectColor should be deterministic")
	}
	if a.A != 255 {
		t.Errorf("alpha = %d, want 255", a.A)
	}
	if objectColor("Shark") == (color.RGBA{}) {
		t.Error("objectColor should not be zero")
	}
}

func TestSoftwareSurface_ImplementsSurface(t *testing.T) {
	var _ Surface = &SoftwareSurface{} // compile-time check
}
