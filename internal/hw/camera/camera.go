package camera

import (
	"math"

	"github.com/cjeanneret/FloatCam/internal/debug"
	"github.com/cjeanneret/FloatCam/internal/logic/geometry"
)

// zoomDeadZone ignores tiny zoom axis values (stick drift).
const zoomDeadZone = 0.01

// RigConfig describes the virtual camera optics and limits.
type RigConfig struct {
	Pose         geometry.Pose
	FOVDeg       float64 // initial vertical field of view
	MinFOVDeg    float64
	MaxFOVDeg    float64
	ZoomSpeedDeg float64 // FOV change per second at full zoom input
	Near         float64
	Far          float64
	Aspect       float64 // width/height of the render surface
}

// Rig is the floating virtual camera: a pose and a zoomable lens.
type Rig struct {
	cfg  RigConfig
	pose geometry.Pose
	fov  float64
}

// NewRig creates a camera rig; the initial FOV is clamped to the zoom limits.
func NewRig(cfg RigConfig) *Rig {
	return &Rig{
		cfg:  cfg,
		pose: cfg.Pose,
		fov:  geometry.ClampFOV(cfg.FOVDeg, cfg.MinFOVDeg, cfg.MaxFOVDeg),
	}
}

// Pose returns the current camera pose.
func (r *Rig) Pose() geometry.Pose { return r.pose }

// SetPose moves the camera (the rig follows the user's hand in world space).
func (r *Rig) SetPose(p geometry.Pose) { r.pose = p }

// FOV returns the current vertical field of view in degrees.
func (r *Rig) FOV() float64 { return r.fov }

// Aspect returns the width/height ratio of the rendered view.
func (r *Rig) Aspect() float64 { return r.cfg.Aspect }

// Zoom applies one frame of zoom input: positive input narrows the view.
// Returns the new field of view.
func (r *Rig) Zoom(input, dtSeconds float64) float64 {
	if math.Abs(input) <= zoomDeadZone {
		return r.fov
	}
	r.fov = geometry.ClampFOV(r.fov-input*r.cfg.ZoomSpeedDeg*dtSeconds, r.cfg.MinFOVDeg, r.cfg.MaxFOVDeg)
	debug.Trace("Camera: zoom input=%.2f fov=%.2f", input, r.fov)
	return r.fov
}

// Frustum returns the current view volume.
func (r *Rig) Frustum() (*geometry.Frustum, error) {
	return geometry.NewFrustum(r.pose, r.fov, r.cfg.Aspect, r.cfg.Near, r.cfg.Far)
}
