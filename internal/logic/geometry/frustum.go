package geometry

import (
	"fmt"
	"math"
)

// Plane is the set of points p with Normal·p + D = 0. Points with a positive
// distance lie on the side the normal points to.
type Plane struct {
	Normal Vec3
	D      float64
}

// planeThrough builds a plane with the given normal that contains point.
func planeThrough(normal, point Vec3) Plane {
	n := normal.Normalize()
	return Plane{Normal: n, D: -n.Dot(point)}
}

// Distance returns the signed distance from p to the plane.
func (pl Plane) Distance(p Vec3) float64 {
	return pl.Normal.Dot(p) + pl.D
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// BoxAround returns the AABB of the given center and full size.
func BoxAround(center, size Vec3) AABB {
	half := size.Scale(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Center returns the middle of the box.
func (b AABB) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Corners returns the eight box corners.
func (b AABB) Corners() [8]Vec3 {
	return [8]Vec3{
		{b.Min.X, b.Min.Y, b.Min.Z},
		{b.Max.X, b.Min.Y, b.Min.Z},
		{b.Min.X, b.Max.Y, b.Min.Z},
		{b.Max.X, b.Max.Y, b.Min.Z},
		{b.Min.X, b.Min.Y, b.Max.Z},
		{b.Max.X, b.Min.Y, b.Max.Z},
		{b.Min.X, b.Max.Y, b.Max.Z},
		{b.Max.X, b.Max.Y, b.Max.Z},
	}
}

// positiveVertex returns the corner furthest along n.
func (b AABB) positiveVertex(n Vec3) Vec3 {
	v := b.Min
	if n.X >= 0 {
		v.X = b.Max.X
	}
	if n.Y >= 0 {
		v.Y = b.Max.Y
	}
	if n.Z >= 0 {
		v.Z = b.Max.Z
	}
	return v
}

// Plane indices in Frustum.Planes.
const (
	PlaneLeft = iota
	PlaneRight
	PlaneBottom
	PlaneTop
	PlaneNear
	PlaneFar
)

// Frustum is a perspective view volume bounded by six inward-facing planes.
type Frustum struct {
	Planes [6]Plane

	pose           Pose
	forward, right Vec3
	up             Vec3
	tanHalfV       float64
	tanHalfH       float64
	near, far      float64
}

// NewFrustum builds the view volume of a camera with the given pose,
// vertical field of view (degrees), width/height aspect and clip distances.
func NewFrustum(pose Pose, fovDeg, aspect, near, far float64) (*Frustum, error) {
	if fovDeg <= 0 || fovDeg >= 180 {
		return nil, fmt.Errorf("field of view must be in (0, 180), got %.2f", fovDeg)
	}
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		return nil, fmt.Errorf("aspect must be > 0, got %.2f", aspect)
	}
	if near <= 0 || far <= near {
		return nil, fmt.Errorf("clip range must satisfy 0 < near < far, got [%.2f, %.2f]", near, far)
	}

	f, r, u := pose.Basis()
	tv := math.Tan(radians(fovDeg) / 2)
	th := tv * aspect
	pos := pose.Position

	fr := &Frustum{
		pose:     pose,
		forward:  f,
		right:    r,
		up:       u,
		tanHalfV: tv,
		tanHalfH: th,
		near:     near,
		far:      far,
	}
	fr.Planes[PlaneLeft] = planeThrough(f.Scale(th).Add(r), pos)
	fr.Planes[PlaneRight] = planeThrough(f.Scale(th).Sub(r), pos)
	fr.Planes[PlaneBottom] = planeThrough(f.Scale(tv).Add(u), pos)
	fr.Planes[PlaneTop] = planeThrough(f.Scale(tv).Sub(u), pos)
	fr.Planes[PlaneNear] = planeThrough(f, pos.Add(f.Scale(near)))
	fr.Planes[PlaneFar] = planeThrough(f.Scale(-1), pos.Add(f.Scale(far)))
	return fr, nil
}

// IntersectsAABB reports whether the box is inside or crosses the frustum.
// The box is rejected only when it lies entirely behind one of the planes,
// so boxes near a frustum corner may be reported as visible.
func (fr *Frustum) IntersectsAABB(b AABB) bool {
	for _, pl := range fr.Planes {
		if pl.Distance(b.positiveVertex(pl.Normal)) < 0 {
			return false
		}
	}
	return true
}

// Project maps p to normalized device coordinates in [-1, 1] (x right,
// y up) and returns its depth along the view direction. ok is false
// when p is at or behind the near plane.
func (fr *Frustum) Project(p Vec3) (x, y, depth float64, ok bool) {
	rel := p.Sub(fr.pose.Position)
	depth = rel.Dot(fr.forward)
	if depth < fr.near {
		return 0, 0, depth, false
	}
	x = rel.Dot(fr.right) / (depth * fr.tanHalfH)
	y = rel.Dot(fr.up) / (depth * fr.tanHalfV)
	return x, y, depth, true
}
