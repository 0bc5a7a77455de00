package geometry

import "math"

// Vec3 is a point or direction in world space (left-handed, +Y up, +Z forward).
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector in the direction of v (zero stays zero).
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Pose is a camera position and orientation. Yaw rotates around +Y
// (0 looks down +Z, 90 looks down +X); positive pitch looks up.
type Pose struct {
	Position Vec3
	YawDeg   float64
	PitchDeg float64
}

// Basis returns the forward, right and up unit vectors of the pose.
func (p Pose) Basis() (forward, right, up Vec3) {
	yaw := p.YawDeg * math.Pi / 180
	pitch := p.PitchDeg * math.Pi / 180
	forward = Vec3{
		X: math.Cos(pitch) * math.Sin(yaw),
		Y: math.Sin(pitch),
		Z: math.Cos(pitch) * math.Cos(yaw),
	}
	right = Vec3{X: math.Cos(yaw), Y: 0, Z: -math.Sin(yaw)}
	up = forward.Cross(right)
	return forward, right, up
}
