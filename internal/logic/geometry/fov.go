package geometry

import "math"

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// HorizontalFOV converts a vertical field of view (degrees) into the
// horizontal one for a surface of the given width/height aspect.
// Formula: FOV_h = 2 × arctan(tan(FOV_v / 2) × aspect)
func HorizontalFOV(verticalDeg, aspect float64) float64 {
	return degrees(2 * math.Atan(math.Tan(radians(verticalDeg)/2)*aspect))
}

// VerticalFOV is the inverse of HorizontalFOV.
// Formula: FOV_v = 2 × arctan(tan(FOV_h / 2) / aspect)
func VerticalFOV(horizontalDeg, aspect float64) float64 {
	return degrees(2 * math.Atan(math.Tan(radians(horizontalDeg)/2)/aspect))
}

// ClampFOV keeps fov within [min, max].
func ClampFOV(fov, min, max float64) float64 {
	return math.Min(math.Max(fov, min), max)
}
