package camera

import (
	"errors"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sort"

	"github.com/cjeanneret/FloatCam/internal/scene"
)

// Surface is a render target whose current frame can be read back.
type Surface interface {
	// ReadPixels returns the current frame as an opaque RGB image.
	ReadPixels() (*image.RGBA, error)
}

// ErrInvalidSurface is returned when a surface has no pixels to read.
var ErrInvalidSurface = errors.New("camera: render surface has no pixels")

// SoftwareSurface renders the scene seen by a rig: a vertical gradient
// background with every visible object drawn as its screen-space box.
type SoftwareSurface struct {
	width, height int
	rig           *Rig
	scene         scene.Query
}

// NewSoftwareSurface creates a width × height surface looking through rig.
func NewSoftwareSurface(width, height int, rig *Rig, q scene.Query) *SoftwareSurface {
	return &SoftwareSurface{width: width, height: height, rig: rig, scene: q}
}

var (
	skyTop    = color.RGBA{R: 40, G: 110, B: 170, A: 255}
	skyBottom = color.RGBA{R: 8, G: 30, B: 60, A: 255}
)

// ReadPixels renders the current view.
func (s *SoftwareSurface) ReadPixels() (*image.RGBA, error) {
	if s.width <= 0 || s.height <= 0 {
		return nil, ErrInvalidSurface
	}
	fr, err := s.rig.Frustum()
	if err != nil {
		return nil, fmt.Errorf("camera: build frustum: %w", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, s.width, s.height))
	for y := 0; y < s.height; y++ {
		t := float64(y) / float64(max(s.height-1, 1))
		c := color.RGBA{
			R: lerp(skyTop.R, skyBottom.R, t),
			G: lerp(skyTop.G, skyBottom.G, t),
			B: lerp(skyTop.B, skyBottom.B, t),
			A: 255,
		}
		draw.Draw(img, image.Rect(0, y, s.width, y+1), &image.Uniform{C: c}, image.Point{}, draw.Src)
	}

	type box struct {
		rect  image.Rectangle
		depth float64
		fill  color.RGBA
	}
	var boxes []box
	for _, o := range s.scene.Objects() {
		if !fr.IntersectsAABB(o.Bounds) {
			continue
		}
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		nearest := math.Inf(1)
		projected := 0
		for _, c := range o.Bounds.Corners() {
			x, y, depth, ok := fr.Project(c)
			if !ok {
				continue
			}
			projected++
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
			nearest = math.Min(nearest, depth)
		}
		if projected == 0 {
			continue
		}
		r := image.Rect(
			s.toPixelX(minX), s.toPixelY(maxY),
			s.toPixelX(maxX), s.toPixelY(minY),
		).Intersect(img.Bounds())
		if r.Empty() {
			continue
		}
		boxes = append(boxes, box{rect: r, depth: nearest, fill: objectColor(o.Name)})
	}

	// Painter's order: far boxes first.
	sort.SliceStable(boxes, func(i, j int) bool { return boxes[i].depth > boxes[j].depth })
	for _, b := range boxes {
		draw.Draw(img, b.rect, &image.Uniform{C: b.fill}, image.Point{}, draw.Src)
	}
	return img, nil
}

func (s *SoftwareSurface) toPixelX(ndc float64) int {
	return int(math.Round((ndc + 1) / 2 * float64(s.width)))
}

func (s *SoftwareSurface) toPixelY(ndc float64) int {
	return int(math.Round((1 - ndc) / 2 * float64(s.height)))
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// objectColor derives a stable, bright color from an object name.
func objectColor(name string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	v := h.Sum32()
	return color.RGBA{
		R: uint8(128 + v&0x7f),
		G: uint8(128 + (v>>8)&0x7f),
		B: uint8(128 + (v>>16)&0x7f),
		A: 255,
	}
}
