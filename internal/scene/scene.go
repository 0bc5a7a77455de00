package scene

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/FloatCam/internal/logic/geometry"
)

// Object is a taggable scene entity: a name, a list of category labels
// (e.g. Fish, Shark, Moon) and the world-space bounds of its renderer.
type Object struct {
	Name   string
	Tags   []string
	Bounds geometry.AABB
}

// Query enumerates the taggable objects currently in the scene.
type Query interface {
	Objects() []Object
}

// Registry is an in-memory scene keeping objects in registration order.
type Registry struct {
	objects []Object
}

// NewRegistry creates a registry holding the given objects.
func NewRegistry(objects ...Object) *Registry {
	r := &Registry{}
	for _, o := range objects {
		r.Register(o)
	}
	return r
}

// Register adds an object to the scene.
func (r *Registry) Register(o Object) {
	r.objects = append(r.objects, o)
}

// Remove drops every object with the given name and reports whether any was found.
func (r *Registry) Remove(name string) bool {
	kept := r.objects[:0]
	for _, o := range r.objects {
		if o.Name != name {
			kept = append(kept, o)
		}
	}
	removed := len(kept) != len(r.objects)
	r.objects = kept
	return removed
}

// Objects returns a copy of the registered objects.
func (r *Registry) Objects() []Object {
	out := make([]Object, len(r.objects))
	copy(out, r.objects)
	return out
}

// fileObject is the YAML representation of one object.
type fileObject struct {
	Name   string   `yaml:"name"`
	Tags   []string `yaml:"tags"`
	Center vec3     `yaml:"center"`
	Size   vec3     `yaml:"size"`
}

type vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v vec3) toGeometry() geometry.Vec3 { return geometry.Vec3{X: v.X, Y: v.Y, Z: v.Z} }

type file struct {
	Objects []fileObject `yaml:"objects"`
}

// Load reads a YAML scene file:
//
//	objects:
//	  - name: Clownfish
//	    tags: [Fish]
//	    center: {x: 0, y: 1, z: 8}
//	    size: {x: 1, y: 1, z: 1}
//
// An object repeating an earlier name replaces it.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal scene yaml: %w", err)
	}

	r := NewRegistry()
	for i, fo := range f.Objects {
		name := strings.TrimSpace(fo.Name)
		if name == "" {
			return nil, fmt.Errorf("scene object %d: name is required", i)
		}
		if fo.Size.X < 0 || fo.Size.Y < 0 || fo.Size.Z < 0 {
			return nil, fmt.Errorf("scene object %q: size must be >= 0", name)
		}
		r.Remove(name)
		r.Register(Object{
			Name:   name,
			Tags:   fo.Tags,
			Bounds: geometry.BoxAround(fo.Center.toGeometry(), fo.Size.toGeometry()),
		})
	}
	return r, nil
}
