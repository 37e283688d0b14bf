package snapshot

import (
	"slices"

	"github.com/google/uuid"
)

// Shape is a primitive 3D geometry.
type Shape string

// Supported shapes.
const (
	ShapeCube     Shape = "cube"
	ShapeSphere   Shape = "sphere"
	ShapeCone     Shape = "cone"
	ShapeCylinder Shape = "cylinder"
)

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	switch s {
	case ShapeCube, ShapeSphere, ShapeCone, ShapeCylinder:
		return true
	}
	return false
}

// Vec3 is a point or scale in scene space.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Object is one mesh in the scene.
type Object struct {
	ID       uuid.UUID
	Shape    Shape
	Size     float64
	Position Vec3
	Rotation Vec3 // radians
	Scale    Vec3
	Color    string // #rrggbb
	Opacity  float64
}

// Scene is the state of a 3D scene.
type Scene struct {
	Objects []Object
	// Selected is uuid.Nil when nothing is selected.
	Selected uuid.UUID
}

// Find returns the index of the object with the given ID, or -1.
func (s Scene) Find(id uuid.UUID) int {
	return slices.IndexFunc(s.Objects, func(o Object) bool { return o.ID == id })
}

// SceneEqual reports whether two scenes hold identical objects and selection.
func SceneEqual(a, b Scene) bool {
	return a.Selected == b.Selected && slices.Equal(a.Objects, b.Objects)
}

// SceneClone returns a deep copy of s.
func SceneClone(s Scene) Scene {
	return Scene{
		Objects:  slices.Clone(s.Objects),
		Selected: s.Selected,
	}
}
