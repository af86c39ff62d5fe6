// Package kernel defines the abstract geometry kernel interface.
// Implementations provide solid modeling and boolean operations behind
// this interface, so module construction never depends on a specific
// backend.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation. Solids are
// immutable: every operation returns a new handle.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
//
// Frame conventions: Box and Cylinder are centered at the origin and
// cylinders run along Z. Callers position them with Translate.
type Kernel interface {
	// Primitives
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
