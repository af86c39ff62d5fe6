package module

import (
	"math"
	"testing"

	"github.com/chazu/interlock/pkg/kernel"
	"github.com/chazu/interlock/pkg/kernel/sdfx"
	"github.com/chazu/interlock/pkg/part"
)

// testCells keeps marching cubes fast while resolving 4 mm features.
const testCells = 64

// countingKernel wraps a kernel and counts every call made through it.
type countingKernel struct {
	kernel.Kernel
	calls    int
	booleans int
}

func newCountingKernel() *countingKernel {
	return &countingKernel{Kernel: sdfx.NewWithCells(testCells)}
}

func (c *countingKernel) Box(x, y, z float64) kernel.Solid {
	c.calls++
	return c.Kernel.Box(x, y, z)
}

func (c *countingKernel) Cylinder(h, r float64, seg int) kernel.Solid {
	c.calls++
	return c.Kernel.Cylinder(h, r, seg)
}

func (c *countingKernel) Union(a, b kernel.Solid) kernel.Solid {
	c.calls++
	c.booleans++
	return c.Kernel.Union(a, b)
}

func (c *countingKernel) Difference(a, b kernel.Solid) kernel.Solid {
	c.calls++
	c.booleans++
	return c.Kernel.Difference(a, b)
}

func (c *countingKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	c.calls++
	c.booleans++
	return c.Kernel.Intersection(a, b)
}

func (c *countingKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	c.calls++
	return c.Kernel.Translate(s, x, y, z)
}

// meshVolume tessellates s and returns its enclosed volume.
func meshVolume(t *testing.T, k kernel.Kernel, s kernel.Solid) float64 {
	t.Helper()
	m, err := k.ToMesh(s)
	if err != nil {
		t.Fatalf("ToMesh: %v", err)
	}
	if m.TriangleCount() == 0 {
		t.Fatal("empty mesh")
	}
	return m.Volume()
}

func within(got, want, frac float64) bool {
	return math.Abs(got-want) <= frac*math.Abs(want)
}

func socket(d, depth float64) part.SocketSpec {
	return part.SocketSpec{Diameter: d, Depth: depth}
}

func wantKind(t *testing.T, err error, kind part.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := part.KindOf(err); got != kind {
		t.Fatalf("error kind = %s, want %s (%v)", got, kind, err)
	}
}
