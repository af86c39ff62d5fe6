package module

import (
	"math"
	"testing"

	"github.com/chazu/interlock/pkg/kernel/sdfx"
	"github.com/chazu/interlock/pkg/part"
)

func TestBuildBase(t *testing.T) {
	k := sdfx.NewWithCells(testCells)
	dims := part.Dimensions{X: 30, Y: 20, Z: 10}

	base, err := NewBuilder(k).BuildBase(dims, socket(5, 3))
	if err != nil {
		t.Fatalf("BuildBase: %v", err)
	}

	min, max := base.Solid.BoundingBox()
	wantMin, wantMax := [3]float64{-15, -10, 0}, [3]float64{15, 10, 10}
	for i := 0; i < 3; i++ {
		if math.Abs(min[i]-wantMin[i]) > 1e-9 || math.Abs(max[i]-wantMax[i]) > 1e-9 {
			t.Fatalf("bounding box = %v %v, want %v %v", min, max, wantMin, wantMax)
		}
	}

	want := dims.Volume() - math.Pi*2.5*2.5*3
	if math.Abs(base.Volume-want) > 1e-9 {
		t.Errorf("nominal volume = %f, want %f", base.Volume, want)
	}
	got := meshVolume(t, k, base.Solid)
	if got >= dims.Volume() {
		t.Errorf("mesh volume %f should be below the block volume %f", got, dims.Volume())
	}
	if !within(got, want, 0.02) {
		t.Errorf("mesh volume = %f, want about %f", got, want)
	}

	mount := base.MountFace()
	if mount.Name != "top" || mount.Centroid[2] != 10 {
		t.Errorf("mount face = %+v, want top at z=10", mount)
	}
	magnet, ok := base.Feature("magnet")
	if !ok {
		t.Fatal("base has no magnet feature")
	}
	if magnet.ZMin != 7 || magnet.ZMax != 10 || magnet.Center != [2]float64{0, 0} {
		t.Errorf("magnet = %+v", magnet)
	}
}

func TestBuildBaseRejectsBeforeKernel(t *testing.T) {
	tests := []struct {
		name   string
		dims   part.Dimensions
		magnet part.SocketSpec
		param  string
	}{
		{"depth equals height", part.Dimensions{X: 30, Y: 30, Z: 30}, socket(5, 30), "magnet.depth"},
		{"depth above height", part.Dimensions{X: 30, Y: 30, Z: 30}, socket(5, 31), "magnet.depth"},
		{"diameter too wide", part.Dimensions{X: 30, Y: 8, Z: 30}, socket(8, 3), "magnet.diameter"},
		{"zero width", part.Dimensions{X: 0, Y: 30, Z: 30}, socket(5, 3), "size_x"},
		{"negative depth", part.Dimensions{X: 30, Y: 30, Z: 30}, socket(5, -1), "magnet.depth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := newCountingKernel()
			_, err := NewBuilder(k).BuildBase(tt.dims, tt.magnet)
			wantKind(t, err, part.KindInvalidDimension)
			if pe := err.(*part.Error); pe.Param != tt.param {
				t.Errorf("param = %s, want %s", pe.Param, tt.param)
			}
			if k.calls != 0 {
				t.Errorf("kernel called %d times before validation failed", k.calls)
			}
		})
	}
}

func TestBuildBaseIdempotent(t *testing.T) {
	k := sdfx.NewWithCells(32)
	dims := part.Dimensions{X: 12, Y: 12, Z: 12}
	b := NewBuilder(k)

	a, err := b.BuildBase(dims, socket(4, 2))
	if err != nil {
		t.Fatal(err)
	}
	c, err := b.BuildBase(dims, socket(4, 2))
	if err != nil {
		t.Fatal(err)
	}

	ma, _ := k.ToMesh(a.Solid)
	mc, _ := k.ToMesh(c.Solid)
	if ma.TriangleCount() != mc.TriangleCount() || ma.Volume() != mc.Volume() {
		t.Errorf("repeated builds differ: %d/%f vs %d/%f",
			ma.TriangleCount(), ma.Volume(), mc.TriangleCount(), mc.Volume())
	}
	if a.Solid == c.Solid {
		t.Error("repeated builds share a solid")
	}
}
