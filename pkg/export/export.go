// Package export turns solids into STL artifacts. Each solid becomes one
// self-contained binary STL stream tagged with a unique identifier
// derived from its name hint.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/chazu/interlock/pkg/kernel"
	"github.com/chazu/interlock/pkg/stl"
	"github.com/chazu/interlock/pkg/tessellate"
)

// ErrMismatchedInputs is returned when solids and name hints differ in length.
var ErrMismatchedInputs = errors.New("export: solids and name hints differ in length")

// Artifact is one exported mesh stream.
type Artifact struct {
	ID        string     `json:"id"`   // unique, e.g. "module1-3f2a9c1e.stl"
	Hint      string     `json:"hint"` // name hint the caller supplied
	Data      []byte     `json:"-"`    // binary STL
	Triangles int        `json:"triangles"`
	Volume    float64    `json:"volume"`
	Min       [3]float64 `json:"min"`
	Max       [3]float64 `json:"max"`
}

// Exporter tessellates solids with Kernel and encodes them as STL.
type Exporter struct {
	Kernel kernel.Kernel
}

// New returns an Exporter using k.
func New(k kernel.Kernel) *Exporter {
	return &Exporter{Kernel: k}
}

// Export produces one artifact per solid, in input order. Nothing is
// returned if any solid fails to tessellate.
func (e *Exporter) Export(solids []kernel.Solid, hints []string) ([]Artifact, error) {
	if len(solids) != len(hints) {
		return nil, fmt.Errorf("%w: %d solids, %d hints", ErrMismatchedInputs, len(solids), len(hints))
	}

	inputs := make([]tessellate.Input, len(solids))
	for i, s := range solids {
		inputs[i] = tessellate.Input{Name: hints[i], Solid: s}
	}
	meshes, err := tessellate.Tessellate(e.Kernel, inputs)
	if err != nil {
		return nil, err
	}

	arts := make([]Artifact, len(meshes))
	for i, m := range meshes {
		arts[i] = NewArtifact(hints[i], m)
	}
	return arts, nil
}

// NewArtifact encodes an already tessellated mesh.
func NewArtifact(hint string, m *kernel.Mesh) Artifact {
	st := stl.Analyze(m)
	return Artifact{
		ID:        artifactID(hint),
		Hint:      hint,
		Data:      stl.Encode(m),
		Triangles: st.Triangles,
		Volume:    st.Volume,
		Min:       st.Min,
		Max:       st.Max,
	}
}

func artifactID(hint string) string {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		hint = "part"
	}
	hint = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == os.PathSeparator {
			return '_'
		}
		return r
	}, hint)
	return hint + "-" + uuid.NewString()[:8] + ".stl"
}

// WriteFiles writes each artifact to dir under its ID and returns the
// paths in artifact order. Files are created exclusively, so an existing
// file is never overwritten. An empty dir means os.TempDir(). The caller
// owns the files.
func WriteFiles(dir string, arts []Artifact) ([]string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create output dir: %w", err)
	}

	paths := make([]string, 0, len(arts))
	for _, a := range arts {
		p := filepath.Join(dir, a.ID)
		if err := writeExclusive(p, a.Data); err != nil {
			return paths, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
