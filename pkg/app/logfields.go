package app

import (
	"log/slog"
	"time"

	"github.com/chazu/interlock/pkg/part"
)

// Canonical log field names.
const (
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPart       = "part"
	KeyArtifact   = "artifact"
	KeyTriangles  = "triangles"
	KeyKind       = "kind"
	KeyError      = "error"
)

func Stage(name string) slog.Attr        { return slog.String(KeyStage, name) }
func Part(name string) slog.Attr         { return slog.String(KeyPart, name) }
func Artifact(id string) slog.Attr       { return slog.String(KeyArtifact, id) }
func Triangles(n int) slog.Attr          { return slog.Int(KeyTriangles, n) }
func Kind(k part.Kind) slog.Attr         { return slog.String(KeyKind, k.String()) }
func Duration(d time.Duration) slog.Attr { return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
