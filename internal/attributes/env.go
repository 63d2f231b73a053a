package attributes

import (
	"math"
	"os"
	"strings"

	"github.com/mrzor/nblog/internal/merger"
)

// Context is the data an expression is evaluated against.
type Context struct {
	Stats   merger.Stats
	Names   []string
	Environ map[string]string
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

// typeEnv declares the variable types for compilation.
var typeEnv = map[string]any{
	"sources":      0,
	"records":      0,
	"loss_markers": 0,
	"lost":         0,
	"skipped":      0,
	"faults":       0,
	"duration_ms":  0.0,
	"names":        []string{},
	"env":          map[string]string{},
}

func (c *Context) vars() map[string]any {
	environ := c.Environ
	if environ == nil {
		environ = map[string]string{}
	}
	names := c.Names
	if names == nil {
		names = []string{}
	}
	return map[string]any{
		"sources":      c.Stats.Sources,
		"records":      c.Stats.Records,
		"loss_markers": c.Stats.LossMarkers,
		//nolint:gosec // bounded by min
		"lost":        int(min(c.Stats.Lost, math.MaxInt)),
		"skipped":     c.Stats.Skipped,
		"faults":      c.Stats.Faults,
		"duration_ms": float64(c.Stats.Duration.Microseconds()) / 1000,
		"names":       names,
		"env":         environ,
	}
}
