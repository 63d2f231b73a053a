package attributes

import (
	"testing"
	"time"

	"github.com/mrzor/nblog/internal/config"
	"github.com/mrzor/nblog/internal/merger"
)

func testContext() *Context {
	return &Context{
		Stats: merger.Stats{
			Sources:     2,
			Records:     40,
			LossMarkers: 1,
			Lost:        128,
			Duration:    1500 * time.Microsecond,
		},
		Names:   []string{"mixer", "capture"},
		Environ: map[string]string{"FOO": "bar", "BAZ": "qux"},
	}
}

func TestEvaluator_Simple(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "test.attr", Expression: `env["FOO"]`},
		{Name: "source.first", Expression: `names[0]`},
		{Name: "lossy", Expression: `lost > 0 && loss_markers > 0`},
		{Name: "per.source", Expression: `records / sources`},
		{Name: "slow", Expression: `duration_ms > 1.0`},
	}

	evaluator, err := NewEvaluator(attrs, nil)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	if evaluator.Len() != 5 {
		t.Errorf("Len() = %d, want 5", evaluator.Len())
	}

	result := evaluator.EvaluateCustomAttributes(testContext())
	want := map[string]string{
		"test.attr":    "bar",
		"source.first": "mixer",
		"lossy":        "true",
		"per.source":   "20",
		"slow":         "true",
	}
	if len(result) != len(want) {
		t.Fatalf("Expected %d attributes, got %d", len(want), len(result))
	}
	for _, kv := range result {
		if got := kv.Value.AsString(); got != want[string(kv.Key)] {
			t.Errorf("%s = %q, want %q", kv.Key, got, want[string(kv.Key)])
		}
	}
}

func TestEvaluator_MapExpansion(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{{Name: "expanded", Expression: `env`}}, nil)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	result := evaluator.EvaluateCustomAttributes(testContext())
	if len(result) != 2 {
		t.Fatalf("Expected 2 attributes (map expansion), got %d", len(result))
	}
	found := map[string]string{}
	for _, attr := range result {
		found[string(attr.Key)] = attr.Value.AsString()
	}
	if found["expanded.FOO"] != "bar" {
		t.Error("Missing expanded.FOO attribute")
	}
	if found["expanded.BAZ"] != "qux" {
		t.Error("Missing expanded.BAZ attribute")
	}
}

func TestSanitizeAttributeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"simple", "simple"},
		{"with-dash", "with_dash"},
		{"with.dot", "with_dot"},
		{"with space", "with_space"},
		{"special!@#$%", "special_____"},
		{"mixed-123.test", "mixed_123_test"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeAttributeName(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeAttributeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEvaluator_InvalidExpression(t *testing.T) {
	tests := []string{`invalid syntax here`, `invalid_function()`, `unknown_var + 1`}
	for _, expression := range tests {
		_, err := NewEvaluator([]config.CustomAttribute{{Name: "bad", Expression: expression}}, nil)
		if err == nil {
			t.Errorf("Expected compile error for %q", expression)
		}
	}
}

func TestEvaluator_RuntimeErrorSkipsAttribute(t *testing.T) {
	attrs := []config.CustomAttribute{
		{Name: "missing.source", Expression: `names[5]`},
		{Name: "missing.env", Expression: `env["MISSING"]`},
	}
	evaluator, err := NewEvaluator(attrs, nil)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	result := evaluator.EvaluateCustomAttributes(testContext())
	if len(result) != 1 {
		t.Fatalf("Expected 1 attribute, got %d", len(result))
	}
	if result[0].Key != "missing.env" || result[0].Value.AsString() != "" {
		t.Errorf("result[0] = %v, want missing.env=\"\"", result[0])
	}
}

func TestEvaluator_NilContext(t *testing.T) {
	evaluator, err := NewEvaluator([]config.CustomAttribute{{Name: "test", Expression: `records`}}, nil)
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}
	if result := evaluator.EvaluateCustomAttributes(nil); result != nil {
		t.Error("Expected nil result for nil context")
	}

	// A zero context still evaluates.
	result := evaluator.EvaluateCustomAttributes(&Context{})
	if len(result) != 1 || result[0].Value.AsString() != "0" {
		t.Errorf("result = %v, want test=0", result)
	}
}
