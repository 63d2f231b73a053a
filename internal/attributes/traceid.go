package attributes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// compileOptional compiles exprStr, returning nil for an empty expression.
func compileOptional(exprStr, what string) (*vm.Program, error) {
	if exprStr == "" {
		return nil, nil
	}
	program, err := expr.Compile(exprStr, expr.Env(typeEnv))
	if err != nil {
		return nil, fmt.Errorf("failed to compile %s expression: %w", what, err)
	}
	return program, nil
}

func run(program *vm.Program, c *Context, what string) (string, error) {
	if c == nil {
		c = &Context{}
	}
	output, err := expr.Run(program, c.vars())
	if err != nil {
		return "", fmt.Errorf("failed to evaluate %s expression: %w", what, err)
	}
	return fmt.Sprint(output), nil
}

// TraceIDEvaluator selects the trace that merge spans belong to.
type TraceIDEvaluator struct {
	program *vm.Program
}

// NewTraceIDEvaluator compiles exprStr. An empty expression leaves trace
// selection to the SDK.
func NewTraceIDEvaluator(exprStr string) (*TraceIDEvaluator, error) {
	program, err := compileOptional(exprStr, "trace-id")
	if err != nil {
		return nil, err
	}
	return &TraceIDEvaluator{program: program}, nil
}

// EvaluateAndValidate returns the trace ID and any warnings to attach to
// the span. A result that is not 32 hex characters is hashed into one.
// Without an expression the zero trace ID is returned.
func (e *TraceIDEvaluator) EvaluateAndValidate(c *Context) (trace.TraceID, []attribute.KeyValue, error) {
	if e.program == nil {
		return trace.TraceID{}, nil, nil
	}
	resultStr, err := run(e.program, c, "trace-id")
	if err != nil {
		return trace.TraceID{}, nil, err
	}

	if len(resultStr) == 32 {
		if traceID, err := trace.TraceIDFromHex(resultStr); err == nil {
			return traceID, nil, nil
		}
	}

	hash := sha256.Sum256([]byte(resultStr))
	traceID, err := trace.TraceIDFromHex(hex.EncodeToString(hash[:16]))
	if err != nil {
		return trace.TraceID{}, nil, fmt.Errorf("failed to create trace ID from hash: %w", err)
	}
	warnings := []attribute.KeyValue{
		attribute.String("_trace_id_expr_result", resultStr),
		attribute.String("_trace_id_invalid_warning", fmt.Sprintf("Expression result %q is not a valid 32-char hex trace ID, used SHA-256 hash instead", resultStr)),
	}
	return traceID, warnings, nil
}

// ParentIDEvaluator selects the parent span of merge spans.
type ParentIDEvaluator struct {
	program *vm.Program
}

// NewParentIDEvaluator compiles exprStr. An empty expression yields no
// parent.
func NewParentIDEvaluator(exprStr string) (*ParentIDEvaluator, error) {
	program, err := compileOptional(exprStr, "parent-id")
	if err != nil {
		return nil, err
	}
	return &ParentIDEvaluator{program: program}, nil
}

// EvaluateAndValidate returns the parent span ID and any warnings. A result
// that is not 16 hex characters yields the zero span ID.
func (e *ParentIDEvaluator) EvaluateAndValidate(c *Context) (trace.SpanID, []attribute.KeyValue, error) {
	if e.program == nil {
		return trace.SpanID{}, nil, nil
	}
	resultStr, err := run(e.program, c, "parent-id")
	if err != nil {
		return trace.SpanID{}, nil, err
	}

	if len(resultStr) == 16 {
		if spanID, err := trace.SpanIDFromHex(resultStr); err == nil {
			return spanID, nil, nil
		}
	}

	warnings := []attribute.KeyValue{
		attribute.String("_parent_id_expr_result", resultStr),
		attribute.String("_parent_id_invalid_warning", fmt.Sprintf("Expression result %q is not a valid 16-char hex span ID, using null parent ID instead", resultStr)),
	}
	return trace.SpanID{}, warnings, nil
}
