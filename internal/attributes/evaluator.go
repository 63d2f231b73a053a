package attributes

import (
	"fmt"
	"reflect"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mrzor/nblog/internal/config"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Evaluator handles compilation and evaluation of custom attribute expressions.
type Evaluator struct {
	customAttrs   []config.CustomAttribute
	compiledExprs []*vm.Program
	logger        *zap.Logger
}

// NewEvaluator creates a new attribute evaluator.
// It pre-compiles all custom attribute expressions.
func NewEvaluator(customAttrs []config.CustomAttribute, logger *zap.Logger) (*Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	compiledExprs := make([]*vm.Program, len(customAttrs))
	for i, attr := range customAttrs {
		program, err := expr.Compile(attr.Expression, expr.Env(typeEnv))
		if err != nil {
			return nil, fmt.Errorf("failed to compile expression for attribute %q: %w", attr.Name, err)
		}
		compiledExprs[i] = program
	}

	return &Evaluator{
		customAttrs:   customAttrs,
		compiledExprs: compiledExprs,
		logger:        logger,
	}, nil
}

// Len returns the number of configured attributes.
func (e *Evaluator) Len() int {
	return len(e.customAttrs)
}

// EvaluateCustomAttributes evaluates every expression against c. A failing
// expression is logged and skipped; map results expand into one attribute
// per key.
func (e *Evaluator) EvaluateCustomAttributes(c *Context) []attribute.KeyValue {
	if len(e.customAttrs) == 0 || c == nil {
		return nil
	}
	vars := c.vars()

	var attrs []attribute.KeyValue
	for i, customAttr := range e.customAttrs {
		output, err := expr.Run(e.compiledExprs[i], vars)
		if err != nil {
			e.logger.Warn("failed to evaluate attribute expression",
				zap.String("attribute", customAttr.Name), zap.Error(err))
			continue
		}

		outputValue := reflect.ValueOf(output)
		if outputValue.Kind() != reflect.Map {
			attrs = append(attrs, attribute.String(customAttr.Name, fmt.Sprint(output)))
			continue
		}
		for _, key := range outputValue.MapKeys() {
			attrName := customAttr.Name + "." + sanitizeAttributeName(fmt.Sprint(key.Interface()))
			attrs = append(attrs, attribute.String(attrName, fmt.Sprint(outputValue.MapIndex(key).Interface())))
		}
	}
	return attrs
}

// sanitizeAttributeName replaces non-alphanumeric characters with underscores.
func sanitizeAttributeName(name string) string {
	result := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			result[i] = c
		} else {
			result[i] = '_'
		}
	}
	return string(result)
}
