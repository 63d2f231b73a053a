// Package attributes evaluates expressions over merge statistics.
//
// Expressions use the expr language and see one pass of the merger:
//
//	sources, records, loss_markers, lost, skipped, faults  int
//	duration_ms                                            float
//	names                                                  []string
//	env                                                    map[string]string
//
// Three evaluators:
//   - Evaluator: custom span attributes
//   - TraceIDEvaluator: trace ID of merge spans (32 hex chars)
//   - ParentIDEvaluator: parent span ID of merge spans (16 hex chars)
//
// Invalid trace IDs are hashed with SHA-256 to produce valid IDs.
// Invalid parent IDs result in a null parent (zero span ID).
package attributes
