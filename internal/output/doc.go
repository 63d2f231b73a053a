// Package output reports merge passes and performance summaries.
//
// SpanFormatter turns each merge pass into an OpenTelemetry span:
//   - span timing from the pass duration
//   - nblog.* attributes from the pass statistics
//   - custom attributes from expressions (see package attributes)
//   - a "loss" event and error status when sources overran
//
// LogObserver writes the same statistics through zap.
//
// Both implement merger.Observer. Summaries from package analysis are
// exported as nblog.report spans.
package output
