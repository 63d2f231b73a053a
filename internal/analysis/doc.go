// Package analysis turns a stream of wakeup timestamps into timing
// statistics.
//
// Pipeline per series of samples:
//
//	LogTsEntry ──► series (SeriesSize samples)
//	                 │ ProcessAndFlushTimeStampSeries
//	                 ├──► StoreOutlierData ──► outliers ──► DetectPeaks ──► peaks
//	                 └──► short-term Histogram ──► recent (RecentCapacity)
//	                                                  │ ProcessAndFlushRecentHists
//	                                                  ▼
//	                                             long-term (LongTermCapacity,
//	                                             each spanning ≤ MaxHistTimespan)
//
// HandleStateChange drops the pending series and the carried previous
// timestamp so an idle gap is never counted as an inter-arrival time.
//
// A PerformanceAnalysis must only be used from one goroutine.
package analysis
