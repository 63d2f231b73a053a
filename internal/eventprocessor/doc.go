// Package eventprocessor routes decoded log records to specialized handlers.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│   Snapshot.Records()                    │
//	└─────────────────┬───────────────────────┘
//	                  │
//	                  ▼
//	┌─────────────────────────────────────────┐
//	│   eventprocessor                        │  ← Record routing
//	│   - Routes by leading entry kind        │
//	│   - Decodes sample payloads             │
//	└─────────┬───────────────────────────────┘
//	          │
//	          ├──→ FormatStart ──────→ HandleFormat
//	          │                       (dump line / merge copy)
//	          │
//	          ├──→ HistogramTS ──────→ HandleSample
//	          │    AudioState          (analysis / merge re-tag)
//	          │
//	          ├──→ standalone ───────→ HandleEntry
//	          │    String, Integer...  (dump line / merge wrap)
//	          │
//	          └──→ orphan FormatEnd ─→ HandleFault
//	               undecodable         (warning line / skip count)
//
// The reader's dumper and the merger both implement Handler.
package eventprocessor
