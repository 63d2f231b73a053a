// Package procmeta identifies the processes that write to an event log.
//
// Identity is the (pid, name) pair a writer embeds in PID entries.
// Self reads it for the current process from /proc/self/comm.
//
// Manager keeps what readers have learned about writers while decoding:
//
// Queries (read-only):
//   - Get(pid) - Retrieve metadata
//   - GetIssues(pid) - Retrieve decode warnings
//   - List() - All known writers ordered by pid
//
// Commands (mutations):
//   - Observe(pid, name, ts) - Record a PID entry
//   - AddIssue(pid, issue) - Add a warning
//   - Delete(pid) - Forget a writer
//
// Thread-safe with RWMutex for concurrent access.
package procmeta
