package procmeta

import (
	"fmt"
	"sort"
	"sync"
)

// Manager tracks writers observed through PID entries.
// It provides command-query separation for metadata access.
type Manager struct {
	mu            sync.RWMutex
	metadata      map[int32]*ProcessMetadata // PID -> process metadata
	captureIssues map[int32][]string         // PID -> list of warnings
}

// NewManager creates a new process metadata manager.
func NewManager() *Manager {
	return &Manager{
		metadata:      make(map[int32]*ProcessMetadata),
		captureIssues: make(map[int32][]string),
	}
}

// Get retrieves a copy of the metadata for a PID (query).
// Returns nil if the PID was never observed.
func (m *Manager) Get(pid int32) *ProcessMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	md, ok := m.metadata[pid]
	if !ok {
		return nil
	}
	c := *md
	return &c
}

// GetIssues retrieves the warnings recorded for a PID (query).
func (m *Manager) GetIssues(pid int32) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.captureIssues[pid]
}

// List returns copies of all metadata ordered by PID (query).
func (m *Manager) List() []ProcessMetadata {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ProcessMetadata, 0, len(m.metadata))
	for _, md := range m.metadata {
		out = append(out, *md)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out
}

// Observe records a PID entry seen at ts (command). A name change for a
// known PID is kept as an issue, since it usually means the pid was reused.
func (m *Manager) Observe(pid int32, name string, ts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	md, ok := m.metadata[pid]
	if !ok {
		m.metadata[pid] = &ProcessMetadata{PID: pid, Name: name, FirstSeen: ts, LastSeen: ts, Entries: 1}
		return
	}
	if md.Name != name {
		m.captureIssues[pid] = append(m.captureIssues[pid], fmt.Sprintf("name changed from %q to %q", md.Name, name))
		md.Name = name
	}
	if ts > md.LastSeen {
		md.LastSeen = ts
	}
	md.Entries++
}

// AddIssue adds a warning for a PID (command).
func (m *Manager) AddIssue(pid int32, issue string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captureIssues[pid] = append(m.captureIssues[pid], issue)
}

// Delete removes all data for a PID (command).
func (m *Manager) Delete(pid int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.metadata, pid)
	delete(m.captureIssues, pid)
}
