package procmeta

import (
	"testing"
)

func TestManager_ObserveAndGet(t *testing.T) {
	m := NewManager()

	m.Observe(1234, "mixer", 100)
	m.Observe(1234, "mixer", 300)
	m.Observe(1234, "mixer", 200)

	got := m.Get(1234)
	if got == nil {
		t.Fatal("Get() returned nil")
	}
	if got.Name != "mixer" {
		t.Errorf("Name = %q, want mixer", got.Name)
	}
	if got.FirstSeen != 100 || got.LastSeen != 300 {
		t.Errorf("seen = [%d, %d], want [100, 300]", got.FirstSeen, got.LastSeen)
	}
	if got.Entries != 3 {
		t.Errorf("Entries = %d, want 3", got.Entries)
	}
}

func TestManager_GetNonExistent(t *testing.T) {
	m := NewManager()

	if got := m.Get(9999); got != nil {
		t.Error("Expected nil for non-existent PID")
	}
}

func TestManager_NameChangeIsIssue(t *testing.T) {
	m := NewManager()

	m.Observe(7, "old", 1)
	m.Observe(7, "new", 2)

	issues := m.GetIssues(7)
	if len(issues) != 1 {
		t.Fatalf("GetIssues() length = %d, want 1", len(issues))
	}
	if issues[0] != `name changed from "old" to "new"` {
		t.Errorf("GetIssues() = %v", issues)
	}
	if m.Get(7).Name != "new" {
		t.Error("name should follow the latest observation")
	}
}

func TestManager_List(t *testing.T) {
	m := NewManager()
	m.Observe(30, "c", 0)
	m.Observe(10, "a", 0)
	m.Observe(20, "b", 0)

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("List() length = %d, want 3", len(list))
	}
	for i, want := range []int32{10, 20, 30} {
		if list[i].PID != want {
			t.Errorf("List()[%d].PID = %d, want %d", i, list[i].PID, want)
		}
	}
}

func TestManager_Delete(t *testing.T) {
	m := NewManager()

	m.Observe(1234, "x", 0)
	m.AddIssue(1234, "issue 1")

	m.Delete(1234)

	if m.Get(1234) != nil {
		t.Error("Metadata should be nil after delete")
	}
	if m.GetIssues(1234) != nil {
		t.Error("Issues should be nil after delete")
	}
}

func TestManager_Concurrent(_ *testing.T) {
	m := NewManager()

	done := make(chan bool)

	go func() {
		for i := 0; i < 100; i++ {
			//nolint:gosec // Test loop with bounded range
			m.Observe(int32(i), "w", int64(i))
			m.AddIssue(int32(i), "issue")
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			_ = m.Get(int32(i))
			_ = m.GetIssues(int32(i))
			_ = m.List()
		}
		done <- true
	}()

	<-done
	<-done
}
