package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/list"

	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/runtime"
)

func TestGroupRank(t *testing.T) {
	if groupRank(runtime.StateRunning) >= groupRank(runtime.StateExited) {
		t.Error("running should sort before exited")
	}
	if groupRank(runtime.StateExited) >= groupRank(runtime.StatePaused) {
		t.Error("exited should sort before other states")
	}
}

func TestBuildGroupedItems(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		if items := buildGroupedItems(nil); items != nil {
			t.Errorf("buildGroupedItems(nil) = %v, want nil", items)
		}
	})

	t.Run("groups by status", func(t *testing.T) {
		instances := []instance.Instance{
			{Name: "zed", Status: runtime.StateExited},
			{Name: "paused", Status: runtime.StatePaused},
			{Name: "bravo", Status: runtime.StateRunning},
			{Name: "alpha", Status: runtime.StateRunning},
			{Name: "created", Status: runtime.StateCreated},
		}

		items := buildGroupedItems(instances)

		want := []string{
			"running (2)", "alpha", "bravo",
			"exited (1)", "zed",
			"created (1)", "created",
			"paused (1)", "paused",
		}
		if len(items) != len(want) {
			t.Fatalf("got %d items, want %d", len(items), len(want))
		}
		for i, item := range items {
			var got string
			switch it := item.(type) {
			case headerItem:
				got = it.label
			case instanceItem:
				got = it.inst.Name
			}
			if got != want[i] {
				t.Errorf("items[%d] = %q, want %q", i, got, want[i])
			}
		}
		if headerCount(items) != 4 {
			t.Errorf("headerCount() = %d, want 4", headerCount(items))
		}
	})
}

func TestHeaderItem(t *testing.T) {
	h := headerItem{label: "Test Group"}

	if h.FilterValue() != "" {
		t.Error("headerItem.FilterValue() should return empty string")
	}
	if h.Title() != "Test Group" {
		t.Errorf("Title() = %q, want %q", h.Title(), "Test Group")
	}
	if h.Description() != "" {
		t.Errorf("Description() = %q, want empty", h.Description())
	}
}

func TestHeaderCount(t *testing.T) {
	items := []list.Item{
		headerItem{label: "group1"},
		instanceItem{inst: instance.Instance{Name: "a"}},
		instanceItem{inst: instance.Instance{Name: "b"}},
		headerItem{label: "group2"},
		instanceItem{inst: instance.Instance{Name: "c"}},
	}

	count := headerCount(items)
	if count != 2 {
		t.Errorf("headerCount() = %d, want 2", count)
	}
}

func TestSkipHeaders(t *testing.T) {
	items := []list.Item{
		headerItem{label: "g1"},
		instanceItem{inst: instance.Instance{Name: "a"}},
		headerItem{label: "g2"},
		instanceItem{inst: instance.Instance{Name: "b"}},
	}
	l := list.New(items, newGroupedDelegate(), 80, 20)

	l.Select(2)
	skipHeaders(&l, -1)
	if l.Index() != 1 {
		t.Errorf("skipHeaders up: index = %d, want 1", l.Index())
	}

	l.Select(2)
	skipHeaders(&l, 1)
	if l.Index() != 3 {
		t.Errorf("skipHeaders down: index = %d, want 3", l.Index())
	}
}
