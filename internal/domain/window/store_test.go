package window

import (
	"sync"
	"testing"
	"time"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

func TestCreate(t *testing.T) {
	s := NewStore()

	pos := types.Position{X: 100, Y: 50, Width: 640, Height: 480}
	rec := s.Create(types.KindChart, 1, pos)

	if rec.ID != 1 {
		t.Errorf("expected id 1, got %d", rec.ID)
	}
	if rec.Kind != types.KindChart {
		t.Errorf("expected kind chart, got %s", rec.Kind)
	}
	if rec.Position != pos {
		t.Errorf("expected position %+v, got %+v", pos, rec.Position)
	}
	if rec.State.Opacity != 1 {
		t.Errorf("expected default opacity 1, got %f", rec.State.Opacity)
	}
	if rec.State.ExportTemplate != types.TemplateAnnotated {
		t.Errorf("expected annotated template, got %s", rec.State.ExportTemplate)
	}
	if rec.CreatedAt.IsZero() || rec.LastModified.IsZero() {
		t.Error("expected timestamps to be stamped")
	}
}

func TestCreateOverwritesExistingID(t *testing.T) {
	s := NewStore()

	s.Create(types.KindChart, 1, types.Position{})
	s.Create(types.KindDataTable, 1, types.Position{X: 10})

	rec, ok := s.Get(1)
	if !ok {
		t.Fatal("expected window at id 1")
	}
	if rec.Kind != types.KindDataTable {
		t.Errorf("expected last write to win, got kind %s", rec.Kind)
	}
	if s.Count() != 1 {
		t.Errorf("expected 1 window, got %d", s.Count())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Create(types.KindSpatialEditor, 1, types.Position{})

	rec, _ := s.Get(1)
	rec.State.Content = "mutated"
	rec.State.Tags = append(rec.State.Tags, "local")

	stored, _ := s.Get(1)
	if stored.State.Content != "" {
		t.Error("external mutation leaked into the store")
	}
	if len(stored.State.Tags) != 0 {
		t.Error("external tag append leaked into the store")
	}
}

func TestUpdate(t *testing.T) {
	s := NewStore()
	created := s.Create(types.KindSpatialEditor, 1, types.Position{})

	time.Sleep(time.Millisecond)
	ok := s.Update(1, func(rec *types.WindowRecord) {
		rec.State.Content = "print('hi')"
		rec.ID = 99 // must be discarded
	})
	if !ok {
		t.Fatal("update failed")
	}

	rec, ok := s.Get(1)
	if !ok {
		t.Fatal("window moved or vanished after update")
	}
	if rec.State.Content != "print('hi')" {
		t.Errorf("expected content update, got %q", rec.State.Content)
	}
	if rec.LastModified.Before(created.LastModified) {
		t.Error("lastModified went backwards")
	}
	if _, ok := s.Get(99); ok {
		t.Error("mutator was able to move the record to a new id")
	}
}

func TestUpdateMissingID(t *testing.T) {
	s := NewStore()
	if s.Update(42, func(*types.WindowRecord) {}) {
		t.Error("expected update of missing id to report false")
	}
}

func TestApplyPartialMutation(t *testing.T) {
	s := NewStore()
	s.Create(types.KindChart, 1, types.Position{X: 1, Y: 2, Width: 400, Height: 300})

	content := "plot(x)"
	opacity := 0.5
	rec, ok := s.Apply(1, Mutation{
		Content: &content,
		Opacity: &opacity,
		Tags:    []string{"b", "a", "b"},
	})
	if !ok {
		t.Fatal("apply failed")
	}

	if rec.State.Content != content {
		t.Errorf("expected content %q, got %q", content, rec.State.Content)
	}
	if rec.State.Opacity != 0.5 {
		t.Errorf("expected opacity 0.5, got %f", rec.State.Opacity)
	}
	if len(rec.State.Tags) != 2 || rec.State.Tags[0] != "a" || rec.State.Tags[1] != "b" {
		t.Errorf("expected normalized tags [a b], got %v", rec.State.Tags)
	}
	if rec.Position.X != 1 || rec.Kind != types.KindChart {
		t.Error("untouched fields changed")
	}
}

func TestRemove(t *testing.T) {
	s := NewStore()
	s.Create(types.KindChart, 1, types.Position{})

	if !s.Remove(1) {
		t.Fatal("remove failed")
	}
	if _, ok := s.Get(1); ok {
		t.Error("window still present after remove")
	}
	if s.Remove(1) {
		t.Error("second remove should report false")
	}
}

func TestListOrdersByID(t *testing.T) {
	s := NewStore()
	s.Create(types.KindChart, 3, types.Position{})
	s.Create(types.KindChart, 1, types.Position{})
	s.Create(types.KindChart, 2, types.Position{})

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(list))
	}
	for i, want := range []int{1, 2, 3} {
		if list[i].ID != want {
			t.Errorf("position %d: expected id %d, got %d", i, want, list[i].ID)
		}
	}
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Create(types.KindChart, 1, types.Position{})
	s.Create(types.KindChart, 2, types.Position{})

	if dropped := s.Clear(); dropped != 2 {
		t.Errorf("expected 2 dropped, got %d", dropped)
	}
	if s.Count() != 0 {
		t.Errorf("expected empty store, got %d windows", s.Count())
	}
}

func TestNextID(t *testing.T) {
	s := NewStore()
	if got := s.NextID(); got != 1 {
		t.Errorf("empty store: expected next id 1, got %d", got)
	}

	s.Create(types.KindChart, 3, types.Position{})
	s.Create(types.KindChart, 7, types.Position{})
	if got := s.NextID(); got != 8 {
		t.Errorf("expected next id 8, got %d", got)
	}
	if got := s.MaxID(); got != 7 {
		t.Errorf("expected max id 7, got %d", got)
	}
}

func TestInsertPreservesTimestamps(t *testing.T) {
	s := NewStore()

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	modified := created.Add(time.Hour)
	s.Insert(types.WindowRecord{
		ID:           5,
		Kind:         types.KindPointCloud,
		CreatedAt:    created,
		LastModified: modified,
	})

	rec, _ := s.Get(5)
	if !rec.CreatedAt.Equal(created) {
		t.Errorf("expected createdAt preserved, got %v", rec.CreatedAt)
	}
	if !rec.LastModified.Equal(modified) {
		t.Errorf("expected lastModified preserved, got %v", rec.LastModified)
	}
}

func TestStats(t *testing.T) {
	s := NewStore()
	s.Create(types.KindChart, 1, types.Position{})
	s.Create(types.KindChart, 2, types.Position{})
	s.Create(types.KindDataTable, 9, types.Position{})

	stats := s.Stats()
	if stats.TotalWindows != 3 {
		t.Errorf("expected 3 windows, got %d", stats.TotalWindows)
	}
	if stats.MaxID != 9 {
		t.Errorf("expected max id 9, got %d", stats.MaxID)
	}
	if stats.Kinds["chart"] != 2 || stats.Kinds["dataTable"] != 1 {
		t.Errorf("unexpected kind counts: %v", stats.Kinds)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.Create(types.KindChart, id, types.Position{})
			s.Update(id, func(rec *types.WindowRecord) {
				rec.State.Content = "x"
			})
			s.Get(id)
			s.List()
		}(i)
	}
	wg.Wait()

	if s.Count() != 50 {
		t.Errorf("expected 50 windows, got %d", s.Count())
	}
}
