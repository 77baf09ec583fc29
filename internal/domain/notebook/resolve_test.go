package notebook

import (
	"testing"
	"time"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"github.com/stretchr/testify/assert"
)

func TestResolverKind(t *testing.T) {
	r := NewResolver()

	assert.Equal(t, types.KindChart, r.Kind(types.CellMetadata{WindowType: "chart"}))
	assert.Equal(t, types.KindSpatialEditor, r.Kind(types.CellMetadata{}))
	assert.Equal(t, types.KindSpatialEditor, r.Kind(types.CellMetadata{WindowType: "hologram"}))
}

func TestResolverPosition(t *testing.T) {
	r := NewResolver()

	pos := types.Position{X: 10, Y: 20, Z: 3, Width: 800, Height: 600}
	assert.Equal(t, pos, r.Position(types.CellMetadata{Position: &pos}))
	assert.Equal(t, types.Position{Width: 400, Height: 300}, r.Position(types.CellMetadata{}))
}

func TestResolverOpacity(t *testing.T) {
	r := NewResolver()

	half := 0.5
	zero := 0.0
	assert.Equal(t, 0.5, r.Opacity(types.CellMetadata{State: &types.StateMeta{Opacity: &half}}))
	assert.Equal(t, 0.0, r.Opacity(types.CellMetadata{State: &types.StateMeta{Opacity: &zero}}))
	assert.Equal(t, 1.0, r.Opacity(types.CellMetadata{State: &types.StateMeta{}}))
	assert.Equal(t, 1.0, r.Opacity(types.CellMetadata{}))
}

func TestResolverTags(t *testing.T) {
	r := NewResolver()

	assert.Nil(t, r.Tags(types.CellMetadata{}))
	assert.Nil(t, r.Tags(types.CellMetadata{State: &types.StateMeta{}}))

	meta := types.CellMetadata{State: &types.StateMeta{Tags: []string{"z", "a", "z"}}}
	assert.Equal(t, []string{"a", "z"}, r.Tags(meta))
	// The caller's slice stays untouched.
	assert.Equal(t, []string{"z", "a", "z"}, meta.State.Tags)
}

func TestResolverFlags(t *testing.T) {
	r := NewResolver()

	min, max := r.Flags(types.CellMetadata{})
	assert.False(t, min)
	assert.False(t, max)

	min, max = r.Flags(types.CellMetadata{State: &types.StateMeta{Minimized: true, Maximized: true}})
	assert.True(t, min)
	assert.True(t, max)
}

func TestResolverTemplate(t *testing.T) {
	r := NewResolver()

	assert.Equal(t, types.TemplatePlain,
		r.Template(types.CellMetadata{State: &types.StateMeta{ExportTemplate: "plain"}}))
	assert.Equal(t, types.TemplateAnnotated,
		r.Template(types.CellMetadata{State: &types.StateMeta{ExportTemplate: "fancy"}}))
	assert.Equal(t, types.TemplateAnnotated, r.Template(types.CellMetadata{}))
}

func TestResolverTimestamps(t *testing.T) {
	r := NewResolver()

	created, modified := r.Timestamps(types.CellMetadata{})
	assert.True(t, created.IsZero())
	assert.True(t, modified.IsZero())

	meta := types.CellMetadata{Timestamps: &types.TimestampsMeta{
		Created:  "2025-04-10T09:30:00Z",
		Modified: "not a time",
	}}
	created, modified = r.Timestamps(meta)
	assert.Equal(t, time.Date(2025, 4, 10, 9, 30, 0, 0, time.UTC), created.UTC())
	assert.True(t, modified.IsZero())
}

func TestCellTypeFor(t *testing.T) {
	for _, kind := range types.Kinds() {
		want := types.CellCode
		if kind == types.KindSpatialEditor {
			want = types.CellMarkdown
		}
		assert.Equal(t, want, CellTypeFor(kind), "kind %s", kind)
	}
}

func TestTemplateBodyPerKind(t *testing.T) {
	seen := make(map[string]types.Kind)
	for _, kind := range types.Kinds() {
		body := TemplateBody(kind, 7)
		assert.Contains(t, body, "7", "kind %s", kind)
		if prev, dup := seen[body]; dup {
			t.Fatalf("kinds %s and %s share a template body", prev, kind)
		}
		seen[body] = kind
	}
}

func TestBuildHeaderCode(t *testing.T) {
	pos := types.Position{X: 100.5, Y: -20, Z: 0, Width: 640, Height: 480}
	got := buildHeader(types.CellCode, 3, types.KindChart, "2025-04-10T09:30:00Z", pos)
	want := "# Window 3 (chart)\n" +
		"# Created: 2025-04-10T09:30:00Z\n" +
		"# Position: (100.5, -20, 0) 640x480\n"
	assert.Equal(t, want, got)
}

func TestBuildHeaderMarkdown(t *testing.T) {
	pos := types.Position{Width: 400, Height: 300}
	got := buildHeader(types.CellMarkdown, 2, types.KindSpatialEditor, "2025-04-10T09:30:00Z", pos)
	want := "<!-- window 2 (spatialEditor) -->\n" +
		"<!-- created 2025-04-10T09:30:00Z position (0, 0, 0) 400x300 -->\n"
	assert.Equal(t, want, got)
}
