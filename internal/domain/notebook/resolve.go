package notebook

import (
	"time"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// Resolver centralizes decode-time defaults. Every fallback the import path
// applies is declared here once, so each can be tested in isolation and no
// ad hoc defaulting hides elsewhere in the decoder.
type Resolver struct {
	kind     types.Kind
	position types.Position
	opacity  float64
}

// NewResolver creates a resolver with the standard defaults: spatialEditor
// kind, a 400x300 window at the origin, and full opacity.
func NewResolver() *Resolver {
	return &Resolver{
		kind:     types.KindSpatialEditor,
		position: types.Position{Width: 400, Height: 300},
		opacity:  1,
	}
}

// Kind resolves the window kind, falling back when the metadata names an
// unknown or missing type.
func (r *Resolver) Kind(meta types.CellMetadata) types.Kind {
	if k := types.Kind(meta.WindowType); k.Valid() {
		return k
	}
	return r.kind
}

// Position resolves placement, falling back to the default geometry.
func (r *Resolver) Position(meta types.CellMetadata) types.Position {
	if meta.Position != nil {
		return *meta.Position
	}
	return r.position
}

// Opacity resolves the opacity flag, defaulting to fully opaque.
func (r *Resolver) Opacity(meta types.CellMetadata) float64 {
	if meta.State != nil && meta.State.Opacity != nil {
		return *meta.State.Opacity
	}
	return r.opacity
}

// Tags returns a normalized copy of the tag set, nil when absent.
func (r *Resolver) Tags(meta types.CellMetadata) []string {
	if meta.State == nil || len(meta.State.Tags) == 0 {
		return nil
	}
	state := types.WindowState{Tags: append([]string(nil), meta.State.Tags...)}
	state.NormalizeTags()
	return state.Tags
}

// Flags resolves the presentation flags, defaulting to neither.
func (r *Resolver) Flags(meta types.CellMetadata) (minimized, maximized bool) {
	if meta.State == nil {
		return false, false
	}
	return meta.State.Minimized, meta.State.Maximized
}

// Template resolves the export template. Anything other than an explicit
// "plain" means annotated.
func (r *Resolver) Template(meta types.CellMetadata) types.ExportTemplate {
	if meta.State != nil && meta.State.ExportTemplate == string(types.TemplatePlain) {
		return types.TemplatePlain
	}
	return types.TemplateAnnotated
}

// Timestamps parses creation and modification times, zero when absent or
// unparseable. Zero timestamps are stamped fresh on store insertion.
func (r *Resolver) Timestamps(meta types.CellMetadata) (created, modified time.Time) {
	if meta.Timestamps == nil {
		return time.Time{}, time.Time{}
	}
	return parseTime(meta.Timestamps.Created), parseTime(meta.Timestamps.Modified)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
