package types

import (
	"sort"
	"time"
)

// Kind classifies the content a window presents
type Kind string

const (
	KindChart         Kind = "chart"
	KindSpatialEditor Kind = "spatialEditor"
	KindDataTable     Kind = "dataTable"
	KindVolumeMetric  Kind = "volumeMetric"
	KindPointCloud    Kind = "pointCloud"
	KindModel3D       Kind = "model3d"
)

// Kinds lists every valid window kind in stable order
func Kinds() []Kind {
	return []Kind{KindChart, KindSpatialEditor, KindDataTable, KindVolumeMetric, KindPointCloud, KindModel3D}
}

// Valid reports whether k is a recognized window kind
func (k Kind) Valid() bool {
	switch k {
	case KindChart, KindSpatialEditor, KindDataTable, KindVolumeMetric, KindPointCloud, KindModel3D:
		return true
	}
	return false
}

// ExportTemplate selects how window content renders into a cell source
type ExportTemplate string

const (
	// TemplateAnnotated prefixes content with a synthesized header
	TemplateAnnotated ExportTemplate = "annotated"
	// TemplatePlain emits content verbatim
	TemplatePlain ExportTemplate = "plain"
)

// Position is window placement geometry. Depth is optional and only
// serialized when non-zero.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Z      float64 `json:"z"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth,omitempty"`
}

// DataFrameData is a tabular payload attached to dataTable windows
type DataFrameData struct {
	Columns   []string        `json:"columns"`
	Rows      [][]string      `json:"rows"`
	Summaries []ColumnSummary `json:"summaries,omitempty"`
}

// ColumnSummary holds numeric statistics for one frame column
type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
}

// PointCloudData describes a point cloud asset shown by a window
type PointCloudData struct {
	PointCount int           `json:"point_count"`
	Bounds     [2][3]float64 `json:"bounds"`
	AssetPath  string        `json:"asset_path,omitempty"`
}

// Model3DData references a 3D model asset shown by a window
type Model3DData struct {
	AssetPath string `json:"asset_path"`
	Format    string `json:"format,omitempty"`
}

// WindowState carries window payload and presentation state.
// At most one of DataFrame/PointCloud/Model3D is populated, chosen by the
// window kind. Presentation flags are irrelevant to the codec but preserved
// for round-trip fidelity.
type WindowState struct {
	Content        string          `json:"content"`
	Tags           []string        `json:"tags,omitempty"`
	ExportTemplate ExportTemplate  `json:"export_template,omitempty"`
	DataFrame      *DataFrameData  `json:"data_frame,omitempty"`
	PointCloud     *PointCloudData `json:"point_cloud,omitempty"`
	Model3D        *Model3DData    `json:"model3d,omitempty"`
	IsMinimized    bool            `json:"is_minimized,omitempty"`
	IsMaximized    bool            `json:"is_maximized,omitempty"`
	Opacity        float64         `json:"opacity"`
}

// NormalizeTags collapses duplicates and sorts, making tag order
// irrelevant to callers and serialization deterministic
func (s *WindowState) NormalizeTags() {
	if len(s.Tags) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(s.Tags))
	out := s.Tags[:0]
	for _, t := range s.Tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	s.Tags = out
}

// Clone returns a deep copy of the state
func (s WindowState) Clone() WindowState {
	out := s
	if s.Tags != nil {
		out.Tags = append([]string(nil), s.Tags...)
	}
	if s.DataFrame != nil {
		df := DataFrameData{Columns: append([]string(nil), s.DataFrame.Columns...)}
		df.Rows = make([][]string, len(s.DataFrame.Rows))
		for i, r := range s.DataFrame.Rows {
			df.Rows[i] = append([]string(nil), r...)
		}
		df.Summaries = append([]ColumnSummary(nil), s.DataFrame.Summaries...)
		out.DataFrame = &df
	}
	if s.PointCloud != nil {
		pc := *s.PointCloud
		out.PointCloud = &pc
	}
	if s.Model3D != nil {
		m := *s.Model3D
		out.Model3D = &m
	}
	return out
}

// WindowRecord is a tracked workspace window.
// IDs are caller-assigned integers, unique within a store.
type WindowRecord struct {
	ID           int         `json:"id"`
	Kind         Kind        `json:"kind"`
	Position     Position    `json:"position"`
	State        WindowState `json:"state"`
	CreatedAt    time.Time   `json:"created_at"`
	LastModified time.Time   `json:"last_modified"`
}

// Clone returns a deep copy of the record
func (w WindowRecord) Clone() WindowRecord {
	out := w
	out.State = w.State.Clone()
	return out
}

// WorkspaceStats summarizes the live window store
type WorkspaceStats struct {
	TotalWindows int            `json:"total_windows"`
	MaxID        int            `json:"max_id"`
	Kinds        map[string]int `json:"kinds"`
}
