package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// Notebook format version written by the exporter
const (
	NBFormat      = 4
	NBFormatMinor = 5
)

// Reserved cell metadata keys written by the exporter
const (
	MetaWindowID   = "window_id"
	MetaWindowType = "window_type"
	MetaPosition   = "position"
	MetaState      = "state"
	MetaTimestamps = "timestamps"
)

// ExportNamespace is the document metadata key carrying the export stamp
const ExportNamespace = "orrery_export"

// Lines is nbformat's multiline string: decodes from either a single
// string or a list of line fragments, always encodes as a list.
type Lines []string

// SplitLines converts text into nbformat line fragments, each keeping
// its trailing newline except the last
func SplitLines(text string) Lines {
	if text == "" {
		return Lines{}
	}
	parts := strings.SplitAfter(text, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return Lines(parts)
}

// Text joins the fragments back into one string
func (l Lines) Text() string {
	return strings.Join(l, "")
}

// MarshalJSON encodes as a list of fragments
func (l Lines) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return sonic.ConfigStd.Marshal([]string(l))
}

// UnmarshalJSON accepts both a plain string and a list of fragments. Any
// other shape degrades to empty rather than failing the enclosing cell.
func (l *Lines) UnmarshalJSON(data []byte) error {
	var list []string
	if err := sonic.ConfigStd.Unmarshal(data, &list); err == nil {
		*l = Lines(list)
		return nil
	}
	var s string
	if err := sonic.ConfigStd.Unmarshal(data, &s); err == nil {
		*l = SplitLines(s)
		return nil
	}
	*l = Lines{}
	return nil
}

// StateMeta is the serialized window state block in cell metadata.
// Opacity is a pointer so a missing value is distinguishable from zero.
type StateMeta struct {
	Minimized      bool     `json:"minimized"`
	Maximized      bool     `json:"maximized"`
	Opacity        *float64 `json:"opacity,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	ExportTemplate string   `json:"export_template,omitempty"`
}

// TimestampsMeta carries creation and modification times as ISO-8601 text
type TimestampsMeta struct {
	Created  string `json:"created"`
	Modified string `json:"modified"`
}

// CellMetadata holds the reserved window keys plus a residual bucket of
// unknown fields preserved verbatim for round-trip fidelity. Reserved keys
// that fail to parse are kept in Extra rather than dropped.
type CellMetadata struct {
	WindowID   *int
	WindowType string
	Position   *Position
	State      *StateMeta
	Timestamps *TimestampsMeta
	Extra      map[string]json.RawMessage
}

// HasWindowKeys reports whether any reserved window key parsed
func (m CellMetadata) HasWindowKeys() bool {
	return m.WindowID != nil || m.WindowType != "" || m.Position != nil ||
		m.State != nil || m.Timestamps != nil
}

func (m *CellMetadata) extraPut(key string, raw json.RawMessage) {
	if m.Extra == nil {
		m.Extra = make(map[string]json.RawMessage)
	}
	m.Extra[key] = raw
}

// MarshalJSON flattens reserved keys and the residual bucket into one object
func (m CellMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+5)
	for k, v := range m.Extra {
		out[k] = v
	}
	put := func(key string, v interface{}) error {
		b, err := sonic.ConfigStd.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = b
		return nil
	}
	if m.WindowID != nil {
		if err := put(MetaWindowID, *m.WindowID); err != nil {
			return nil, err
		}
	}
	if m.WindowType != "" {
		if err := put(MetaWindowType, m.WindowType); err != nil {
			return nil, err
		}
	}
	if m.Position != nil {
		if err := put(MetaPosition, m.Position); err != nil {
			return nil, err
		}
	}
	if m.State != nil {
		if err := put(MetaState, m.State); err != nil {
			return nil, err
		}
	}
	if m.Timestamps != nil {
		if err := put(MetaTimestamps, m.Timestamps); err != nil {
			return nil, err
		}
	}
	return sonic.ConfigStd.Marshal(out)
}

// UnmarshalJSON parses reserved keys tolerantly: a malformed reserved value
// falls back to the residual bucket instead of failing the cell, and a
// non-object metadata value degrades to no metadata at all
func (m *CellMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		*m = CellMetadata{}
		return nil
	}
	*m = CellMetadata{}
	for k, v := range raw {
		switch k {
		case MetaWindowID:
			var f float64
			if err := sonic.ConfigStd.Unmarshal(v, &f); err == nil {
				id := int(f)
				m.WindowID = &id
			} else {
				m.extraPut(k, v)
			}
		case MetaWindowType:
			var s string
			if err := sonic.ConfigStd.Unmarshal(v, &s); err == nil {
				m.WindowType = s
			} else {
				m.extraPut(k, v)
			}
		case MetaPosition:
			var p Position
			if err := sonic.ConfigStd.Unmarshal(v, &p); err == nil {
				m.Position = &p
			} else {
				m.extraPut(k, v)
			}
		case MetaState:
			var st StateMeta
			if err := sonic.ConfigStd.Unmarshal(v, &st); err == nil {
				m.State = &st
			} else {
				m.extraPut(k, v)
			}
		case MetaTimestamps:
			var ts TimestampsMeta
			if err := sonic.ConfigStd.Unmarshal(v, &ts); err == nil {
				m.Timestamps = &ts
			} else {
				m.extraPut(k, v)
			}
		default:
			m.extraPut(k, v)
		}
	}
	return nil
}

// Output is a cell output record. The codec treats outputs as opaque;
// only the output pipeline interprets them.
type Output struct {
	OutputType     string                 `json:"output_type"`
	Name           string                 `json:"name,omitempty"`
	Text           Lines                  `json:"text,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	ExecutionCount *int                   `json:"execution_count,omitempty"`
	EName          string                 `json:"ename,omitempty"`
	EValue         string                 `json:"evalue,omitempty"`
	Traceback      []string               `json:"traceback,omitempty"`
}

// Output types defined by the notebook format
const (
	OutputStream        = "stream"
	OutputDisplayData   = "display_data"
	OutputExecuteResult = "execute_result"
	OutputError         = "error"
)

// Cell is a single notebook cell
type Cell struct {
	CellType       string       `json:"cell_type"`
	Source         Lines        `json:"source"`
	Metadata       CellMetadata `json:"metadata"`
	ExecutionCount *int         `json:"execution_count,omitempty"`
	Outputs        []Output     `json:"outputs,omitempty"`
}

// Cell types defined by the notebook format
const (
	CellCode     = "code"
	CellMarkdown = "markdown"
	CellRaw      = "raw"
)

// MarshalJSON emits nbformat-complete cells: code cells always carry
// execution_count and outputs, other cell types never do
func (c Cell) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"cell_type": c.CellType,
		"metadata":  c.Metadata,
		"source":    c.Source,
	}
	if c.CellType == CellCode {
		out["execution_count"] = c.ExecutionCount
		if c.Outputs == nil {
			out["outputs"] = []Output{}
		} else {
			out["outputs"] = c.Outputs
		}
	}
	return sonic.ConfigStd.Marshal(out)
}

// UnmarshalJSON parses each cell field independently so one malformed field
// degrades to its default instead of poisoning the rest of the cell. Only a
// cell that is not a JSON object at all fails, and the decoder skips those.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Cell{}

	if v, ok := raw["cell_type"]; ok {
		var s string
		if err := sonic.ConfigStd.Unmarshal(v, &s); err == nil {
			c.CellType = s
		}
	}
	if v, ok := raw["source"]; ok {
		_ = c.Source.UnmarshalJSON(v)
	}
	if c.Source == nil {
		c.Source = Lines{}
	}
	if v, ok := raw["metadata"]; ok {
		_ = c.Metadata.UnmarshalJSON(v)
	}
	if v, ok := raw["execution_count"]; ok {
		var f float64
		if err := sonic.ConfigStd.Unmarshal(v, &f); err == nil {
			n := int(f)
			c.ExecutionCount = &n
		}
	}
	if v, ok := raw["outputs"]; ok {
		var items []json.RawMessage
		if err := sonic.ConfigStd.Unmarshal(v, &items); err == nil {
			for _, item := range items {
				var out Output
				if err := sonic.ConfigStd.Unmarshal(item, &out); err == nil {
					c.Outputs = append(c.Outputs, out)
				}
			}
		}
	}
	return nil
}

// ExportStamp is the document-level export record under ExportNamespace
type ExportStamp struct {
	ExportDate   string   `json:"export_date"`
	TotalWindows int      `json:"total_windows"`
	WindowTypes  []string `json:"window_types"`
}

// DocMetadata is document-level metadata: the export stamp plus a residual
// bucket of foreign keys (kernelspec, language_info, ...) kept verbatim
type DocMetadata struct {
	Export *ExportStamp
	Extra  map[string]json.RawMessage
}

// MarshalJSON flattens the stamp and residual bucket into one object
func (m DocMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+1)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Export != nil {
		b, err := sonic.ConfigStd.Marshal(m.Export)
		if err != nil {
			return nil, err
		}
		out[ExportNamespace] = b
	}
	return sonic.ConfigStd.Marshal(out)
}

// UnmarshalJSON extracts the export stamp when present and parseable. A
// non-object metadata value degrades to empty metadata.
func (m *DocMetadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		*m = DocMetadata{}
		return nil
	}
	*m = DocMetadata{}
	for k, v := range raw {
		if k == ExportNamespace {
			var stamp ExportStamp
			if err := sonic.ConfigStd.Unmarshal(v, &stamp); err == nil {
				m.Export = &stamp
				continue
			}
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[k] = v
	}
	return nil
}

// Document is a notebook file (nbformat 4)
type Document struct {
	Cells         []Cell      `json:"cells"`
	Metadata      DocMetadata `json:"metadata"`
	NBFormat      int         `json:"nbformat"`
	NBFormatMinor int         `json:"nbformat_minor"`
}

// NotebookEntry is one row of a notebook listing, local or remote
type NotebookEntry struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}
