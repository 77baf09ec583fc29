package notebook

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// Decoded is the result of parsing a document for import.
type Decoded struct {
	Candidates []Candidate
	Metadata   *types.DocMetadata
}

// Candidate is one window reconstructed from a cell, before id
// reconciliation against a live store.
type Candidate struct {
	ID        int
	Synthetic bool // id was not present in the document
	Kind      types.Kind
	Position  types.Position
	State     types.WindowState
	CreatedAt time.Time
	Modified  time.Time
}

// Record materializes the candidate under the id the reconciler assigned.
func (c Candidate) Record(id int) types.WindowRecord {
	return types.WindowRecord{
		ID:           id,
		Kind:         c.Kind,
		Position:     c.Position,
		State:        c.State.Clone(),
		CreatedAt:    c.CreatedAt,
		LastModified: c.Modified,
	}
}

// Decoder converts notebook documents into window candidates. Foreign
// notebooks decode too: cells without window metadata become plain spatial
// editor windows with synthetic sequential ids.
type Decoder struct {
	resolver *Resolver
}

// NewDecoder creates a decoder with the standard field resolver.
func NewDecoder() *Decoder {
	return &Decoder{resolver: NewResolver()}
}

// Resolver exposes the decoder's field resolver.
func (d *Decoder) Resolver() *Resolver {
	return d.resolver
}

// Decode parses document bytes. The only failure mode is structural:
// invalid JSON or a missing cells array returns a document-level parse
// error and no candidates. Per-cell and per-field problems degrade to
// resolver defaults instead.
func (d *Decoder) Decode(data []byte) (*Decoded, error) {
	var probe struct {
		Cells    *[]json.RawMessage `json:"cells"`
		Metadata *types.DocMetadata `json:"metadata"`
	}
	if err := sonic.ConfigStd.Unmarshal(data, &probe); err != nil {
		return nil, types.WrapError(types.ErrDocumentParse, err, "document is not valid notebook JSON")
	}
	if probe.Cells == nil {
		return nil, types.NewError(types.ErrDocumentParse, "document has no cells array")
	}

	cells := make([]types.Cell, 0, len(*probe.Cells))
	for _, raw := range *probe.Cells {
		var cell types.Cell
		if err := sonic.ConfigStd.Unmarshal(raw, &cell); err != nil {
			// Not an object. The cells around it still decode.
			continue
		}
		cells = append(cells, cell)
	}

	return d.decodeCells(cells, probe.Metadata), nil
}

// DecodeDocument converts an already parsed document, as returned by the
// remote server client.
func (d *Decoder) DecodeDocument(doc *types.Document) *Decoded {
	meta := doc.Metadata
	return d.decodeCells(doc.Cells, &meta)
}

func (d *Decoder) decodeCells(cells []types.Cell, meta *types.DocMetadata) *Decoded {
	next := maxExplicitID(cells) + 1

	out := &Decoded{Candidates: []Candidate{}, Metadata: meta}
	for _, cell := range cells {
		m := cell.Metadata
		text := cell.Source.Text()

		// Nothing to restore: no window metadata and no content.
		if !m.HasWindowKeys() && strings.TrimSpace(text) == "" {
			continue
		}

		cand := Candidate{
			Kind:     d.resolver.Kind(m),
			Position: d.resolver.Position(m),
		}
		cand.CreatedAt, cand.Modified = d.resolver.Timestamps(m)

		if m.WindowID != nil {
			cand.ID = *m.WindowID
		} else {
			cand.ID = next
			cand.Synthetic = true
			next++
		}

		minimized, maximized := d.resolver.Flags(m)
		cand.State = types.WindowState{
			Content:        d.content(text, m),
			Tags:           d.resolver.Tags(m),
			ExportTemplate: d.resolver.Template(m),
			IsMinimized:    minimized,
			IsMaximized:    maximized,
			Opacity:        d.resolver.Opacity(m),
		}

		if cand.Kind == types.KindDataTable {
			if df, ok := FrameFromOutputs(cell.Outputs); ok {
				cand.State.DataFrame = df
			}
		}

		out.Candidates = append(out.Candidates, cand)
	}
	return out
}

// content recovers the window content from the cell source. For annotated
// cells this system exported, the synthesized header is rebuilt from the
// cell's own metadata and stripped only on an exact prefix match, and a
// recognized kind template restores to empty. Anything else, including
// hand-edited headers, survives verbatim.
func (d *Decoder) content(text string, m types.CellMetadata) string {
	if !m.HasWindowKeys() || m.WindowID == nil {
		return text
	}
	if d.resolver.Template(m) == types.TemplatePlain {
		return text
	}

	id := *m.WindowID
	kind := d.resolver.Kind(m)

	if text == TemplateBody(kind, id) {
		return ""
	}

	created := ""
	if m.Timestamps != nil {
		created = m.Timestamps.Created
	}
	header := buildHeader(CellTypeFor(kind), id, kind, created, d.resolver.Position(m)) + "\n"
	if strings.HasPrefix(text, header) {
		return text[len(header):]
	}
	return text
}

// maxExplicitID finds the highest window id declared in the document, so
// synthetic ids for foreign cells start beyond it.
func maxExplicitID(cells []types.Cell) int {
	max := 0
	for _, cell := range cells {
		if cell.Metadata.WindowID != nil && *cell.Metadata.WindowID > max {
			max = *cell.Metadata.WindowID
		}
	}
	return max
}
