package notebook

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// Encode converts window records into a notebook document, one cell per
// record in ascending id order. Cell generation is deterministic; only the
// document's export_date stamp varies between runs.
func Encode(records []types.WindowRecord) *types.Document {
	sorted := make([]types.WindowRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	cells := make([]types.Cell, 0, len(sorted))
	kindSet := make(map[string]struct{})
	for _, rec := range sorted {
		cells = append(cells, encodeCell(rec))
		kindSet[string(rec.Kind)] = struct{}{}
	}

	kinds := make([]string, 0, len(kindSet))
	for k := range kindSet {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	return &types.Document{
		Cells: cells,
		Metadata: types.DocMetadata{
			Export: &types.ExportStamp{
				ExportDate:   formatTime(time.Now()),
				TotalWindows: len(sorted),
				WindowTypes:  kinds,
			},
			Extra: docExtra(),
		},
		NBFormat:      types.NBFormat,
		NBFormatMinor: types.NBFormatMinor,
	}
}

// docExtra supplies the kernelspec and language hints foreign notebook
// tools expect to find in document metadata.
func docExtra() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		"kernelspec":    json.RawMessage(`{"display_name":"Python 3","language":"python","name":"python3"}`),
		"language_info": json.RawMessage(`{"name":"python"}`),
	}
}

func encodeCell(rec types.WindowRecord) types.Cell {
	cellType := CellTypeFor(rec.Kind)
	created := formatTime(rec.CreatedAt)

	state := rec.State.Clone()
	state.NormalizeTags()
	opacity := state.Opacity

	cell := types.Cell{
		CellType: cellType,
		Source:   types.SplitLines(buildSource(rec, cellType, created)),
		Metadata: types.CellMetadata{
			WindowID:   &rec.ID,
			WindowType: string(rec.Kind),
			Position:   &rec.Position,
			State: &types.StateMeta{
				Minimized:      state.IsMinimized,
				Maximized:      state.IsMaximized,
				Opacity:        &opacity,
				Tags:           state.Tags,
				ExportTemplate: string(resolveTemplate(rec)),
			},
			Timestamps: &types.TimestampsMeta{
				Created:  created,
				Modified: formatTime(rec.LastModified),
			},
		},
	}
	if cellType == types.CellCode {
		cell.Outputs = previewOutputs(rec)
	}
	return cell
}

func resolveTemplate(rec types.WindowRecord) types.ExportTemplate {
	if rec.State.ExportTemplate == types.TemplatePlain {
		return types.TemplatePlain
	}
	return types.TemplateAnnotated
}

// buildSource renders the cell source: content verbatim for plain
// templates, a kind template for empty annotated windows, and a header
// plus content otherwise.
func buildSource(rec types.WindowRecord, cellType, created string) string {
	if resolveTemplate(rec) == types.TemplatePlain {
		return rec.State.Content
	}
	if rec.State.Content == "" {
		return TemplateBody(rec.Kind, rec.ID)
	}
	return buildHeader(cellType, rec.ID, rec.Kind, created, rec.Position) + "\n" + rec.State.Content
}

// Marshal renders a document as indented notebook JSON with a trailing
// newline, matching the layout notebook tooling writes.
func Marshal(doc *types.Document) ([]byte, error) {
	data, err := sonic.ConfigStd.MarshalIndent(doc, "", " ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Export encodes and marshals in one step.
func Export(records []types.WindowRecord) ([]byte, error) {
	return Marshal(Encode(records))
}
