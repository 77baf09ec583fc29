package notebook

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tablePolicy reduces imported HTML to bare table markup before parsing.
// br survives so that multi-line cells keep their value boundaries.
var tablePolicy = func() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("table", "thead", "tbody", "tr", "th", "td", "caption", "br")
	p.SkipElementsContent("script", "style")
	return p
}()

// outputPolicy strips active content from kernel-supplied HTML. Sessions
// carrying these outputs are returned to callers and broadcast to stream
// clients, so script and event-handler markup must not survive.
var outputPolicy = bluemonday.UGCPolicy()

// SanitizeOutputs returns outputs with every text/html payload run through
// the output policy. Other mime entries pass through untouched; outputs
// without HTML are shared with the input slice.
func SanitizeOutputs(outputs []types.Output) []types.Output {
	if len(outputs) == 0 {
		return outputs
	}
	clean := make([]types.Output, len(outputs))
	for i, out := range outputs {
		clean[i] = sanitizeOutput(out)
	}
	return clean
}

func sanitizeOutput(out types.Output) types.Output {
	v, ok := out.Data["text/html"]
	if !ok {
		return out
	}
	data := make(map[string]interface{}, len(out.Data))
	for k, val := range out.Data {
		data[k] = val
	}
	switch h := v.(type) {
	case string:
		data["text/html"] = outputPolicy.Sanitize(h)
	case []interface{}:
		parts := make([]interface{}, len(h))
		for i, part := range h {
			if s, ok := part.(string); ok {
				parts[i] = outputPolicy.Sanitize(s)
			} else {
				parts[i] = part
			}
		}
		data["text/html"] = parts
	}
	out.Data = data
	return out
}

// previewOutputs renders a window's payload as cell outputs. Previews are
// derived data: the decoder does not require them and round-trip equality
// ignores them.
func previewOutputs(rec types.WindowRecord) []types.Output {
	switch {
	case rec.State.DataFrame != nil:
		return frameOutputs(rec.State.DataFrame)
	case rec.State.PointCloud != nil:
		pc := rec.State.PointCloud
		text := fmt.Sprintf("point cloud: %d points", pc.PointCount)
		if pc.AssetPath != "" {
			text += " (" + pc.AssetPath + ")"
		}
		return plainOutput(text)
	case rec.State.Model3D != nil:
		m := rec.State.Model3D
		text := "3d model: " + m.AssetPath
		if m.Format != "" {
			text += " (" + m.Format + ")"
		}
		return plainOutput(text)
	}
	return nil
}

func plainOutput(text string) []types.Output {
	return []types.Output{{
		OutputType: types.OutputDisplayData,
		Data:       map[string]interface{}{"text/plain": text},
		Metadata:   map[string]interface{}{},
	}}
}

func frameOutputs(df *types.DataFrameData) []types.Output {
	return []types.Output{{
		OutputType: types.OutputDisplayData,
		Data: map[string]interface{}{
			"text/plain": frameText(df),
			"text/html":  RenderFrameHTML(df),
		},
		Metadata: map[string]interface{}{},
	}}
}

func frameText(df *types.DataFrameData) string {
	var b strings.Builder
	b.WriteString(strings.Join(df.Columns, "\t"))
	for _, row := range df.Rows {
		b.WriteString("\n")
		b.WriteString(strings.Join(row, "\t"))
	}
	fmt.Fprintf(&b, "\n[%d rows x %d columns]", len(df.Rows), len(df.Columns))
	return b.String()
}

// RenderFrameHTML renders a frame as an HTML table with escaped cell text.
func RenderFrameHTML(df *types.DataFrameData) string {
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, col := range df.Columns {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(col))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range df.Rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

// ExtractTable parses the first HTML table in the input into a frame,
// computing column summaries along the way. The input is sanitized down to
// table markup before parsing since it typically arrives from foreign
// notebook outputs.
func ExtractTable(input string) (*types.DataFrameData, bool) {
	clean := tablePolicy.Sanitize(input)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return nil, false
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, false
	}

	// Auto-detect headers from th cells in the first row
	hasHeaders := table.Find("tr").First().Find("th").Length() > 0

	var df types.DataFrameData
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 && hasHeaders {
			row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				df.Columns = append(df.Columns, cellText(cell))
			})
			return
		}
		var cells []string
		row.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, cellText(cell))
		})
		if len(cells) > 0 {
			df.Rows = append(df.Rows, cells)
		}
	})

	if len(df.Columns) == 0 && len(df.Rows) > 0 {
		for i := range df.Rows[0] {
			df.Columns = append(df.Columns, fmt.Sprintf("col_%d", i+1))
		}
	}
	if len(df.Columns) == 0 {
		return nil, false
	}

	df.Summaries = Summarize(&df)
	return &df, true
}

// cellText flattens a cell subtree into one line. goquery's Text joins
// text nodes with no separator, which fuses values split by br.
func cellText(sel *goquery.Selection) string {
	var b strings.Builder
	for _, node := range sel.Nodes {
		flattenText(node, &b)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func flattenText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Br {
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flattenText(c, b)
	}
}

// FrameFromOutputs recovers a tabular payload from rendered cell outputs,
// if any of them carries an HTML table.
func FrameFromOutputs(outputs []types.Output) (*types.DataFrameData, bool) {
	for _, out := range outputs {
		if out.OutputType != types.OutputExecuteResult && out.OutputType != types.OutputDisplayData {
			continue
		}
		if payload, ok := htmlPayload(out); ok {
			if df, ok := ExtractTable(payload); ok {
				return df, true
			}
		}
	}
	return nil, false
}

// htmlPayload extracts the text/html entry of a mime bundle, which the
// notebook format stores as either a string or a list of fragments.
func htmlPayload(out types.Output) (string, bool) {
	v, ok := out.Data["text/html"]
	if !ok {
		return "", false
	}
	switch h := v.(type) {
	case string:
		return h, h != ""
	case []interface{}:
		var b strings.Builder
		for _, part := range h {
			if s, ok := part.(string); ok {
				b.WriteString(s)
			}
		}
		return b.String(), b.Len() > 0
	}
	return "", false
}

// ErrorFromOutputs surfaces a server-reported error output as a typed
// execution failure, or nil when every output is benign.
func ErrorFromOutputs(outputs []types.Output) *types.Error {
	for _, out := range outputs {
		if out.OutputType != types.OutputError {
			continue
		}
		msg := out.EName
		if out.EValue != "" {
			if msg != "" {
				msg += ": "
			}
			msg += out.EValue
		}
		if msg == "" {
			msg = "execution returned an error output"
		}
		return types.NewError(types.ErrExecutionFailure, msg)
	}
	return nil
}
