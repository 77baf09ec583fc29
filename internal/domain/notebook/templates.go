package notebook

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

// CellTypeFor maps a window kind to its notebook cell type. Spatial editors
// hold prose and export as markdown; every other kind exports as code.
func CellTypeFor(kind types.Kind) string {
	if kind == types.KindSpatialEditor {
		return types.CellMarkdown
	}
	return types.CellCode
}

// TemplateBody is the source written for a window with no content. It is a
// pure function of kind and id, so the decoder can recognize the template
// and restore the content to empty.
func TemplateBody(kind types.Kind, id int) string {
	switch kind {
	case types.KindSpatialEditor:
		return fmt.Sprintf("## Window %d\n\n_Empty spatial editor._\n", id)
	case types.KindChart:
		return fmt.Sprintf("# Window %d (chart)\n# Add plotting code\n", id)
	case types.KindDataTable:
		return fmt.Sprintf("# Window %d (dataTable)\n# Load a data frame\n", id)
	case types.KindVolumeMetric:
		return fmt.Sprintf("# Window %d (volumeMetric)\n# Compute a metric\n", id)
	case types.KindPointCloud:
		return fmt.Sprintf("# Window %d (pointCloud)\n# Load a point cloud asset\n", id)
	case types.KindModel3D:
		return fmt.Sprintf("# Window %d (model3d)\n# Load a model asset\n", id)
	default:
		return fmt.Sprintf("# Window %d\n", id)
	}
}

// buildHeader synthesizes the annotated header prepended to non-empty
// content. The created argument is the exact ISO-8601 text stored in cell
// metadata, which lets the decoder rebuild the header byte for byte and
// strip it on an exact match.
func buildHeader(cellType string, id int, kind types.Kind, created string, pos types.Position) string {
	geo := fmt.Sprintf("(%s, %s, %s) %sx%s",
		formatFloat(pos.X), formatFloat(pos.Y), formatFloat(pos.Z),
		formatFloat(pos.Width), formatFloat(pos.Height))

	var b strings.Builder
	if cellType == types.CellMarkdown {
		fmt.Fprintf(&b, "<!-- window %d (%s) -->\n", id, kind)
		fmt.Fprintf(&b, "<!-- created %s position %s -->\n", created, geo)
		return b.String()
	}

	fmt.Fprintf(&b, "# Window %d (%s)\n", id, kind)
	fmt.Fprintf(&b, "# Created: %s\n", created)
	fmt.Fprintf(&b, "# Position: %s\n", geo)
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// formatTime renders timestamps the way cell metadata stores them.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
