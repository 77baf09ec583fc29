package http

import (
	"net/http"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
	"github.com/orrery-labs/orrery/backend/internal/shared/utils"
)

func seedWorkspace(t *testing.T, h *Handlers) {
	t.Helper()
	h.store.Create(types.KindChart, 1, defaultPosition)
	h.store.Update(1, func(rec *types.WindowRecord) { rec.State.Content = "alpha()" })
	h.store.Create(types.KindDataTable, 2, defaultPosition)
	h.store.Update(2, func(rec *types.WindowRecord) { rec.State.Content = "beta()" })
}

func TestExportWorkspaceDownload(t *testing.T) {
	h, router := newTestHandlers(t)
	seedWorkspace(t, h)

	w := perform(t, router, http.MethodPost, "/workspace/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "workspace.ipynb")
	assert.Equal(t, ipynbContentType, w.Header().Get("Content-Type"))

	var doc types.Document
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &doc))
	assert.Len(t, doc.Cells, 2)
	assert.Equal(t, 4, doc.NBFormat)
}

func TestImportWorkspaceRoundTrip(t *testing.T) {
	h, router := newTestHandlers(t)
	seedWorkspace(t, h)

	exported := perform(t, router, http.MethodPost, "/workspace/export", nil)
	require.Equal(t, http.StatusOK, exported.Code)

	w := performRaw(t, router, http.MethodPost, "/workspace/import?clear_existing=true", exported.Body.Bytes())
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Len(t, body["restored_windows"], 2)
	assert.Empty(t, body["errors"])

	require.Equal(t, 2, h.store.Count())
	rec, ok := h.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "alpha()", rec.State.Content)
	assert.Equal(t, types.KindChart, rec.Kind)
}

func TestReimportIsIdempotent(t *testing.T) {
	h, router := newTestHandlers(t)
	seedWorkspace(t, h)

	exported := perform(t, router, http.MethodPost, "/workspace/export", nil)

	// Without clearing, each candidate finds its own prior export in place
	// and refreshes it instead of spawning a duplicate.
	w := performRaw(t, router, http.MethodPost, "/workspace/import", exported.Body.Bytes())
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, h.store.Count())

	mapping := decodeBody(t, w)["id_mapping"].(map[string]interface{})
	assert.Equal(t, float64(1), mapping["1"])
	assert.Equal(t, float64(2), mapping["2"])
}

func TestImportRemapsCollidingWindow(t *testing.T) {
	h, router := newTestHandlers(t)
	seedWorkspace(t, h)

	exported := perform(t, router, http.MethodPost, "/workspace/export", nil)

	// Rewriting window 1 changes its identity, so the imported candidate
	// no longer matches the occupant and must land on a fresh id.
	h.store.Update(1, func(rec *types.WindowRecord) { rec.State.Content = "rewritten()" })

	w := performRaw(t, router, http.MethodPost, "/workspace/import", exported.Body.Bytes())
	require.Equal(t, http.StatusOK, w.Code)

	mapping := decodeBody(t, w)["id_mapping"].(map[string]interface{})
	assert.Equal(t, float64(3), mapping["1"])
	assert.Equal(t, float64(2), mapping["2"])
	assert.Equal(t, 3, h.store.Count())

	kept, _ := h.store.Get(1)
	assert.Equal(t, "rewritten()", kept.State.Content, "the occupant stays untouched")
	moved, ok := h.store.Get(3)
	require.True(t, ok)
	assert.Equal(t, "alpha()", moved.State.Content)
}

func TestImportRejectsGarbage(t *testing.T) {
	_, router := newTestHandlers(t)

	w := performRaw(t, router, http.MethodPost, "/workspace/import", []byte("{not-a-notebook"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, decodeBody(t, w)["error"])
}

func TestImportRejectsOversizedDocument(t *testing.T) {
	_, router := newTestHandlers(t)

	w := performRaw(t, router, http.MethodPost, "/workspace/import", make([]byte, utils.MaxDocumentSize+1))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestWorkspaceStats(t *testing.T) {
	h, router := newTestHandlers(t)
	seedWorkspace(t, h)
	h.store.Update(2, func(rec *types.WindowRecord) {
		rec.State.DataFrame = &types.DataFrameData{
			Columns: []string{"v"},
			Rows:    [][]string{{"1"}, {"2"}, {"3"}},
		}
	})

	w := perform(t, router, http.MethodGet, "/workspace/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	stats := body["workspace"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total_windows"])
	assert.Equal(t, float64(2), stats["max_id"])
	assert.Nil(t, body["last_export_at"], "no export has happened yet")

	frames := body["frames"].(map[string]interface{})
	summaries := frames["2"].([]interface{})
	require.Len(t, summaries, 1)
	col := summaries[0].(map[string]interface{})
	assert.Equal(t, "v", col["column"])
	assert.Equal(t, float64(3), col["count"])
	assert.Equal(t, float64(2), col["mean"])

	perform(t, router, http.MethodPost, "/workspace/export", nil)
	body = decodeBody(t, perform(t, router, http.MethodGet, "/workspace/stats", nil))
	assert.NotEmpty(t, body["last_export_at"])
}
