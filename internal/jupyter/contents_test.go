package jupyter

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrery-labs/orrery/backend/internal/shared/types"
)

func TestListNotebooks(t *testing.T) {
	var gotType atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType.Store(r.URL.Query().Get("type"))
		writeJSON(w, http.StatusOK, listingBody)
	}))

	entries, err := c.ListNotebooks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "notebook", gotType.Load())

	require.Len(t, entries, 2)
	assert.Equal(t, "alpha", entries[0].Name)
	assert.Equal(t, "work/alpha.ipynb", entries[0].Path)
	assert.Equal(t, int64(256), entries[0].Size)
	assert.Equal(t, time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC), entries[0].LastModified)
	assert.Equal(t, "beta", entries[1].Name)
}

func TestListNotebooksKeepsCacheOnFailure(t *testing.T) {
	var fail atomic.Bool
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeJSON(w, http.StatusUnauthorized, `{"message":"token expired"}`)
			return
		}
		writeJSON(w, http.StatusOK, listingBody)
	}))

	first, err := c.ListNotebooks(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	fail.Store(true)
	_, err = c.ListNotebooks(context.Background())
	require.Error(t, err)

	cached := c.Notebooks()
	require.Len(t, cached, 2, "a failed refresh must not clobber the cache")
	assert.Equal(t, "alpha", cached[0].Name)
}

func TestListNotebooksRetriesServerErrors(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			writeJSON(w, http.StatusInternalServerError, `{"message":"warming up"}`)
			return
		}
		writeJSON(w, http.StatusOK, listingBody)
	}))

	entries, err := c.ListNotebooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchNotebook(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/contents/report.ipynb", r.URL.Path)
		require.Equal(t, "1", r.URL.Query().Get("content"))
		writeJSON(w, http.StatusOK, `{"name":"report.ipynb","path":"report.ipynb","content":{
			"cells":[{"cell_type":"code","source":["plot()"],"metadata":{"window_id":1,"window_type":"chart"},"outputs":[],"execution_count":null}],
			"metadata":{},"nbformat":4,"nbformat_minor":5
		}}`)
	}))

	doc, err := c.FetchNotebook(context.Background(), "report.ipynb")
	require.NoError(t, err)

	assert.Equal(t, 4, doc.NBFormat)
	require.Len(t, doc.Cells, 1)
	require.NotNil(t, doc.Cells[0].Metadata.WindowID)
	assert.Equal(t, 1, *doc.Cells[0].Metadata.WindowID)
	assert.Equal(t, "chart", doc.Cells[0].Metadata.WindowType)
}

func TestFetchNotebookMissing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(http.NotFound))

	_, err := c.FetchNotebook(context.Background(), "gone.ipynb")
	require.Error(t, err)

	kind, ok := types.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, types.ErrFileRead, kind)
}

func TestFetchNotebookEmptyPath(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty path")
	}))

	_, err := c.FetchNotebook(context.Background(), "  ")
	require.Error(t, err)
	kind, _ := types.KindOf(err)
	assert.Equal(t, types.ErrFileRead, kind)
}

func TestFetchNotebookEscapesPath(t *testing.T) {
	var escaped atomic.Value
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		escaped.Store(r.URL.EscapedPath())
		writeJSON(w, http.StatusOK, `{"content":{"cells":[],"metadata":{},"nbformat":4,"nbformat_minor":5}}`)
	}))

	_, err := c.FetchNotebook(context.Background(), "sub dir/nb 1.ipynb")
	require.NoError(t, err)
	assert.Equal(t, "/api/contents/sub%20dir/nb%201.ipynb", escaped.Load())
}

func TestFetchNotebookGarbageContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"content":5}`)
	}))

	_, err := c.FetchNotebook(context.Background(), "weird.ipynb")
	require.Error(t, err)
	kind, _ := types.KindOf(err)
	assert.Equal(t, types.ErrDocumentParse, kind)
}

func TestFetchNotebookNoContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"name":"empty.ipynb","path":"empty.ipynb"}`)
	}))

	_, err := c.FetchNotebook(context.Background(), "empty.ipynb")
	require.Error(t, err)
	kind, _ := types.KindOf(err)
	assert.Equal(t, types.ErrDocumentParse, kind)
}
