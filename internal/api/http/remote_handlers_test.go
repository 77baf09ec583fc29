package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orrery-labs/orrery/backend/internal/infrastructure/config"
)

const remoteListing = `{"content":[
	{"name":"beta.ipynb","path":"beta.ipynb","type":"notebook","size":128,"last_modified":"2025-05-02T09:00:00Z"}
]}`

const remoteDocument = `{"name":"beta.ipynb","path":"beta.ipynb","content":{
	"cells":[
		{"cell_type":"code","source":["plot()"],"metadata":{"window_id":1,"window_type":"chart"},"outputs":[],"execution_count":null},
		{"cell_type":"code","source":["frame()"],"metadata":{"window_id":2,"window_type":"dataTable"},"outputs":[],"execution_count":null}
	],
	"metadata":{},"nbformat":4,"nbformat_minor":5}}`

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// notebookServer fakes the consumed slice of the remote API: contents
// listing and fetch, kernel lifecycle, cell execution.
func notebookServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/contents":
			writeBody(w, http.StatusOK, remoteListing)
		case r.Method == http.MethodGet && r.URL.Path == "/api/contents/beta.ipynb":
			writeBody(w, http.StatusOK, remoteDocument)
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/contents/"):
			writeBody(w, http.StatusNotFound, `{"message":"No such file"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/kernels":
			writeBody(w, http.StatusCreated, `{"id":"k-1","name":"python3","execution_state":"idle"}`)
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/kernels/"):
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/execute"):
			writeBody(w, http.StatusOK, `{"status":"ok","execution_count":1,"outputs":[
				{"output_type":"execute_result","data":{"text/plain":"4"},"execution_count":1}
			]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// connectTo points the remote client at the given server through the API.
func connectTo(t *testing.T, router *gin.Engine, baseURL string) {
	t.Helper()
	w := perform(t, router, http.MethodPost, "/remote/connect", gin.H{"base_url": baseURL})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestConnectRemote(t *testing.T) {
	_, router := newTestHandlers(t)
	srv := notebookServer(t)

	w := perform(t, router, http.MethodPost, "/remote/connect", gin.H{"base_url": srv.URL})
	require.Equal(t, http.StatusOK, w.Code)

	status := decodeBody(t, w)["status"].(map[string]interface{})
	assert.Equal(t, "connected", status["state"])
	assert.Equal(t, srv.URL, status["base_url"])

	w = perform(t, router, http.MethodGet, "/remote/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "connected", body["state"])
	assert.Equal(t, "none", body["kernel_state"])
}

func TestConnectRemoteFailure(t *testing.T) {
	_, router := newTestHandlers(t)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	w := perform(t, router, http.MethodPost, "/remote/connect", gin.H{"base_url": dead.URL})
	require.Equal(t, http.StatusBadGateway, w.Code)

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["error"])
	status := body["status"].(map[string]interface{})
	assert.Equal(t, "disconnected", status["state"])
	assert.NotEmpty(t, status["connection_error"])
}

func TestConnectRemoteProfiles(t *testing.T) {
	h, router := newTestHandlers(t)
	srv := notebookServer(t)
	h.WithRemoteConfig(config.RemoteConfig{TimeoutSeconds: 2}, &config.Profiles{Profiles: map[string]config.Profile{
		"lab": {BaseURL: srv.URL},
	}})

	w := perform(t, router, http.MethodPost, "/remote/connect", gin.H{"profile": "lab"})
	require.Equal(t, http.StatusOK, w.Code)
	status := decodeBody(t, w)["status"].(map[string]interface{})
	assert.Equal(t, srv.URL, status["base_url"])

	w = perform(t, router, http.MethodPost, "/remote/connect", gin.H{"profile": "nope"})
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Contains(t, body["error"], "nope")
	assert.Equal(t, []interface{}{"lab"}, body["profiles"])
}

func TestConnectRemoteRejectsBadURL(t *testing.T) {
	_, router := newTestHandlers(t)

	for _, raw := range []string{"ftp://host", "host.without.scheme", "http://"} {
		w := perform(t, router, http.MethodPost, "/remote/connect", gin.H{"base_url": raw})
		assert.Equal(t, http.StatusBadRequest, w.Code, "base_url %q must be rejected", raw)
	}
}

func TestRemoteNotebooks(t *testing.T) {
	_, router := newTestHandlers(t)
	srv := notebookServer(t)
	connectTo(t, router, srv.URL)

	w := perform(t, router, http.MethodGet, "/remote/notebooks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, float64(1), body["count"])
	entry := body["notebooks"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "beta", entry["name"])
}

func TestRemoteNotebooksServeCacheOnFailure(t *testing.T) {
	_, router := newTestHandlers(t)

	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			writeBody(w, http.StatusUnauthorized, `{"message":"token expired"}`)
			return
		}
		writeBody(w, http.StatusOK, remoteListing)
	}))
	t.Cleanup(srv.Close)
	connectTo(t, router, srv.URL)

	fail.Store(true)
	w := perform(t, router, http.MethodGet, "/remote/notebooks", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["cached"])
	assert.NotEmpty(t, body["error"])
	notebooks := body["notebooks"].([]interface{})
	require.Len(t, notebooks, 1, "the stale listing still serves")
}

func TestImportRemoteNotebook(t *testing.T) {
	h, router := newTestHandlers(t)
	srv := notebookServer(t)
	connectTo(t, router, srv.URL)

	w := perform(t, router, http.MethodPost, "/remote/notebooks/import", gin.H{"path": "beta.ipynb"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Len(t, body["restored_windows"], 2)
	assert.Empty(t, body["errors"])
	assert.Equal(t, 2, h.store.Count())

	rec, ok := h.store.Get(1)
	require.True(t, ok)
	assert.Equal(t, "plot()", rec.State.Content)
}

func TestImportRemoteNotebookMissing(t *testing.T) {
	_, router := newTestHandlers(t)
	srv := notebookServer(t)
	connectTo(t, router, srv.URL)

	w := perform(t, router, http.MethodPost, "/remote/notebooks/import", gin.H{"path": "ghost.ipynb"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = perform(t, router, http.MethodPost, "/remote/notebooks/import", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code, "path is required")
}

func TestKernelLifecycleEndpoints(t *testing.T) {
	_, router := newTestHandlers(t)
	srv := notebookServer(t)
	connectTo(t, router, srv.URL)

	w := perform(t, router, http.MethodPost, "/remote/kernel/start", nil)
	require.Equal(t, http.StatusOK, w.Code)
	kernel := decodeBody(t, w)["kernel"].(map[string]interface{})
	assert.Equal(t, "k-1", kernel["id"])

	body := decodeBody(t, perform(t, router, http.MethodGet, "/remote/status", nil))
	assert.Equal(t, "running", body["kernel_state"])

	w = perform(t, router, http.MethodPost, "/remote/kernel/stop", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body = decodeBody(t, perform(t, router, http.MethodGet, "/remote/status", nil))
	assert.Equal(t, "none", body["kernel_state"])
}

func TestExecuteCellEndpoint(t *testing.T) {
	_, router := newTestHandlers(t)
	srv := notebookServer(t)
	connectTo(t, router, srv.URL)
	require.Equal(t, http.StatusOK, perform(t, router, http.MethodPost, "/remote/kernel/start", nil).Code)

	w := perform(t, router, http.MethodPost, "/remote/execute", gin.H{"cell_id": "cell-1", "code": "2+2"})
	require.Equal(t, http.StatusOK, w.Code)

	sess := decodeBody(t, w)["session"].(map[string]interface{})
	assert.Equal(t, "cell-1", sess["cell_id"])
	assert.Equal(t, float64(1), sess["execution_count"])
	assert.Equal(t, false, sess["is_executing"])
	require.Len(t, sess["outputs"], 1)

	body := decodeBody(t, perform(t, router, http.MethodGet, "/remote/sessions", nil))
	assert.Equal(t, float64(1), body["count"])

	w = perform(t, router, http.MethodGet, "/remote/sessions/cell-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(t, router, http.MethodGet, "/remote/sessions/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExecuteCellWithoutKernel(t *testing.T) {
	_, router := newTestHandlers(t)
	srv := notebookServer(t)
	connectTo(t, router, srv.URL)

	w := perform(t, router, http.MethodPost, "/remote/execute", gin.H{"cell_id": "cell-9", "code": "x"})
	require.Equal(t, http.StatusConflict, w.Code)

	body := decodeBody(t, w)
	assert.NotEmpty(t, body["error"])
	sess := body["session"].(map[string]interface{})
	assert.NotEmpty(t, sess["error"], "the rejection lands on the session record")

	w = perform(t, router, http.MethodGet, "/remote/sessions/cell-9", nil)
	assert.Equal(t, http.StatusOK, w.Code, "the failed attempt still created a session")
}

func TestExecuteCellRequiresCellID(t *testing.T) {
	_, router := newTestHandlers(t)

	w := perform(t, router, http.MethodPost, "/remote/execute", gin.H{"code": "2+2"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
