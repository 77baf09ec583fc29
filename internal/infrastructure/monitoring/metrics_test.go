package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	return NewMetricsWith(prometheus.NewRegistry())
}

func TestSnapshotTracksRequests(t *testing.T) {
	m := newTestMetrics()

	m.RecordHTTPRequest("GET", "/windows", "200", 10*time.Millisecond, 0, 128)
	m.RecordHTTPRequest("POST", "/windows", "400", 20*time.Millisecond, 64, 32)
	m.RecordHTTPRequest("GET", "/health", "500", 30*time.Millisecond, 0, 16)

	snap := m.GetSnapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.TotalErrors)
	assert.InDelta(t, 20.0, snap.AvgDurationMS, 0.5)
}

func TestSnapshotTracksGauges(t *testing.T) {
	m := newTestMetrics()

	m.SetWindowsActive(7)
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	snap := m.GetSnapshot()
	assert.Equal(t, int64(7), snap.ActiveWindows)
	assert.Equal(t, int64(1), snap.ActiveConnections)
}

func TestMiddlewareRecordsHandledRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/windows/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})

	req := httptest.NewRequest(http.MethodGet, "/windows/3", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	snap := m.GetSnapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(0), snap.TotalErrors)
}

func TestTimerRecordsRemoteCalls(t *testing.T) {
	m := newTestMetrics()

	timer := NewTimer(m, "execute")
	time.Sleep(time.Millisecond)
	timer.Stop("ok")

	// A nil-metrics timer is a no-op.
	NewTimer(nil, "execute").Stop("ok")
}
