package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_ObserveSync(t *testing.T) {
	p := New()
	p.ObserveSync("memo", "push", nil, 10*time.Millisecond)
	p.ObserveSync("memo", "push", errors.New("boom"), time.Millisecond)
	p.ObserveSync("memo", "push", nil, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(p.syncTotal.WithLabelValues("memo", "push", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(p.syncTotal.WithLabelValues("memo", "push", "error")))

	p.SetRecords("deposit", 4)
	assert.Equal(t, float64(4), testutil.ToFloat64(p.recordsTotal.WithLabelValues("deposit")))
}

func TestProvider_InstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.SetRecords("memo", 1)
	b.SetRecords("memo", 2)
	assert.Equal(t, float64(1), testutil.ToFloat64(a.recordsTotal.WithLabelValues("memo")))
}

func TestProvider_HandlerAndTextfile(t *testing.T) {
	p := New()
	p.ObserveRequest("/api/login", 200, time.Millisecond)
	p.ObserveRequest("/api/login", 401, time.Millisecond)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `daybook_server_requests_total{route="/api/login",status="4xx"} 1`)

	path := filepath.Join(t.TempDir(), "daybook.prom")
	require.NoError(t, p.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "daybook_server_request_duration_seconds"))

	assert.NoError(t, p.WriteTextfile(""))
}

func TestStatusBucket(t *testing.T) {
	assert.Equal(t, "2xx", statusBucket(204))
	assert.Equal(t, "4xx", statusBucket(404))
	assert.Equal(t, "5xx", statusBucket(503))
}
