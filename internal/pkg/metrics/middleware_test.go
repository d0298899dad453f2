// File: internal/pkg/metrics/middleware_test.go
package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"career-royale/internal/pkg/ctxkey"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWithRegistry("test", reg)
	SetServiceName("battle")
	t.Cleanup(func() { SetServiceName("") })

	e := echo.New()
	e.Use(Middleware(m))
	var method string
	e.GET("/api/battle/:id", func(c echo.Context) error {
		method = ctxkey.GetString(c.Request().Context(), ctxkey.HTTPMethod)
		return c.NoContent(http.StatusNoContent)
	})
	e.GET("/metrics", EchoHandler(reg))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/battle/abc", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.MethodGet, method)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("battle", "/api/battle/:id", "GET", "204")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.RequestsInProgress.WithLabelValues("battle")))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestBattleMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBattleMetricsWithRegistry("test", reg)

	m.RecordCreated("hard")
	m.StreamStarted()
	m.RecordDialogueCall("question", 10*time.Millisecond, true)
	m.RecordDialogueCall("answer", 10*time.Millisecond, false)
	m.RecordFinished("hard", "B", 3*time.Second)
	m.StreamStopped()
	m.RecordReaped(2, 5)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.BattlesCreated.WithLabelValues("hard")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.BattlesFinished.WithLabelValues("hard", "B")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DialogueFallbacks.WithLabelValues("question")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.DialogueFallbacks.WithLabelValues("answer")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.StreamsActive))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BattlesReaped))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.BattlesStored))
}

func TestBattleMetricsNilSafe(t *testing.T) {
	var m *BattleMetrics
	assert.NotPanics(t, func() {
		m.RecordCreated("easy")
		m.RecordFinished("easy", "A", time.Second)
		m.RecordCancelled("easy", time.Second)
		m.StreamStarted()
		m.StreamStopped()
		m.RecordDialogueCall("answer", time.Second, true)
		m.RecordReaped(1, 0)
		m.SetStored(3)
	})
}
