// File: internal/pkg/metrics/http_metrics_test.go
package metrics

import (
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPMetrics_RecordRequest(t *testing.T) {
	tests := []struct {
		name       string
		route      string
		wantRoute  string
		method     string
		statusCode int
	}{
		{name: "创建战斗 - 200", route: "/api/battle/start", wantRoute: "/api/battle/start", method: "POST", statusCode: 200},
		{name: "查询战斗 - 404", route: "/api/battle/:id", wantRoute: "/api/battle/:id", method: "GET", statusCode: 404},
		{name: "未匹配路由", route: "", wantRoute: "unknown", method: "GET", statusCode: 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := prometheus.NewRegistry()
			m := NewHTTPMetricsWithRegistry("test", reg)

			m.RecordRequest("battle", tt.route, tt.method, tt.statusCode, 100*time.Millisecond)

			count := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("battle", tt.wantRoute, tt.method, strconv.Itoa(tt.statusCode)))
			assert.Equal(t, float64(1), count)
		})
	}
}

func TestHTTPMetrics_InProgress(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWithRegistry("test", reg)

	m.IncInProgress("battle")
	m.IncInProgress("battle")
	m.DecInProgress("battle")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsInProgress.WithLabelValues("battle")))
}

func TestIsHealthCheckEndpoint(t *testing.T) {
	assert.True(t, IsHealthCheckEndpoint("/metrics"))
	assert.True(t, IsHealthCheckEndpoint("/health"))
	assert.False(t, IsHealthCheckEndpoint("/api/battle/start"))
}
