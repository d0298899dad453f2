// File: internal/pkg/metrics/middleware.go
package metrics

import (
	"errors"
	"net/http"
	"time"

	"career-royale/internal/pkg/ctxkey"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware 记录 HTTP 请求指标，并将 HTTP 方法写入 context
func Middleware(m *HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := ctxkey.WithValue(req.Context(), ctxkey.HTTPMethod, req.Method)
			c.SetRequest(req.WithContext(ctx))

			if m == nil || IsHealthCheckEndpoint(req.URL.Path) {
				return next(c)
			}

			service := GetServiceName()
			m.IncInProgress(service)
			defer m.DecInProgress(service)

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				} else if !c.Response().Committed {
					status = http.StatusInternalServerError
				}
			}
			m.RecordRequest(service, c.Path(), req.Method, status, time.Since(start))

			return err
		}
	}
}

// EchoHandler 暴露 /metrics 端点
// gatherer 为 nil 时使用 prometheus 默认注册表
func EchoHandler(gatherer prometheus.Gatherer) echo.HandlerFunc {
	var h http.Handler
	if gatherer == nil {
		h = promhttp.Handler()
	} else {
		h = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return echo.WrapHandler(h)
}
