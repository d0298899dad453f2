package middleware

import (
	"strings"
	"time"

	"career-royale/internal/pkg/log"

	"github.com/labstack/echo/v4"
)

// LoggingConfig 日志配置
type LoggingConfig struct {
	// SkipPaths 跳过日志记录的路径前缀
	SkipPaths []string

	// DetailedLog 是否记录 query、user agent 等详细字段
	DetailedLog bool
}

// DefaultLoggingConfig 默认日志配置
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SkipPaths: []string{
			"/health",
			"/metrics",
			"/favicon.ico",
		},
	}
}

// LoggingMiddleware 日志中间件
func LoggingMiddleware(logger log.Logger) echo.MiddlewareFunc {
	return LoggingMiddlewareWithConfig(logger, DefaultLoggingConfig())
}

// LoggingMiddlewareWithConfig 带配置的日志中间件
// SSE 请求只在连接结束时记录一条日志
func LoggingMiddlewareWithConfig(logger log.Logger, config *LoggingConfig) echo.MiddlewareFunc {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if shouldSkip(req.URL.Path, config.SkipPaths) {
				return next(c)
			}

			start := time.Now()
			ctx := req.Context()
			stream := isEventStream(c)

			if !stream {
				fields := []any{
					log.String("method", req.Method),
					log.String("path", req.URL.Path),
					log.String("client_ip", c.RealIP()),
				}
				if config.DetailedLog {
					if req.URL.RawQuery != "" {
						fields = append(fields, log.String("query", req.URL.RawQuery))
					}
					fields = append(fields, log.String("user_agent", req.UserAgent()))
				}
				logger.DebugContext(ctx, "请求开始", fields...)
			}

			err := next(c)

			statusCode := c.Response().Status
			fields := []any{
				log.String("method", req.Method),
				log.String("path", req.URL.Path),
				log.String("route", c.Path()),
				log.Int("status_code", statusCode),
				log.Duration("duration_ms", time.Since(start).Milliseconds()),
				log.Int64("response_size", c.Response().Size),
			}
			if stream {
				fields = append(fields, log.Bool("event_stream", true))
			}

			switch {
			case err != nil:
				fields = append(fields, log.Any("error", err))
				logger.ErrorContext(ctx, "请求处理出错", fields...)
			case statusCode >= 500:
				logger.ErrorContext(ctx, "请求完成（服务器错误）", fields...)
			case statusCode >= 400:
				logger.WarnContext(ctx, "请求完成（客户端错误）", fields...)
			default:
				logger.InfoContext(ctx, "请求完成", fields...)
			}

			return err
		}
	}
}

// isEventStream 判断是否为 SSE 请求（路由以 /stream 结尾或客户端声明接收 event-stream）
func isEventStream(c echo.Context) bool {
	if strings.HasSuffix(c.Request().URL.Path, "/stream") {
		return true
	}
	return strings.Contains(c.Request().Header.Get(echo.HeaderAccept), "text/event-stream")
}

// shouldSkip 检查是否应该跳过日志记录
func shouldSkip(path string, skipPaths []string) bool {
	for _, skipPath := range skipPaths {
		if strings.HasPrefix(path, skipPath) {
			return true
		}
	}
	return false
}
