// File: internal/pkg/trace/trace.go
package trace

import (
	"context"
	"net/http"
	"strings"

	"career-royale/internal/pkg/ctxkey"

	"github.com/google/uuid"
)

// HeaderTraceID 响应中回写的追踪头
const HeaderTraceID = "X-Trace-Id"

// WithTraceID 在 context 中设置 trace ID
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return ctxkey.WithValue(ctx, ctxkey.TraceID, traceID)
}

// GetTraceID 从 context 中获取 trace ID
func GetTraceID(ctx context.Context) string {
	return ctxkey.GetString(ctx, ctxkey.TraceID)
}

// GenerateTraceID 生成 32 位十六进制 trace ID（与 W3C trace-id 长度一致）
func GenerateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ExtractFromHeader 从 HTTP 头部提取 trace ID，依次尝试 X-Trace-Id、X-Request-Id、Traceparent
func ExtractFromHeader(headers http.Header) string {
	if traceID := strings.TrimSpace(headers.Get(HeaderTraceID)); traceID != "" {
		return traceID
	}
	if requestID := strings.TrimSpace(headers.Get("X-Request-Id")); requestID != "" {
		return requestID
	}
	if traceID := parseTraceparent(headers.Get("Traceparent")); traceID != "" {
		return traceID
	}
	return GenerateTraceID()
}

// parseTraceparent 解析 W3C Traceparent 头部
// 格式: "00-<trace-id>-<parent-id>-<flags>"
func parseTraceparent(traceparent string) string {
	parts := strings.Split(strings.TrimSpace(traceparent), "-")
	if len(parts) != 4 || len(parts[1]) != 32 {
		return ""
	}
	return parts[1]
}
