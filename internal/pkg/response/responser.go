package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"career-royale/internal/pkg/ctxkey"
	"career-royale/internal/pkg/i18n"
	"career-royale/internal/pkg/log"
	"career-royale/internal/pkg/xerrors"
)

// EmptyData 表示成功响应中的“无数据”
type EmptyData struct{}

// ResponseResult 是一个通用的API响应结构体
type ResponseResult[T any] struct {
	Code      int    `json:"code"`               // 业务响应码
	Message   string `json:"message"`            // 响应消息
	Data      *T     `json:"data,omitempty"`     // 响应数据，成功时返回
	Error     string `json:"error,omitempty"`    // 错误详情，失败时返回
	Timestamp int64  `json:"timestamp"`          // Unix时间戳
	TraceId   string `json:"trace_id,omitempty"` // 请求追踪ID
}

// Success 创建一个成功的响应
func Success[T any](data *T) *ResponseResult[T] {
	return &ResponseResult[T]{
		Code:      xerrors.CodeSuccess.ToInt(),
		Message:   xerrors.CodeSuccess.Message(),
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
}

// Error 创建一个失败的响应，Data 字段始终为 nil
func Error[T any](code int, message string, err string) *ResponseResult[T] {
	return &ResponseResult[T]{
		Code:      code,
		Message:   message,
		Error:     err,
		Timestamp: time.Now().Unix(),
	}
}

// Writer 统一的响应写入接口，handler 只依赖这个接口
type Writer interface {
	WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error
	WriteError(ctx context.Context, w http.ResponseWriter, err error) error
	WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error
}

// ResponseHandler Writer 的默认实现
type ResponseHandler struct {
	logger      log.Logger
	environment string
}

// NewResponseHandler 创建响应处理器
// 非生产环境下错误详情（底层 error）会写入响应的 error 字段
func NewResponseHandler(logger log.Logger, environment string) *ResponseHandler {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &ResponseHandler{logger: logger, environment: environment}
}

// WriteSuccess 写入成功响应
func (h *ResponseHandler) WriteSuccess(ctx context.Context, w http.ResponseWriter, data any) error {
	resp := Success(&data)
	resp.Message = i18n.GetErrorMessageFromContext(ctx, xerrors.CodeSuccess)
	resp.TraceId = ctxkey.GetString(ctx, ctxkey.TraceID)
	return h.encode(ctx, w, http.StatusOK, resp)
}

// WriteError 写入错误响应，非 AppError 统一包装为内部错误
func (h *ResponseHandler) WriteError(ctx context.Context, w http.ResponseWriter, err error) error {
	if err == nil {
		err = xerrors.FromCode(xerrors.CodeInternalError)
	}

	appErr, ok := xerrors.As(err)
	if !ok {
		appErr = xerrors.NewWithError(xerrors.CodeInternalError, xerrors.CodeInternalError.Message(), err)
	}

	traceID := ctxkey.GetString(ctx, ctxkey.TraceID)
	if traceID != "" && (appErr.Context == nil || appErr.Context.TraceID == "") {
		appErr.WithTraceID(traceID)
	}

	status := xerrors.GetHTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		log.LogAppError(ctx, h.logger, "request failed", appErr)
	}

	resp := Error[EmptyData](appErr.Code.ToInt(), h.localizedMessage(ctx, appErr), h.errorDetail(appErr))
	resp.TraceId = traceID
	return h.encode(ctx, w, status, resp)
}

// WriteJSON 直接写入 JSON，不做统一包装
func (h *ResponseHandler) WriteJSON(ctx context.Context, w http.ResponseWriter, data any, statusCode int) error {
	return h.encode(ctx, w, statusCode, data)
}

// localizedMessage 自定义消息优先，否则按语言偏好翻译错误码
func (h *ResponseHandler) localizedMessage(ctx context.Context, appErr *xerrors.AppError) string {
	if appErr.Message != "" && appErr.Message != appErr.Code.Message() {
		return appErr.Message
	}
	return i18n.GetErrorMessageFromContext(ctx, appErr.Code)
}

func (h *ResponseHandler) errorDetail(appErr *xerrors.AppError) string {
	if h.environment == "production" || appErr.Err == nil {
		return ""
	}
	return appErr.Err.Error()
}

func (h *ResponseHandler) encode(ctx context.Context, w http.ResponseWriter, statusCode int, body any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	// header 已经写出，编码失败只能记录日志
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.WarnContext(ctx, "写入JSON响应失败", log.Any("error", err))
	}
	return nil
}
