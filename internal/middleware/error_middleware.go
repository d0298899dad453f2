package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"career-royale/internal/pkg/log"
	"career-royale/internal/pkg/response"
	"career-royale/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
)

// ErrorMiddleware 统一错误处理中间件
func ErrorMiddleware(respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			ctx := c.Request().Context()

			// 响应已经开始（例如 SSE 流已写出头部），无法再写入错误信封
			if c.Response().Committed {
				logger.WarnContext(ctx, "响应已提交，丢弃错误",
					log.String("path", c.Request().URL.Path),
					log.Any("error", err),
				)
				return nil
			}

			var appErr *xerrors.AppError
			var echoErr *echo.HTTPError
			switch {
			case errors.As(err, &appErr):
				return respWriter.WriteError(ctx, c.Response(), appErr)

			case errors.As(err, &echoErr):
				return respWriter.WriteError(ctx, c.Response(), convertEchoError(echoErr))

			default:
				logger.ErrorContext(ctx, "未处理的错误",
					log.Any("original_error", err),
					log.String("error_type", fmt.Sprintf("%T", err)),
				)
				wrapped := xerrors.Wrap(err, xerrors.CodeInternalError, "系统内部错误").
					WithService("echo-middleware", "error_handler")
				return respWriter.WriteError(ctx, c.Response(), wrapped)
			}
		}
	}
}

// convertEchoError 将 Echo 错误转换为业务错误
func convertEchoError(echoErr *echo.HTTPError) *xerrors.AppError {
	var appErr *xerrors.AppError
	switch echoErr.Code {
	case http.StatusBadRequest, http.StatusUnsupportedMediaType:
		appErr = xerrors.FromCode(xerrors.CodeInvalidRequest)
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		appErr = xerrors.FromCode(xerrors.CodeResourceNotFound)
	case http.StatusTooManyRequests:
		appErr = xerrors.FromCode(xerrors.CodeRateLimitExceeded)
	default:
		appErr = xerrors.FromCode(xerrors.CodeInternalError).
			WithMetadata("echo_code", fmt.Sprintf("%d", echoErr.Code))
	}
	return appErr.WithMetadata("echo_message", fmt.Sprintf("%v", echoErr.Message))
}
