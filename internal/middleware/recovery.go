package middleware

import (
	"fmt"

	"career-royale/internal/pkg/log"
	"career-royale/internal/pkg/response"
	"career-royale/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
)

// RecoveryMiddleware 恢复中间件
func RecoveryMiddleware(respWriter response.Writer, logger log.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				ctx := c.Request().Context()

				logger.ErrorContext(ctx, "应用程序 panic",
					log.Any("panic_value", r),
					log.String("path", c.Request().URL.Path),
					log.String("method", c.Request().Method),
				)

				if c.Response().Committed {
					err = nil
					return
				}

				appErr := xerrors.FromCode(xerrors.CodeInternalError).
					WithService("echo-middleware", "recovery").
					WithMetadata("panic_value", fmt.Sprintf("%v", r))
				err = respWriter.WriteError(ctx, c.Response(), appErr)
			}()

			return next(c)
		}
	}
}
