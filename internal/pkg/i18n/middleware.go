// File: internal/pkg/i18n/middleware.go
package i18n

import (
	"github.com/labstack/echo/v4"
)

// Middleware 从 ?lang= 或 Accept-Language 中提取语言偏好并写入 request context
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lang := DefaultLanguage
			if code := c.QueryParam("lang"); code != "" {
				lang = ParseLanguageCode(code)
			} else {
				lang = ParseAcceptLanguage(c.Request().Header.Get("Accept-Language"))
			}

			ctx := WithLanguage(c.Request().Context(), lang)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}
