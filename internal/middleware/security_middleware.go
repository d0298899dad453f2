package middleware

import (
	"career-royale/internal/pkg/trace"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// CORSMiddleware 只允许配置中的前端来源跨域访问
func CORSMiddleware(allowOrigins []string) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{
			echo.GET,
			echo.POST,
			echo.OPTIONS,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			"Accept-Language",
			"Last-Event-ID",
			trace.HeaderTraceID,
			"X-Request-ID",
		},
		ExposeHeaders: []string{
			trace.HeaderTraceID,
		},
		AllowCredentials: true,
	})
}

// SecurityMiddleware 安全响应头
func SecurityMiddleware() echo.MiddlewareFunc {
	return middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	})
}
