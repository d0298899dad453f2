package i18n

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"career-royale/internal/pkg/xerrors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestParseAcceptLanguage(t *testing.T) {
	assert.Equal(t, language.English, ParseAcceptLanguage("en-US,en;q=0.9"))
	assert.Equal(t, language.Chinese, ParseAcceptLanguage("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, DefaultLanguage, ParseAcceptLanguage(""))
	assert.Equal(t, DefaultLanguage, ParseAcceptLanguage("fr-FR"))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "Battle not found", GetErrorMessage(xerrors.CodeBattleNotFound, language.English))
	assert.Equal(t, "战斗不存在", GetErrorMessage(xerrors.CodeBattleNotFound, language.Chinese))
	assert.Equal(t, "未知错误", GetErrorMessage(xerrors.ErrorCode(123), language.English))
}

func TestGetLanguageDefaults(t *testing.T) {
	assert.Equal(t, DefaultLanguage, GetLanguage(context.Background()))
	ctx := WithLanguage(context.Background(), language.English)
	assert.Equal(t, "en", GetLanguageCode(GetLanguage(ctx)))
}

func TestMiddlewarePrefersQueryParam(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	req.Header.Set("Accept-Language", "zh-CN")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got language.Tag
	h := Middleware()(func(c echo.Context) error {
		got = GetLanguage(c.Request().Context())
		return nil
	})

	assert.NoError(t, h(c))
	assert.Equal(t, language.English, got)
}
