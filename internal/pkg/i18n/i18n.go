// File: internal/pkg/i18n/i18n.go
package i18n

import (
	"context"
	"strings"

	"career-royale/internal/pkg/ctxkey"

	"golang.org/x/text/language"
)

var (
	// DefaultLanguage 默认语言为中文，与对话内容保持一致
	DefaultLanguage = language.Chinese

	// SupportedLanguages 支持的语言列表，顺序决定匹配优先级
	SupportedLanguages = []language.Tag{
		language.Chinese,
		language.English,
	}

	matcher = language.NewMatcher(SupportedLanguages)
)

// WithLanguage 在 context 中设置语言偏好
func WithLanguage(ctx context.Context, lang language.Tag) context.Context {
	return ctxkey.WithValue(ctx, ctxkey.Language, lang)
}

// GetLanguage 从 context 中获取语言偏好
func GetLanguage(ctx context.Context) language.Tag {
	if ctx == nil {
		return DefaultLanguage
	}
	if lang, ok := ctx.Value(ctxkey.Language).(language.Tag); ok {
		return lang
	}
	return DefaultLanguage
}

// ParseAcceptLanguage 解析 Accept-Language 头部
// 例如: "en-US,en;q=0.9,zh;q=0.8"
func ParseAcceptLanguage(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}

	return normalize(tags...)
}

// ParseLanguageCode 从语言代码解析 Tag，支持 "zh"、"zh-CN"、"en-US" 等
func ParseLanguageCode(code string) language.Tag {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return DefaultLanguage
	}

	tag, err := language.Parse(code)
	if err != nil {
		return DefaultLanguage
	}
	return normalize(tag)
}

// normalize 将匹配结果收敛到支持列表中的基础语言
func normalize(tags ...language.Tag) language.Tag {
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return DefaultLanguage
	}
	return SupportedLanguages[index]
}

// GetLanguageCode 获取语言代码 (zh, en)
func GetLanguageCode(lang language.Tag) string {
	base, _ := lang.Base()
	return base.String()
}
