// File: internal/pkg/i18n/error_messages.go
package i18n

import (
	"context"

	"career-royale/internal/pkg/xerrors"

	"golang.org/x/text/language"
)

// ErrorMessages 错误消息的多语言映射
var ErrorMessages = map[xerrors.ErrorCode]map[language.Tag]string{
	xerrors.CodeSuccess:           {language.Chinese: "操作成功", language.English: "Operation successful"},
	xerrors.CodeInternalError:     {language.Chinese: "内部服务错误", language.English: "Internal server error"},
	xerrors.CodeInvalidParams:     {language.Chinese: "参数错误", language.English: "Invalid parameters"},
	xerrors.CodeInvalidRequest:    {language.Chinese: "请求格式错误", language.English: "Invalid request format"},
	xerrors.CodeResourceNotFound:  {language.Chinese: "资源不存在", language.English: "Resource not found"},
	xerrors.CodeRateLimitExceeded: {language.Chinese: "请求频率限制", language.English: "Rate limit exceeded"},

	xerrors.CodeExternalServiceError: {language.Chinese: "外部服务错误", language.English: "External service error"},

	// 9xxxxx: 面试战斗
	xerrors.CodeBattleNotFound:         {language.Chinese: "战斗不存在", language.English: "Battle not found"},
	xerrors.CodeBattleInProgress:       {language.Chinese: "战斗正在进行中", language.English: "Battle is already in progress"},
	xerrors.CodeBattleFinished:         {language.Chinese: "战斗已结束", language.English: "Battle has already finished"},
	xerrors.CodeBattleStreamFailed:     {language.Chinese: "战斗执行出错", language.English: "Battle execution failed"},
	xerrors.CodeDialogueProviderFailed: {language.Chinese: "对话生成服务不可用", language.English: "Dialogue provider unavailable"},
}

// GetErrorMessage 获取指定语言的错误消息，缺失时回退到默认语言和错误码自带消息
func GetErrorMessage(code xerrors.ErrorCode, lang language.Tag) string {
	messages, ok := ErrorMessages[code]
	if !ok {
		return code.Message()
	}
	if msg, ok := messages[lang]; ok {
		return msg
	}
	if msg, ok := messages[DefaultLanguage]; ok {
		return msg
	}
	return code.Message()
}

// GetErrorMessageFromContext 按 context 中的语言偏好获取错误消息
func GetErrorMessageFromContext(ctx context.Context, code xerrors.ErrorCode) string {
	return GetErrorMessage(code, GetLanguage(ctx))
}
