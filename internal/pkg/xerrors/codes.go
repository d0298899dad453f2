// File: internal/pkg/xerrors/codes.go
package xerrors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型（类型安全）
type ErrorCode int

// IsValid 检查错误码是否在预定义列表中
func (c ErrorCode) IsValid() bool {
	_, exists := codeMessages[c]
	return exists
}

// String 返回错误码的字符串表示
func (c ErrorCode) String() string {
	if msg, ok := codeMessages[c]; ok {
		return fmt.Sprintf("%d (%s)", c, msg)
	}
	return fmt.Sprintf("%d (未定义的错误码)", c)
}

// Message 返回错误码对应的消息
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "未知错误"
}

// ToInt 转换为 int（用于 JSON 序列化等场景）
func (c ErrorCode) ToInt() int {
	return int(c)
}

// -----------------------------------------------------------------------------
// 业务错误码统一定义
// 按模块或领域对错误码进行分段，便于管理。
// -----------------------------------------------------------------------------
const (
	// 1xxxxx: 通用错误码
	CodeSuccess           ErrorCode = 100000 // 操作成功
	CodeInternalError     ErrorCode = 100001 // 内部服务错误
	CodeInvalidParams     ErrorCode = 100002 // 参数错误
	CodeInvalidRequest    ErrorCode = 100003 // 请求格式错误
	CodeResourceNotFound  ErrorCode = 100404 // 资源不存在
	CodeRateLimitExceeded ErrorCode = 100429 // 请求频率限制

	// 7xxxxx: 外部服务错误码
	CodeExternalServiceError ErrorCode = 700001 // 外部服务错误

	// 9xxxxx: 面试战斗错误码
	CodeBattleNotFound         ErrorCode = 900001 // 战斗不存在
	CodeBattleInProgress       ErrorCode = 900002 // 战斗正在进行中
	CodeBattleFinished         ErrorCode = 900003 // 战斗已结束
	CodeBattleStreamFailed     ErrorCode = 900004 // 战斗执行出错
	CodeDialogueProviderFailed ErrorCode = 900005 // 对话生成服务不可用
)

// -----------------------------------------------------------------------------
// 错误消息映射
// -----------------------------------------------------------------------------
var codeMessages = map[ErrorCode]string{
	CodeSuccess:           "操作成功",
	CodeInternalError:     "内部服务错误",
	CodeInvalidParams:     "参数错误",
	CodeInvalidRequest:    "请求格式错误",
	CodeResourceNotFound:  "资源不存在",
	CodeRateLimitExceeded: "请求频率限制",

	CodeExternalServiceError: "外部服务错误",

	CodeBattleNotFound:         "战斗不存在",
	CodeBattleInProgress:       "战斗正在进行中",
	CodeBattleFinished:         "战斗已结束",
	CodeBattleStreamFailed:     "战斗执行出错",
	CodeDialogueProviderFailed: "对话生成服务不可用",
}

// GetHTTPStatus 根据业务错误码获取HTTP状态码
func GetHTTPStatus(code ErrorCode) int {
	switch {
	case code == CodeSuccess:
		return http.StatusOK
	case code == CodeResourceNotFound || code == CodeBattleNotFound:
		return http.StatusNotFound
	case code == CodeBattleInProgress || code == CodeBattleFinished:
		return http.StatusConflict
	case code == CodeInvalidParams || code == CodeInvalidRequest:
		return http.StatusBadRequest
	case code == CodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case code == CodeBattleStreamFailed:
		return http.StatusInternalServerError
	case code >= 700000 && code < 800000, code == CodeDialogueProviderFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// getCategoryByCode 根据错误码获取分类
func getCategoryByCode(code ErrorCode) string {
	switch {
	case code >= 100000 && code < 200000:
		return "system"
	case code >= 700000 && code < 800000:
		return "external"
	case code >= 900000 && code < 1000000:
		return "battle"
	default:
		return "unknown"
	}
}

// getLevelByCode 根据错误码获取级别
func getLevelByCode(code ErrorCode) ErrorLevel {
	switch {
	case code == CodeSuccess:
		return LevelInfo
	case code >= 100002 && code <= 100003, code == CodeResourceNotFound, code == CodeBattleNotFound:
		return LevelWarn
	case code == CodeBattleInProgress, code == CodeBattleFinished, code == CodeDialogueProviderFailed:
		return LevelWarn
	case code >= 700001 && code < 800000:
		return LevelCritical
	default:
		return LevelError
	}
}

// isRetryableByCode 根据错误码判断是否可重试
func isRetryableByCode(code ErrorCode) bool {
	switch code {
	case CodeInternalError, CodeExternalServiceError, CodeRateLimitExceeded, CodeBattleInProgress:
		return true
	default:
		return false
	}
}
