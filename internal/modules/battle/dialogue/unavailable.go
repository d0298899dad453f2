package dialogue

import (
	"context"
	"errors"

	"career-royale/internal/modules/battle/service"
)

// ErrUnavailable 未配置对话生成服务
var ErrUnavailable = errors.New("dialogue provider not configured")

// UnavailableProvider 所有调用都失败，战斗全程使用固定内容
type UnavailableProvider struct{}

var _ service.DialogueProvider = UnavailableProvider{}

func (UnavailableProvider) GenerateQuestion(context.Context, service.QuestionRequest) (string, error) {
	return "", ErrUnavailable
}

func (UnavailableProvider) GenerateAnswer(context.Context, service.AnswerRequest) (string, error) {
	return "", ErrUnavailable
}

func (UnavailableProvider) GenerateEvaluation(context.Context, service.EvaluationRequest) (*service.Evaluation, error) {
	return nil, ErrUnavailable
}

// New 根据配置选择实现，apiKey 为空时返回 UnavailableProvider
func New(apiKey, baseURL, model string) service.DialogueProvider {
	if apiKey == "" {
		return UnavailableProvider{}
	}
	return NewOpenAIProvider(apiKey, baseURL, model)
}
