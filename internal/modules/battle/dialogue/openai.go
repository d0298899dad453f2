package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sashabaranov/go-openai"

	"career-royale/internal/modules/battle/service"
)

// DefaultModel 未配置 OPENAI_MODEL 时使用
const DefaultModel = openai.GPT4

// 每类调用的生成参数
type generation struct {
	maxTokens   int
	temperature float32
}

var (
	questionGeneration   = generation{maxTokens: 300, temperature: 0.8}
	answerGeneration     = generation{maxTokens: 400, temperature: 0.7}
	evaluationGeneration = generation{maxTokens: 500, temperature: 0.5}
)

// ErrEmptyCompletion 模型返回了空内容
var ErrEmptyCompletion = errors.New("empty completion")

// 从回复中截取第一个 '{' 到最后一个 '}'
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// OpenAIProvider 基于 OpenAI 兼容接口的对话生成
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

var _ service.DialogueProvider = (*OpenAIProvider)(nil)

// NewOpenAIProvider 创建 OpenAI 对话生成，baseURL 为空时使用官方地址
func NewOpenAIProvider(apiKey, baseURL, model string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// GenerateQuestion 生成面试官问题
func (p *OpenAIProvider) GenerateQuestion(ctx context.Context, req service.QuestionRequest) (string, error) {
	return p.complete(ctx, questionPrompt(req), questionGeneration)
}

// GenerateAnswer 生成候选人回答
func (p *OpenAIProvider) GenerateAnswer(ctx context.Context, req service.AnswerRequest) (string, error) {
	return p.complete(ctx, answerPrompt(req), answerGeneration)
}

// GenerateEvaluation 生成面试评价，回复中须包含 JSON 对象
func (p *OpenAIProvider) GenerateEvaluation(ctx context.Context, req service.EvaluationRequest) (*service.Evaluation, error) {
	content, err := p.complete(ctx, evaluationPrompt(req), evaluationGeneration)
	if err != nil {
		return nil, err
	}
	return ParseEvaluation(content)
}

func (p *OpenAIProvider) complete(ctx context.Context, prompt string, gen generation) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   gen.maxTokens,
		Temperature: gen.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}

// ParseEvaluation 解析回复中的评价 JSON，允许前后夹带其他文字
func ParseEvaluation(content string) (*service.Evaluation, error) {
	raw := jsonObjectPattern.FindString(content)
	if raw == "" {
		return nil, fmt.Errorf("evaluation: no json object in completion")
	}

	var eval service.Evaluation
	if err := json.Unmarshal([]byte(raw), &eval); err != nil {
		return nil, fmt.Errorf("evaluation: %w", err)
	}
	if strings.TrimSpace(eval.Summary) == "" {
		return nil, fmt.Errorf("evaluation: empty summary")
	}
	return &eval, nil
}
