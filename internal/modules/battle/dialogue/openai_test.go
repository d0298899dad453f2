package dialogue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-royale/internal/modules/battle/service"
)

// fakeCompletions 模拟 chat completions 接口
type fakeCompletions struct {
	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
	reply    string
	status   int
	delay    time.Duration
}

func (f *fakeCompletions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}

	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   req.Model,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": f.reply},
			"finish_reason": "stop",
		}},
	})
}

func (f *fakeCompletions) last(t *testing.T) openai.ChatCompletionRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestProvider(t *testing.T, fake *fakeCompletions) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider("test-key", srv.URL+"/v1/", "test-model")
}

func TestGenerateQuestion(t *testing.T) {
	fake := &fakeCompletions{reply: "  请介绍一下你做过的高并发项目？\n"}
	p := newTestProvider(t, fake)

	q, err := p.GenerateQuestion(context.Background(), service.QuestionRequest{
		Resume: "5 年 Go 开发",
		JD:     "后端工程师",
		Mode:   service.ModeHard,
		Round:  2,
		PreviousTurns: []service.Turn{
			{Round: 1, Interviewer: "什么是 goroutine？", Candidate: "轻量级线程"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "请介绍一下你做过的高并发项目？", q)

	req := fake.last(t)
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 300, req.MaxTokens)
	assert.InDelta(t, 0.8, req.Temperature, 0.001)
	require.Len(t, req.Messages, 1)

	prompt := req.Messages[0].Content
	assert.Contains(t, prompt, personalities[service.ModeHard])
	assert.Contains(t, prompt, "5 年 Go 开发")
	assert.Contains(t, prompt, "Q1: 什么是 goroutine？\nA1: 轻量级线程")
	assert.Contains(t, prompt, roundContexts[service.ModeHard][1])
}

func TestGenerateAnswer(t *testing.T) {
	fake := &fakeCompletions{reply: "我负责了订单系统的重构。"}
	p := newTestProvider(t, fake)

	a, err := p.GenerateAnswer(context.Background(), service.AnswerRequest{
		Resume:   "resume",
		JD:       "jd",
		Question: "你负责什么？",
		Mode:     service.ModeEasy,
	})
	require.NoError(t, err)
	assert.Equal(t, "我负责了订单系统的重构。", a)

	req := fake.last(t)
	assert.Equal(t, 400, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 0.001)
	assert.Contains(t, req.Messages[0].Content, "面试官问题：你负责什么？")
	assert.Contains(t, req.Messages[0].Content, answerStyles[service.ModeEasy])
}

func TestGenerateEvaluation(t *testing.T) {
	fake := &fakeCompletions{reply: "评价如下：\n```json\n{\"summary\":\"基础扎实\",\"strengths\":[\"表达清晰\"],\"weaknesses\":[\"深度不足\"]}\n```"}
	p := newTestProvider(t, fake)

	eval, err := p.GenerateEvaluation(context.Background(), service.EvaluationRequest{
		Resume: "resume",
		JD:     "jd",
		Mode:   service.ModeEasy,
		Turns:  []service.Turn{{Round: 1, Interviewer: "Q", Candidate: "A"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "基础扎实", eval.Summary)
	assert.Equal(t, []string{"表达清晰"}, eval.Strengths)
	assert.Equal(t, []string{"深度不足"}, eval.Weaknesses)

	req := fake.last(t)
	assert.Equal(t, 500, req.MaxTokens)
	assert.InDelta(t, 0.5, req.Temperature, 0.001)
	assert.Contains(t, req.Messages[0].Content, "第1轮：\n问：Q\n答：A")
}

func TestProviderFailures(t *testing.T) {
	t.Run("空回复", func(t *testing.T) {
		p := newTestProvider(t, &fakeCompletions{reply: "   "})
		_, err := p.GenerateQuestion(context.Background(), service.QuestionRequest{Mode: service.ModeEasy, Round: 1})
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("服务端错误", func(t *testing.T) {
		p := newTestProvider(t, &fakeCompletions{status: http.StatusInternalServerError})
		_, err := p.GenerateAnswer(context.Background(), service.AnswerRequest{Mode: service.ModeEasy})
		assert.Error(t, err)
	})

	t.Run("评价不是 JSON", func(t *testing.T) {
		p := newTestProvider(t, &fakeCompletions{reply: "表现不错"})
		_, err := p.GenerateEvaluation(context.Background(), service.EvaluationRequest{Mode: service.ModeEasy})
		assert.Error(t, err)
	})

	t.Run("超时", func(t *testing.T) {
		p := newTestProvider(t, &fakeCompletions{reply: "late", delay: time.Second})
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := p.GenerateQuestion(ctx, service.QuestionRequest{Mode: service.ModeEasy, Round: 1})
		assert.Error(t, err)
		assert.Less(t, time.Since(start), 900*time.Millisecond)
	})
}

func TestParseEvaluation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
		summary string
	}{
		{name: "纯 JSON", content: `{"summary":"ok","strengths":[],"weaknesses":[]}`, summary: "ok"},
		{name: "前后有文字", content: "好的：{\"summary\":\"不错\"} 以上", summary: "不错"},
		{name: "没有 JSON", content: "无法评价", wantErr: true},
		{name: "JSON 损坏", content: `{"summary": }`, wantErr: true},
		{name: "空总结", content: `{"summary":"  "}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval, err := ParseEvaluation(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.summary, eval.Summary)
		})
	}
}

func TestRoundContextClampsToLast(t *testing.T) {
	assert.Equal(t, roundContexts[service.ModeEasy][2], roundContext(service.ModeEasy, 7))
	assert.Equal(t, roundContexts[service.ModeHard][0], roundContext(service.ModeHard, 0))
	assert.True(t, strings.HasPrefix(roundContext(service.ModeHard, 5), "这是最后一轮"))
}

func TestNewSelectsImplementation(t *testing.T) {
	assert.IsType(t, UnavailableProvider{}, New("", "", ""))
	assert.IsType(t, &OpenAIProvider{}, New("key", "", ""))

	_, err := UnavailableProvider{}.GenerateQuestion(context.Background(), service.QuestionRequest{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
