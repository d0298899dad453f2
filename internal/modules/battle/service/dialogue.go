package service

import "context"

// DialogueProvider 对话生成能力
// 调用方通过 ctx 的 deadline 限定单次调用时长；任何错误都会被引擎替换为固定内容
type DialogueProvider interface {
	GenerateQuestion(ctx context.Context, req QuestionRequest) (string, error)
	GenerateAnswer(ctx context.Context, req AnswerRequest) (string, error)
	GenerateEvaluation(ctx context.Context, req EvaluationRequest) (*Evaluation, error)
}

// QuestionRequest 面试官提问所需上下文
type QuestionRequest struct {
	Resume        string
	JD            string
	Mode          Mode
	Round         int
	PreviousTurns []Turn
}

// AnswerRequest 候选人回答所需上下文
type AnswerRequest struct {
	Resume   string
	JD       string
	Question string
	Mode     Mode
}

// EvaluationRequest 结束评价所需的完整记录
type EvaluationRequest struct {
	Resume string
	JD     string
	Mode   Mode
	Turns  []Turn
	HP     HP
}

// Evaluation 面试评价
type Evaluation struct {
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// 对话调用类型，用于日志与指标
const (
	CallQuestion   = "question"
	CallAnswer     = "answer"
	CallEvaluation = "evaluation"
)
