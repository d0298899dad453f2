package service

// 对话生成失败时使用的固定内容
var fallbackQuestions = []string{
	"请简单介绍一下你自己，以及为什么对这个职位感兴趣？",
	"能详细说说你简历中提到的这个项目吗？你在其中负责什么？",
	"如果系统突然出现性能问题，你会如何排查和解决？",
	"你认为自己最大的优势和需要改进的地方是什么？",
	"你对未来的职业发展有什么规划？",
}

const fallbackAnswer = "这是一个很好的问题。基于我的经验，我认为关键在于理解业务需求和技术实现之间的平衡。在我之前的项目中，我们通过迭代优化的方式逐步解决了类似的挑战。"

const (
	// StartMessage battle_start 事件的状态文案
	StartMessage = "正在分析候选人简历..."
	// StreamErrorMessage 流执行失败时 error 帧的通用文案
	StreamErrorMessage = "战斗执行出错"
)

// FallbackQuestion 第 round 回合（从 1 开始）的固定问题
func FallbackQuestion(round int) string {
	n := len(fallbackQuestions)
	idx := ((round-1)%n + n) % n
	return fallbackQuestions[idx]
}

// FallbackAnswer 固定回答
func FallbackAnswer() string {
	return fallbackAnswer
}

// FallbackEvaluation 固定评价，每次返回新副本
func FallbackEvaluation() *Evaluation {
	return &Evaluation{
		Summary:    "候选人表现中规中矩，有一定的技术基础，但深度有待加强。",
		Strengths:  []string{"沟通表达清晰", "有相关项目经验"},
		Weaknesses: []string{"技术深度不足", "缺乏系统性思维"},
	}
}
