package dialogue

import (
	"fmt"
	"strings"

	"career-royale/internal/modules/battle/service"
)

// 面试官人设
var personalities = map[service.Mode]string{
	service.ModeEasy: "你是一位友善的 HR，提问风格温和，主要了解候选人的基本情况和职业规划。",
	service.ModeHard: "你是一位严厉的技术面试官（阿里 P8 级别），擅长深挖技术细节，会针对简历中的项目经验进行压力测试。",
}

// 候选人回答风格
var answerStyles = map[service.Mode]string{
	service.ModeEasy: "回答风格自信但谦虚，展示基本能力即可。",
	service.ModeHard: "回答风格专业且有深度，展示扎实的技术功底和实战经验，但偶尔也会有小瑕疵。",
}

// 每回合的提问方向，超出时使用最后一条
var roundContexts = map[service.Mode][]string{
	service.ModeEasy: {
		"这是第一轮，请提一个关于自我介绍或职业规划的问题。",
		"这是第二轮，请提一个关于项目经验的问题。",
		"这是第三轮，请提一个关于团队协作或软技能的问题。",
	},
	service.ModeHard: {
		"这是第一轮，请提一个基础技术问题，考察候选人的基本功。",
		"这是第二轮，请针对简历中的项目深挖技术细节。",
		"这是第三轮，请提一个系统设计或架构相关的问题。",
		"这是第四轮，请提一个压力场景问题，考察候选人的应变能力。",
		"这是最后一轮，请提一个综合性问题，考察候选人的全局思维。",
	},
}

func roundContext(mode service.Mode, round int) string {
	contexts, ok := roundContexts[mode]
	if !ok {
		contexts = roundContexts[service.ModeEasy]
	}
	if round < 1 {
		round = 1
	}
	if round > len(contexts) {
		round = len(contexts)
	}
	return contexts[round-1]
}

func questionPrompt(req service.QuestionRequest) string {
	var b strings.Builder
	b.WriteString(personalities[req.Mode])
	fmt.Fprintf(&b, "\n\n候选人简历：\n%s\n\n职位要求：\n%s\n\n", req.Resume, req.JD)

	if len(req.PreviousTurns) > 0 {
		b.WriteString("之前的问答：\n")
		for i, t := range req.PreviousTurns {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "Q%d: %s\nA%d: %s", t.Round, t.Interviewer, t.Round, t.Candidate)
		}
		b.WriteString("\n\n")
	}

	b.WriteString(roundContext(req.Mode, req.Round))
	b.WriteString(`

请生成一个面试问题。要求：
1. 问题要针对简历内容或职位要求
2. 问题要有深度，能考察候选人的真实能力
3. 只输出问题本身，不要有其他内容
4. 使用中文`)
	return b.String()
}

func answerPrompt(req service.AnswerRequest) string {
	return fmt.Sprintf(`你是一位求职者，正在参加面试。

你的简历：
%s

应聘职位：
%s

面试官问题：%s

%s

请生成一个回答。要求：
1. 回答要基于简历内容，保持一致性
2. 回答要有条理，展示专业能力
3. 适当使用技术术语，但不要过度堆砌
4. 只输出回答本身，不要有其他内容
5. 使用中文
6. 控制在 200 字以内`, req.Resume, req.JD, req.Question, answerStyles[req.Mode])
}

func evaluationPrompt(req service.EvaluationRequest) string {
	turns := make([]string, 0, len(req.Turns))
	for _, t := range req.Turns {
		turns = append(turns, fmt.Sprintf("第%d轮：\n问：%s\n答：%s", t.Round, t.Interviewer, t.Candidate))
	}

	return fmt.Sprintf(`请分析以下面试对话，给出评价。

简历：
%s

职位：
%s

面试对话：
%s

请以 JSON 格式输出评价，包含：
1. summary: 一句话总结（50字以内）
2. strengths: 优势列表（2-3条）
3. weaknesses: 不足列表（2-3条）

只输出 JSON，不要有其他内容。`, req.Resume, req.JD, strings.Join(turns, "\n\n"))
}
