package service

// EventType SSE 事件名
type EventType string

const (
	EventBattleStart       EventType = "battle_start"
	EventInterviewerAttack EventType = "interviewer_attack"
	EventCandidateDefend   EventType = "candidate_defend"
	EventDamage            EventType = "damage"
	EventRoundEnd          EventType = "round_end"
	EventBattleEnd         EventType = "battle_end"

	// EventError 仅由传输层在执行失败时发送
	EventError EventType = "error"
)

// EventData 事件负载，未使用的字段不序列化
type EventData struct {
	Round   int     `json:"round,omitempty"`
	Message string  `json:"message,omitempty"`
	Sender  Role    `json:"sender,omitempty"`
	Damage  *int    `json:"damage,omitempty"`
	Target  Role    `json:"target,omitempty"`
	HP      *HP     `json:"hp,omitempty"`
	Result  *Result `json:"result,omitempty"`
}

// BattleEvent 战斗事件
type BattleEvent struct {
	Type EventType `json:"type"`
	Data EventData `json:"data"`
}

func startEvent(hp HP) BattleEvent {
	return BattleEvent{Type: EventBattleStart, Data: EventData{Message: StartMessage, HP: &hp}}
}

func attackEvent(round int, question string) BattleEvent {
	return BattleEvent{Type: EventInterviewerAttack, Data: EventData{Round: round, Message: question, Sender: RoleInterviewer}}
}

func defendEvent(round int, answer string) BattleEvent {
	return BattleEvent{Type: EventCandidateDefend, Data: EventData{Round: round, Message: answer, Sender: RoleCandidate}}
}

func damageEvent(target Role, amount int, hp HP) BattleEvent {
	return BattleEvent{Type: EventDamage, Data: EventData{Damage: &amount, Target: target, HP: &hp}}
}

func roundEndEvent(round int, hp HP) BattleEvent {
	return BattleEvent{Type: EventRoundEnd, Data: EventData{Round: round, HP: &hp}}
}

func endEvent(result Result, hp HP) BattleEvent {
	return BattleEvent{Type: EventBattleEnd, Data: EventData{Result: &result, HP: &hp}}
}
