// Package service 面试战斗的核心业务：战斗状态、伤害结算、状态存储与战斗引擎。
package service

import (
	"sync"
	"time"
)

// Mode 难度模式
type Mode string

const (
	ModeEasy Mode = "easy"
	ModeHard Mode = "hard"
)

// Valid 是否为受支持的模式
func (m Mode) Valid() bool {
	return m == ModeEasy || m == ModeHard
}

// TotalRounds 模式对应的回合数
func (m Mode) TotalRounds() int {
	if m == ModeHard {
		return 5
	}
	return 3
}

// DamageMultiplier 模式对应的伤害倍率
func (m Mode) DamageMultiplier() float64 {
	if m == ModeHard {
		return 1.5
	}
	return 1
}

// Role 战斗双方
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// MaxHP 双方初始血量
const MaxHP = 100

// HP 双方血量快照
type HP struct {
	Interviewer int `json:"interviewer"`
	Candidate   int `json:"candidate"`
}

// Turn 一个完整回合，追加后不再修改
type Turn struct {
	Round               int    `json:"round"`
	Interviewer         string `json:"interviewer"`
	Candidate           string `json:"candidate"`
	DamageToCandidate   int    `json:"damageToCandidate"`
	DamageToInterviewer int    `json:"damageToInterviewer"`
}

// Grade 最终评级
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// Result 战斗结果，只随 battle_end 事件下发
type Result struct {
	WinRate    int      `json:"winRate"`
	Grade      Grade    `json:"grade"`
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Battle 一场面试战斗
// 只有持有执行租约的引擎会修改它，读取方通过 Snapshot 获取一致视图
type Battle struct {
	ID        string
	Resume    string
	JD        string
	Mode      Mode
	CreatedAt time.Time

	mu            sync.RWMutex
	interviewerHP int
	candidateHP   int
	currentRound  int
	turns         []Turn
	active        bool
}

// NewBattle 创建满血、未开始的战斗
func NewBattle(id, resume, jd string, mode Mode, createdAt time.Time) *Battle {
	return &Battle{
		ID:            id,
		Resume:        resume,
		JD:            jd,
		Mode:          mode,
		CreatedAt:     createdAt,
		interviewerHP: MaxHP,
		candidateHP:   MaxHP,
		active:        true,
	}
}

// BattleSnapshot 战斗状态的只读副本
type BattleSnapshot struct {
	ID           string `json:"id"`
	Mode         Mode   `json:"mode"`
	CurrentRound int    `json:"currentRound"`
	HP           HP     `json:"hp"`
	IsActive     bool   `json:"isActive"`
	Turns        []Turn `json:"turns"`
}

// Snapshot 返回当前状态的深拷贝
func (b *Battle) Snapshot() BattleSnapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	turns := make([]Turn, len(b.turns))
	copy(turns, b.turns)
	return BattleSnapshot{
		ID:           b.ID,
		Mode:         b.Mode,
		CurrentRound: b.currentRound,
		HP:           HP{Interviewer: b.interviewerHP, Candidate: b.candidateHP},
		IsActive:     b.active,
		Turns:        turns,
	}
}

// HP 当前血量
func (b *Battle) HP() HP {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return HP{Interviewer: b.interviewerHP, Candidate: b.candidateHP}
}

// IsActive 战斗是否仍在进行
func (b *Battle) IsActive() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active
}

// Turns 已完成回合的副本
func (b *Battle) Turns() []Turn {
	b.mu.RLock()
	defer b.mu.RUnlock()
	turns := make([]Turn, len(b.turns))
	copy(turns, b.turns)
	return turns
}

// KnockedOut 任一方血量归零
func (b *Battle) KnockedOut() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.interviewerHP == 0 || b.candidateHP == 0
}

func (b *Battle) beginRound(round int) {
	b.mu.Lock()
	b.currentRound = round
	b.mu.Unlock()
}

// applyDamage 扣减目标血量（下限 0）并返回扣减后的快照
func (b *Battle) applyDamage(target Role, amount int) HP {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch target {
	case RoleCandidate:
		b.candidateHP = clampHP(b.candidateHP - amount)
	case RoleInterviewer:
		b.interviewerHP = clampHP(b.interviewerHP - amount)
	}
	return HP{Interviewer: b.interviewerHP, Candidate: b.candidateHP}
}

func (b *Battle) appendTurn(turn Turn) HP {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns = append(b.turns, turn)
	return HP{Interviewer: b.interviewerHP, Candidate: b.candidateHP}
}

// deactivate 标记战斗结束，只有第一次调用返回 true
func (b *Battle) deactivate() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.active {
		return false
	}
	b.active = false
	return true
}

func clampHP(hp int) int {
	if hp < 0 {
		return 0
	}
	if hp > MaxHP {
		return MaxHP
	}
	return hp
}
