package service

import (
	"context"
	"time"

	"career-royale/internal/pkg/notify"
)

// BattleSummary 战斗结束后对外发布的摘要
type BattleSummary struct {
	BattleID   string    `json:"battleId"`
	Mode       Mode      `json:"mode"`
	Rounds     int       `json:"rounds"`
	HP         HP        `json:"hp"`
	WinRate    int       `json:"winRate,omitempty"`
	Grade      Grade     `json:"grade,omitempty"`
	Cancelled  bool      `json:"cancelled"`
	FinishedAt time.Time `json:"finishedAt"`
}

// BattleNotifier 战斗结束通知
type BattleNotifier interface {
	BattleFinished(ctx context.Context, summary BattleSummary) error
}

// NATSNotifier 通过全局 NATS 连接发布事件，未连接时静默跳过
type NATSNotifier struct{}

// BattleFinished 实现 BattleNotifier
func (NATSNotifier) BattleFinished(ctx context.Context, summary BattleSummary) error {
	subject := notify.SubjectBattleFinished
	if summary.Cancelled {
		subject = notify.SubjectBattleCancelled
	}
	return notify.PublishEvent(ctx, subject, summary)
}
