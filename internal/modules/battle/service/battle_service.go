package service

import (
	"context"
	"strings"
	"time"

	"career-royale/internal/pkg/log"
	"career-royale/internal/pkg/metrics"
	"career-royale/internal/pkg/xerrors"
)

// BattleService 面向 HTTP 层的战斗服务
type BattleService struct {
	store   Store
	engine  *Engine
	metrics *metrics.BattleMetrics
	logger  log.Logger
}

// NewBattleService 构造函数
func NewBattleService(store Store, engine *Engine, m *metrics.BattleMetrics, logger log.Logger) *BattleService {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &BattleService{
		store:   store,
		engine:  engine,
		metrics: m,
		logger:  logger.With("component", "battle_service"),
	}
}

// StartBattle 创建战斗，校验失败时不创建任何状态
func (s *BattleService) StartBattle(ctx context.Context, resume, jd string, mode Mode) (*Battle, error) {
	if strings.TrimSpace(resume) == "" {
		return nil, xerrors.NewValidationError("resume", "简历内容不能为空")
	}
	if strings.TrimSpace(jd) == "" {
		return nil, xerrors.NewValidationError("jd", "职位描述不能为空")
	}
	if !mode.Valid() {
		return nil, xerrors.NewValidationError("mode", "难度模式只能是 easy 或 hard")
	}

	battle := s.store.Create(resume, jd, mode)
	s.metrics.RecordCreated(string(mode))
	s.metrics.SetStored(s.store.Len())

	s.logger.InfoContext(ctx, "战斗已创建",
		log.String("battle_id", battle.ID),
		log.String("mode", string(mode)),
	)
	return battle, nil
}

// GetBattle 查询战斗快照
func (s *BattleService) GetBattle(ctx context.Context, id string) (*BattleSnapshot, error) {
	battle, ok := s.store.Get(id)
	if !ok {
		return nil, xerrors.NewBattleNotFoundError(id)
	}
	snapshot := battle.Snapshot()
	return &snapshot, nil
}

// StreamBattle 开始执行战斗并返回事件流，ctx 取消即中止执行
func (s *BattleService) StreamBattle(ctx context.Context, id string) (*Stream, error) {
	return s.engine.Run(ctx, id)
}

// ReapExpired 回收超过 maxAge 的战斗
func (s *BattleService) ReapExpired(ctx context.Context, maxAge time.Duration) int {
	removed := s.store.Reap(maxAge)
	remaining := s.store.Len()
	s.metrics.RecordReaped(removed, remaining)

	if removed > 0 {
		s.logger.InfoContext(ctx, "过期战斗已回收",
			log.Int("reaped", removed),
			log.Int("remaining", remaining),
			log.String("max_age", maxAge.String()),
		)
	}
	return removed
}
