package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"career-royale/internal/pkg/log"
)

// Reaper 回收过期战斗的能力，由 BattleService 实现
type Reaper interface {
	ReapExpired(ctx context.Context, maxAge time.Duration) int
}

// ReaperTask 定时回收过期战斗
type ReaperTask struct {
	reaper   Reaper
	maxAge   time.Duration
	schedule string
	logger   log.Logger
	cron     *cron.Cron
}

// NewReaperTask 创建定时回收任务，schedule 为带秒的 cron 表达式
func NewReaperTask(reaper Reaper, schedule string, maxAge time.Duration, logger log.Logger) *ReaperTask {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &ReaperTask{
		reaper:   reaper,
		maxAge:   maxAge,
		schedule: schedule,
		logger:   logger,
	}
}

// Start 启动定时任务
func (t *ReaperTask) Start() error {
	// Cron 表达式: 秒 分 时 日 月 周
	t.cron = cron.New(cron.WithSeconds())

	if _, err := t.cron.AddFunc(t.schedule, func() { t.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("add reaper schedule %q: %w", t.schedule, err)
	}

	t.cron.Start()
	t.logger.Info("【定时任务】战斗回收已启动",
		log.String("schedule", t.schedule),
		log.String("max_age", t.maxAge.String()),
	)
	return nil
}

// RunOnce 执行一次回收
func (t *ReaperTask) RunOnce(ctx context.Context) int {
	return t.reaper.ReapExpired(ctx, t.maxAge)
}

// Stop 停止调度并等待正在执行的回收结束
func (t *ReaperTask) Stop(ctx context.Context) {
	if t.cron == nil {
		return
	}
	select {
	case <-t.cron.Stop().Done():
		t.logger.Info("【定时任务】战斗回收已停止")
	case <-ctx.Done():
		t.logger.Warn("【定时任务】等待战斗回收结束超时")
	}
}
