package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"career-royale/internal/pkg/ctxkey"
	"career-royale/internal/pkg/log"
	"career-royale/internal/pkg/metrics"
	"career-royale/internal/pkg/xerrors"
)

// errBattleReaped 战斗在执行中被清理任务回收
var errBattleReaped = errors.New("battle reaped while running")

// EngineOptions 战斗引擎选项
type EngineOptions struct {
	// DialogueTimeout 单次对话生成的时长上限，<=0 表示只受调用方 ctx 约束
	DialogueTimeout time.Duration
	// EventBuffer 事件通道容量
	EventBuffer int
	Metrics     *metrics.BattleMetrics
	Notifier    BattleNotifier
	Logger      log.Logger
}

// Engine 战斗引擎：驱动回合、结算伤害并按顺序产出事件
type Engine struct {
	store    Store
	dialogue DialogueProvider
	calc     DamageCalculator
	opts     EngineOptions
	logger   log.Logger
}

// NewEngine 创建战斗引擎
func NewEngine(store Store, dialogue DialogueProvider, calc DamageCalculator, opts EngineOptions) *Engine {
	if calc == nil {
		calc = NewRandomCalculator(nil)
	}
	if opts.EventBuffer < 0 {
		opts.EventBuffer = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Engine{
		store:    store,
		dialogue: dialogue,
		calc:     calc,
		opts:     opts,
		logger:   logger.With("component", "battle_engine"),
	}
}

// Stream 一次战斗执行产出的事件流，只能消费一次
type Stream struct {
	battleID string
	events   chan BattleEvent
	cancel   context.CancelCauseFunc
	done     chan struct{}

	mu  sync.Mutex
	err error
}

// Events 事件通道，执行结束（正常或失败）后关闭
func (s *Stream) Events() <-chan BattleEvent {
	return s.events
}

// Done 生产者退出后关闭
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Err 执行未能到达 battle_end 时返回原因，应在 Events 关闭后调用
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close 中止执行并等待生产者退出，可重复调用
func (s *Stream) Close() {
	s.cancel(context.Canceled)
	<-s.done
}

func (s *Stream) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// Run 开始执行战斗
// 战斗不存在、正在被其他连接执行或已经结束时返回错误，此时不会产出任何事件
func (e *Engine) Run(ctx context.Context, battleID string) (*Stream, error) {
	runCtx, cancel := context.WithCancelCause(ctx)
	battle, err := e.store.Acquire(battleID, func() { cancel(errBattleReaped) })
	if err != nil {
		cancel(nil)
		return nil, err
	}

	s := &Stream{
		battleID: battleID,
		events:   make(chan BattleEvent, e.opts.EventBuffer),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go e.produce(ctxkey.WithValue(runCtx, ctxkey.BattleID, battleID), battle, s)
	return s, nil
}

// produce 生产者 goroutine，所有状态修改都先于对应事件发出
func (e *Engine) produce(ctx context.Context, battle *Battle, s *Stream) {
	start := time.Now()
	e.opts.Metrics.StreamStarted()

	var (
		result   *Result
		finished bool
	)
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "战斗执行 panic", log.Any("panic_value", r))
			s.fail(xerrors.NewBattleStreamError(battle.ID, fmt.Errorf("panic: %v", r)))
		}

		// 中途取消也要保证战斗进入结束状态
		battle.deactivate()
		e.store.Release(battle.ID)
		e.opts.Metrics.SetStored(e.store.Len())

		if finished {
			e.opts.Metrics.RecordFinished(string(battle.Mode), string(result.Grade), time.Since(start))
		} else {
			e.opts.Metrics.RecordCancelled(string(battle.Mode), time.Since(start))
		}
		e.opts.Metrics.StreamStopped()
		e.publishSummary(ctx, battle, result, !finished)

		close(s.events)
		s.cancel(context.Canceled)
		close(s.done)
	}()

	e.logger.InfoContext(ctx, "战斗开始执行", log.String("mode", string(battle.Mode)))

	var err error
	result, err = e.play(ctx, battle, s)
	if err != nil {
		cause := context.Cause(ctx)
		if cause == nil {
			cause = err
		}
		s.fail(xerrors.NewBattleStreamError(battle.ID, cause))
		e.logger.WarnContext(ctx, "战斗执行中止",
			log.Any("cause", cause),
			log.Int("round", battle.Snapshot().CurrentRound),
		)
		return
	}
	finished = true

	log.LogBusinessEvent(ctx, e.logger, "battle_finished", "battle", battle.ID, map[string]interface{}{
		"mode":     battle.Mode,
		"win_rate": result.WinRate,
		"grade":    result.Grade,
		"rounds":   len(battle.Turns()),
	})
}

// play 按回合执行战斗，返回最终结果；仅在 ctx 被取消时返回错误
func (e *Engine) play(ctx context.Context, battle *Battle, s *Stream) (*Result, error) {
	if err := e.emit(ctx, s, startEvent(battle.HP())); err != nil {
		return nil, err
	}

	for round := 1; round <= battle.Mode.TotalRounds(); round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		battle.beginRound(round)

		question := e.question(ctx, battle, round)
		if err := e.emit(ctx, s, attackEvent(round, question)); err != nil {
			return nil, err
		}

		toCandidate := e.calc.Damage(battle.Mode, RoleInterviewer, round)
		if err := e.emit(ctx, s, damageEvent(RoleCandidate, toCandidate, battle.applyDamage(RoleCandidate, toCandidate))); err != nil {
			return nil, err
		}

		answer := e.answer(ctx, battle, question)
		if err := e.emit(ctx, s, defendEvent(round, answer)); err != nil {
			return nil, err
		}

		toInterviewer := e.calc.Damage(battle.Mode, RoleCandidate, round)
		if err := e.emit(ctx, s, damageEvent(RoleInterviewer, toInterviewer, battle.applyDamage(RoleInterviewer, toInterviewer))); err != nil {
			return nil, err
		}

		hp := battle.appendTurn(Turn{
			Round:               round,
			Interviewer:         question,
			Candidate:           answer,
			DamageToCandidate:   toCandidate,
			DamageToInterviewer: toInterviewer,
		})
		if err := e.emit(ctx, s, roundEndEvent(round, hp)); err != nil {
			return nil, err
		}

		if battle.KnockedOut() {
			break
		}
	}

	battle.deactivate()
	result := e.result(ctx, battle)
	if err := e.emit(ctx, s, endEvent(result, battle.HP())); err != nil {
		return nil, err
	}
	return &result, nil
}

// emit 发送事件，消费者停止读取并取消 ctx 时返回
func (e *Engine) emit(ctx context.Context, s *Stream, event BattleEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case s.events <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) question(ctx context.Context, battle *Battle, round int) string {
	req := QuestionRequest{
		Resume:        battle.Resume,
		JD:            battle.JD,
		Mode:          battle.Mode,
		Round:         round,
		PreviousTurns: battle.Turns(),
	}
	text, err := e.callText(ctx, CallQuestion, func(callCtx context.Context) (string, error) {
		return e.dialogue.GenerateQuestion(callCtx, req)
	})
	if err != nil {
		return FallbackQuestion(round)
	}
	return text
}

func (e *Engine) answer(ctx context.Context, battle *Battle, question string) string {
	req := AnswerRequest{
		Resume:   battle.Resume,
		JD:       battle.JD,
		Question: question,
		Mode:     battle.Mode,
	}
	text, err := e.callText(ctx, CallAnswer, func(callCtx context.Context) (string, error) {
		return e.dialogue.GenerateAnswer(callCtx, req)
	})
	if err != nil {
		return FallbackAnswer()
	}
	return text
}

// result 胜率只由最终血量决定，评价文案来自对话生成
func (e *Engine) result(ctx context.Context, battle *Battle) Result {
	hp := battle.HP()
	winRate, grade := Outcome(hp.Candidate, hp.Interviewer)

	req := EvaluationRequest{
		Resume: battle.Resume,
		JD:     battle.JD,
		Mode:   battle.Mode,
		Turns:  battle.Turns(),
		HP:     hp,
	}
	started := time.Now()
	eval, err := callDialogue(ctx, e.opts.DialogueTimeout, func(callCtx context.Context) (*Evaluation, error) {
		return e.dialogue.GenerateEvaluation(callCtx, req)
	})
	if err == nil && (eval == nil || strings.TrimSpace(eval.Summary) == "") {
		err = errors.New("empty evaluation")
	}
	e.recordCall(ctx, CallEvaluation, started, err)
	if err != nil {
		eval = FallbackEvaluation()
	}

	return Result{
		WinRate:    winRate,
		Grade:      grade,
		Summary:    strings.TrimSpace(eval.Summary),
		Strengths:  nonNil(eval.Strengths),
		Weaknesses: nonNil(eval.Weaknesses),
	}
}

// callText 调用对话生成并校验文本非空，失败返回错误由调用方替换为固定内容
func (e *Engine) callText(ctx context.Context, call string, fn func(context.Context) (string, error)) (string, error) {
	started := time.Now()
	text, err := callDialogue(ctx, e.opts.DialogueTimeout, fn)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errors.New("empty completion")
	}
	e.recordCall(ctx, call, started, err)
	return text, err
}

// recordCall 执行已被取消时不计为回退
func (e *Engine) recordCall(ctx context.Context, call string, started time.Time, err error) {
	if ctx.Err() != nil {
		return
	}
	e.opts.Metrics.RecordDialogueCall(call, time.Since(started), err != nil)
	if err == nil {
		return
	}
	appErr := xerrors.NewDialogueProviderError(call, err)
	log.LogAppError(ctx, e.logger, "对话生成失败，使用固定内容", appErr)
}

func (e *Engine) publishSummary(ctx context.Context, battle *Battle, result *Result, cancelled bool) {
	if e.opts.Notifier == nil {
		return
	}
	snapshot := battle.Snapshot()
	summary := BattleSummary{
		BattleID:   battle.ID,
		Mode:       battle.Mode,
		Rounds:     len(snapshot.Turns),
		HP:         snapshot.HP,
		Cancelled:  cancelled,
		FinishedAt: time.Now(),
	}
	if result != nil {
		summary.WinRate = result.WinRate
		summary.Grade = result.Grade
	}

	// 执行 ctx 此时可能已取消，通知仍需发出
	if err := e.opts.Notifier.BattleFinished(context.WithoutCancel(ctx), summary); err != nil {
		e.logger.WarnContext(ctx, "战斗结束通知发送失败", log.Any("error", err))
	}
}

// callDialogue 在超时限制内执行一次对话调用
// 实现方忽略 ctx 时不会阻塞回合，迟到的结果被丢弃
func callDialogue[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{err: fmt.Errorf("dialogue provider panic: %v", r)}
			}
		}()
		v, err := fn(callCtx)
		ch <- outcome{value: v, err: err}
	}()

	select {
	case o := <-ch:
		return o.value, o.err
	case <-callCtx.Done():
		var zero T
		return zero, callCtx.Err()
	}
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
