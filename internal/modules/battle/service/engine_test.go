package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"career-royale/internal/pkg/log"
	"career-royale/internal/pkg/metrics"
	"career-royale/internal/pkg/xerrors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDialogue 确定性的对话生成
type fakeDialogue struct {
	mu sync.Mutex

	questionErr error
	answerErr   error
	evalErr     error
	evaluation  *Evaluation

	// blockQuestions 问题生成阻塞直到 ctx 结束
	blockQuestions bool
	// ignoreCtx 阻塞时忽略 ctx（模拟不响应取消的实现）
	ignoreCtx bool
	started   chan struct{}

	questions []QuestionRequest
	answers   []AnswerRequest
	evals     []EvaluationRequest
}

func (f *fakeDialogue) GenerateQuestion(ctx context.Context, req QuestionRequest) (string, error) {
	f.mu.Lock()
	f.questions = append(f.questions, req)
	started := f.started
	f.mu.Unlock()

	if f.blockQuestions {
		if started != nil {
			select {
			case started <- struct{}{}:
			default:
			}
		}
		if f.ignoreCtx {
			time.Sleep(500 * time.Millisecond)
			return "too late", nil
		}
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.questionErr != nil {
		return "", f.questionErr
	}
	return fmt.Sprintf("Q%d", req.Round), nil
}

func (f *fakeDialogue) GenerateAnswer(ctx context.Context, req AnswerRequest) (string, error) {
	f.mu.Lock()
	f.answers = append(f.answers, req)
	f.mu.Unlock()
	if f.answerErr != nil {
		return "", f.answerErr
	}
	return "A:" + req.Question, nil
}

func (f *fakeDialogue) GenerateEvaluation(ctx context.Context, req EvaluationRequest) (*Evaluation, error) {
	f.mu.Lock()
	f.evals = append(f.evals, req)
	f.mu.Unlock()
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	if f.evaluation != nil {
		return f.evaluation, nil
	}
	return &Evaluation{Summary: "ok", Strengths: []string{"s"}, Weaknesses: []string{"w"}}, nil
}

// scriptedCalculator 按攻击方返回固定伤害
type scriptedCalculator struct {
	interviewer int
	candidate   int
	panicOn     int
	calls       int
}

func (c *scriptedCalculator) Damage(mode Mode, attacker Role, round int) int {
	c.calls++
	if c.panicOn > 0 && c.calls == c.panicOn {
		panic("calculator exploded")
	}
	if attacker == RoleInterviewer {
		return c.interviewer
	}
	return c.candidate
}

type recordingNotifier struct {
	mu        sync.Mutex
	summaries []BattleSummary
}

func (n *recordingNotifier) BattleFinished(ctx context.Context, summary BattleSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.summaries = append(n.summaries, summary)
	return nil
}

func (n *recordingNotifier) all() []BattleSummary {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]BattleSummary(nil), n.summaries...)
}

type engineFixture struct {
	store    *MemoryStore
	engine   *Engine
	metrics  *metrics.BattleMetrics
	notifier *recordingNotifier
	clock    *fakeClock
}

func newEngineFixture(t *testing.T, dialogue DialogueProvider, calc DamageCalculator, timeout time.Duration) *engineFixture {
	t.Helper()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))
	m := metrics.NewBattleMetricsWithRegistry("test", prometheus.NewRegistry())
	notifier := &recordingNotifier{}
	engine := NewEngine(store, dialogue, calc, EngineOptions{
		DialogueTimeout: timeout,
		EventBuffer:     4,
		Metrics:         m,
		Notifier:        notifier,
		Logger:          log.NewNopLogger(),
	})
	return &engineFixture{store: store, engine: engine, metrics: m, notifier: notifier, clock: clock}
}

func collect(t *testing.T, stream *Stream) []BattleEvent {
	t.Helper()
	var events []BattleEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-stream.Events():
			if !ok {
				<-stream.Done()
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("事件流未在预期时间内结束")
			return nil
		}
	}
}

func countByType(events []BattleEvent) map[EventType]int {
	counts := make(map[EventType]int)
	for _, ev := range events {
		counts[ev.Type]++
	}
	return counts
}

func TestEngineRunHardBattleToCompletion(t *testing.T) {
	dialogue := &fakeDialogue{}
	fx := newEngineFixture(t, dialogue, &scriptedCalculator{interviewer: 5, candidate: 8}, time.Second)
	battle := fx.store.Create("resume", "jd", ModeHard)

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)
	events := collect(t, stream)
	require.NoError(t, stream.Err())

	counts := countByType(events)
	assert.Equal(t, 1, counts[EventBattleStart])
	assert.Equal(t, 5, counts[EventInterviewerAttack])
	assert.Equal(t, 5, counts[EventCandidateDefend])
	assert.Equal(t, 10, counts[EventDamage])
	assert.Equal(t, 5, counts[EventRoundEnd])
	assert.Equal(t, 1, counts[EventBattleEnd])
	assert.Zero(t, counts[EventError])

	// 事件顺序：start, (attack, damage, defend, damage, round_end) * 5, end
	require.Len(t, events, 27)
	assert.Equal(t, EventBattleStart, events[0].Type)
	assert.Equal(t, StartMessage, events[0].Data.Message)
	for round := 1; round <= 5; round++ {
		base := 1 + (round-1)*5
		assert.Equal(t, EventInterviewerAttack, events[base].Type)
		assert.Equal(t, fmt.Sprintf("Q%d", round), events[base].Data.Message)
		assert.Equal(t, RoleInterviewer, events[base].Data.Sender)

		assert.Equal(t, EventDamage, events[base+1].Type)
		assert.Equal(t, RoleCandidate, events[base+1].Data.Target)
		assert.Equal(t, 100-5*round, events[base+1].Data.HP.Candidate, "候选人 HP 已反映本次伤害")

		assert.Equal(t, EventCandidateDefend, events[base+2].Type)
		assert.Equal(t, RoleCandidate, events[base+2].Data.Sender)

		assert.Equal(t, EventDamage, events[base+3].Type)
		assert.Equal(t, RoleInterviewer, events[base+3].Data.Target)
		assert.Equal(t, 100-8*round, events[base+3].Data.HP.Interviewer)

		assert.Equal(t, EventRoundEnd, events[base+4].Type)
		assert.Equal(t, round, events[base+4].Data.Round)
	}

	end := events[len(events)-1]
	require.Equal(t, EventBattleEnd, end.Type)
	require.NotNil(t, end.Data.Result)
	// 候选人 75，面试官 60：50 + 0.5*15 = 57.5 → 58
	assert.Equal(t, HP{Interviewer: 60, Candidate: 75}, *end.Data.HP)
	assert.Equal(t, 58, end.Data.Result.WinRate)
	assert.Equal(t, GradeD, end.Data.Result.Grade)
	assert.Equal(t, "ok", end.Data.Result.Summary)

	snapshot := battle.Snapshot()
	assert.False(t, snapshot.IsActive)
	assert.Equal(t, 5, snapshot.CurrentRound)
	require.Len(t, snapshot.Turns, 5)
	for i, turn := range snapshot.Turns {
		assert.Equal(t, i+1, turn.Round)
		assert.Equal(t, "A:"+turn.Interviewer, turn.Candidate)
	}

	// 后续回合的问题请求携带之前的回合
	require.Len(t, dialogue.questions, 5)
	assert.Len(t, dialogue.questions[3].PreviousTurns, 3)
	require.Len(t, dialogue.evals, 1)
	assert.Len(t, dialogue.evals[0].Turns, 5)

	assert.Equal(t, float64(1), testutil.ToFloat64(fx.metrics.BattlesFinished.WithLabelValues("hard", "D")))
	assert.Equal(t, float64(0), testutil.ToFloat64(fx.metrics.StreamsActive))

	summaries := fx.notifier.all()
	require.Len(t, summaries, 1)
	assert.False(t, summaries[0].Cancelled)
	assert.Equal(t, GradeD, summaries[0].Grade)

	_, err = fx.engine.Run(context.Background(), battle.ID)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeBattleFinished), "结束的战斗不能再次执行")
}

func TestEngineRunWithUnavailableDialogueUsesFallbacks(t *testing.T) {
	failure := errors.New("provider down")
	dialogue := &fakeDialogue{questionErr: failure, answerErr: failure, evalErr: failure}
	fx := newEngineFixture(t, dialogue, NewRandomCalculator(nil), time.Second)
	battle := fx.store.Create("X", "Y", ModeEasy)

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)
	events := collect(t, stream)
	require.NoError(t, stream.Err())

	counts := countByType(events)
	assert.Equal(t, 3, counts[EventRoundEnd])
	assert.Zero(t, counts[EventError])

	turns := battle.Turns()
	require.Len(t, turns, 3)
	for i, turn := range turns {
		assert.Equal(t, FallbackQuestion(i+1), turn.Interviewer)
		assert.Equal(t, FallbackAnswer(), turn.Candidate)
	}

	end := events[len(events)-1]
	require.Equal(t, EventBattleEnd, end.Type)
	result := end.Data.Result
	fallback := FallbackEvaluation()
	assert.Equal(t, fallback.Summary, result.Summary)
	assert.Equal(t, fallback.Strengths, result.Strengths)
	assert.Equal(t, fallback.Weaknesses, result.Weaknesses)
	assert.GreaterOrEqual(t, result.WinRate, 5)
	assert.LessOrEqual(t, result.WinRate, 95)
	assert.Equal(t, GradeFor(result.WinRate), result.Grade)

	assert.Equal(t, float64(3), testutil.ToFloat64(fx.metrics.DialogueFallbacks.WithLabelValues(CallQuestion)))
	assert.Equal(t, float64(3), testutil.ToFloat64(fx.metrics.DialogueFallbacks.WithLabelValues(CallAnswer)))
	assert.Equal(t, float64(1), testutil.ToFloat64(fx.metrics.DialogueFallbacks.WithLabelValues(CallEvaluation)))
}

func TestEngineStopsAfterKnockout(t *testing.T) {
	fx := newEngineFixture(t, &fakeDialogue{}, &scriptedCalculator{interviewer: 150, candidate: 10}, time.Second)
	battle := fx.store.Create("resume", "jd", ModeHard)

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)
	events := collect(t, stream)

	types := make([]EventType, 0, len(events))
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{
		EventBattleStart,
		EventInterviewerAttack, EventDamage, EventCandidateDefend, EventDamage, EventRoundEnd,
		EventBattleEnd,
	}, types)

	assert.Equal(t, 0, events[2].Data.HP.Candidate, "HP 下限为 0")
	end := events[len(events)-1].Data
	assert.Equal(t, HP{Interviewer: 90, Candidate: 0}, *end.HP)
	assert.Equal(t, 5, end.Result.WinRate)
	assert.Equal(t, GradeF, end.Result.Grade)
	assert.Len(t, battle.Turns(), 1)
}

func TestEngineDialogueTimeoutFallsBack(t *testing.T) {
	dialogue := &fakeDialogue{blockQuestions: true, ignoreCtx: true}
	fx := newEngineFixture(t, dialogue, &scriptedCalculator{interviewer: 1, candidate: 1}, 20*time.Millisecond)
	battle := fx.store.Create("resume", "jd", ModeEasy)

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)
	events := collect(t, stream)
	require.NoError(t, stream.Err())

	assert.Equal(t, EventBattleEnd, events[len(events)-1].Type)
	assert.Equal(t, FallbackQuestion(1), events[1].Data.Message)
}

func TestEngineCloseCancelsProducer(t *testing.T) {
	dialogue := &fakeDialogue{blockQuestions: true, started: make(chan struct{}, 1)}
	fx := newEngineFixture(t, dialogue, &scriptedCalculator{interviewer: 1, candidate: 1}, time.Minute)
	battle := fx.store.Create("resume", "jd", ModeHard)

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)

	first := <-stream.Events()
	assert.Equal(t, EventBattleStart, first.Type)
	<-dialogue.started

	stream.Close()

	_, open := <-stream.Events()
	assert.False(t, open)
	assert.True(t, xerrors.IsCode(stream.Err(), xerrors.CodeBattleStreamFailed))
	assert.False(t, battle.IsActive(), "取消后战斗应为非活跃")
	assert.Empty(t, battle.Turns())

	assert.Equal(t, float64(1), testutil.ToFloat64(fx.metrics.BattlesCancelled.WithLabelValues("hard")))
	assert.Equal(t, float64(0), testutil.ToFloat64(fx.metrics.DialogueFallbacks.WithLabelValues(CallQuestion)))

	summaries := fx.notifier.all()
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Cancelled)

	// 租约已归还，战斗已结束
	_, err = fx.engine.Run(context.Background(), battle.ID)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeBattleFinished))
}

func TestEngineRejectsConcurrentRun(t *testing.T) {
	dialogue := &fakeDialogue{blockQuestions: true}
	fx := newEngineFixture(t, dialogue, &scriptedCalculator{}, time.Minute)
	battle := fx.store.Create("resume", "jd", ModeEasy)

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)
	defer stream.Close()

	_, err = fx.engine.Run(context.Background(), battle.ID)
	assert.True(t, xerrors.IsCode(err, xerrors.CodeBattleInProgress))

	_, err = fx.engine.Run(context.Background(), "missing")
	assert.True(t, xerrors.IsCode(err, xerrors.CodeBattleNotFound))
}

func TestEngineReaperCancelsRunningBattle(t *testing.T) {
	dialogue := &fakeDialogue{blockQuestions: true, started: make(chan struct{}, 1)}
	fx := newEngineFixture(t, dialogue, &scriptedCalculator{}, time.Minute)
	battle := fx.store.Create("resume", "jd", ModeHard)
	fx.metrics.SetStored(fx.store.Len())

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)
	<-stream.Events()
	<-dialogue.started

	fx.clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, fx.store.Reap(time.Hour))

	events := collect(t, stream)
	assert.Empty(t, events)
	err = stream.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, errBattleReaped)

	_, ok := fx.store.Get(battle.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, fx.store.Len())
	assert.Equal(t, float64(0), testutil.ToFloat64(fx.metrics.BattlesStored))
}

func TestEnginePanicSurfacesAsStreamFailure(t *testing.T) {
	fx := newEngineFixture(t, &fakeDialogue{}, &scriptedCalculator{interviewer: 1, candidate: 1, panicOn: 2}, time.Second)
	battle := fx.store.Create("resume", "jd", ModeEasy)

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)
	events := collect(t, stream)

	assert.NotEqual(t, EventBattleEnd, events[len(events)-1].Type)
	assert.True(t, xerrors.IsCode(stream.Err(), xerrors.CodeBattleStreamFailed))
	assert.False(t, battle.IsActive())
}

func TestEngineEmptyEvaluationFallsBack(t *testing.T) {
	dialogue := &fakeDialogue{evaluation: &Evaluation{Summary: "   "}}
	fx := newEngineFixture(t, dialogue, &scriptedCalculator{interviewer: 1, candidate: 1}, time.Second)
	battle := fx.store.Create("resume", "jd", ModeEasy)

	stream, err := fx.engine.Run(context.Background(), battle.ID)
	require.NoError(t, err)
	events := collect(t, stream)

	result := events[len(events)-1].Data.Result
	require.NotNil(t, result)
	assert.Equal(t, FallbackEvaluation().Summary, result.Summary)
}
