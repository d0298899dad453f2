// File: internal/pkg/metrics/battle_metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BattleMetrics 面试战斗业务指标
// 所有方法对 nil 接收者安全，未启用指标时可直接传 nil
type BattleMetrics struct {
	// 创建的战斗数（按模式分组）
	BattlesCreated *prometheus.CounterVec

	// 正常结束的战斗数（按模式、评级分组）
	BattlesFinished *prometheus.CounterVec

	// 因连接断开或服务关闭而中止的战斗数
	BattlesCancelled *prometheus.CounterVec

	// 当前正在推送的 SSE 流数量
	StreamsActive prometheus.Gauge

	// 一场战斗从开始推送到结束的耗时
	BattleDuration *prometheus.HistogramVec

	// 对话生成回退到固定内容的次数（按调用类型分组：question/answer/evaluation）
	DialogueFallbacks *prometheus.CounterVec

	// 对话生成调用耗时
	DialogueCallDuration *prometheus.HistogramVec

	// 被清理任务回收的战斗数
	BattlesReaped prometheus.Counter

	// 当前存储中的战斗数
	BattlesStored prometheus.Gauge
}

// BattleBuckets 整场战斗耗时 buckets（秒），每轮包含两次模型调用
var BattleBuckets = []float64{1, 5, 10, 20, 30, 60, 90, 120, 180}

// DialogueBuckets 单次对话生成耗时 buckets（秒）
var DialogueBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30}

// NewBattleMetricsWithRegistry 创建战斗指标（使用自定义注册表）
func NewBattleMetricsWithRegistry(namespace string, registerer prometheus.Registerer) *BattleMetrics {
	factory := promauto.With(registerer)

	return &BattleMetrics{
		BattlesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "battles_created_total",
				Help:      "Total number of battles created by mode",
			},
			[]string{"mode"},
		),
		BattlesFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "battles_finished_total",
				Help:      "Total number of battles that reached battle_end by mode and grade",
			},
			[]string{"mode", "grade"},
		),
		BattlesCancelled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "battles_cancelled_total",
				Help:      "Total number of battles stopped before battle_end by mode",
			},
			[]string{"mode"},
		),
		StreamsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "battle_streams_active",
				Help:      "Current number of battle event streams being produced",
			},
		),
		BattleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "battle_duration_seconds",
				Help:      "Battle execution time from battle_start to the last event by mode",
				Buckets:   BattleBuckets,
			},
			[]string{"mode"},
		),
		DialogueFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dialogue_fallbacks_total",
				Help:      "Total number of dialogue calls answered with fixed fallback content by call type",
			},
			[]string{"call"},
		),
		DialogueCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dialogue_call_duration_seconds",
				Help:      "Dialogue provider call latency by call type",
				Buckets:   DialogueBuckets,
			},
			[]string{"call"},
		),
		BattlesReaped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "battles_reaped_total",
				Help:      "Total number of battles removed by the reaper",
			},
		),
		BattlesStored: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "battles_stored",
				Help:      "Current number of battles held in memory",
			},
		),
	}
}

func (m *BattleMetrics) RecordCreated(mode string) {
	if m == nil {
		return
	}
	m.BattlesCreated.WithLabelValues(mode).Inc()
}

func (m *BattleMetrics) RecordFinished(mode, grade string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BattlesFinished.WithLabelValues(mode, grade).Inc()
	m.BattleDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (m *BattleMetrics) RecordCancelled(mode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.BattlesCancelled.WithLabelValues(mode).Inc()
	m.BattleDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (m *BattleMetrics) StreamStarted() {
	if m == nil {
		return
	}
	m.StreamsActive.Inc()
}

func (m *BattleMetrics) StreamStopped() {
	if m == nil {
		return
	}
	m.StreamsActive.Dec()
}

// RecordDialogueCall 记录一次对话生成调用，fallback 表示最终使用了固定内容
func (m *BattleMetrics) RecordDialogueCall(call string, duration time.Duration, fallback bool) {
	if m == nil {
		return
	}
	m.DialogueCallDuration.WithLabelValues(call).Observe(duration.Seconds())
	if fallback {
		m.DialogueFallbacks.WithLabelValues(call).Inc()
	}
}

// RecordReaped 记录一次清理结果
func (m *BattleMetrics) RecordReaped(removed, remaining int) {
	if m == nil {
		return
	}
	m.BattlesReaped.Add(float64(removed))
	m.BattlesStored.Set(float64(remaining))
}

// SetStored 设置当前存储中的战斗数
func (m *BattleMetrics) SetStored(count int) {
	if m == nil {
		return
	}
	m.BattlesStored.Set(float64(count))
}
