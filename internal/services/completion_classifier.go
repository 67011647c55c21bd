package services

import (
	"time"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
)

// 大量拖动时的有效时长阈值折扣。
const (
	heavySeekCount     = 10
	moderateSeekCount  = 5
	heavySeekFactor    = 0.7
	moderateSeekFactor = 0.85
)

// CompletionVerdict 是一次完成判定的中间结果。
type CompletionVerdict struct {
	CompletionRate float64
	EffectiveRate  float64
	Threshold      float64
	Abnormal       bool
	Completed      bool
}

// CompletionClassifier 判断媒体是否真正看完。
type CompletionClassifier struct {
	completionRate  float64
	effectiveRate   float64
	triggerProgress float64
}

// NewCompletionClassifier 构造分类器。
func NewCompletionClassifier(cfg Config) *CompletionClassifier {
	cfg = cfg.withDefaults()
	return &CompletionClassifier{
		completionRate:  cfg.CompletionRate,
		effectiveRate:   cfg.EffectiveRate,
		triggerProgress: cfg.TriggerProgress,
	}
}

// ShouldEvaluate 报告本次事件是否触发完成判定。
func (c *CompletionClassifier) ShouldEvaluate(kind po.EventType, progress float64) bool {
	return kind == po.EventEnded || progress >= c.triggerProgress
}

// EffectiveThreshold 返回按拖动次数折扣后的有效时长阈值。
func (c *CompletionClassifier) EffectiveThreshold(seekCount int32) float64 {
	switch {
	case seekCount > heavySeekCount:
		return c.effectiveRate * heavySeekFactor
	case seekCount > moderateSeekCount:
		return c.effectiveRate * moderateSeekFactor
	default:
		return c.effectiveRate
	}
}

// Assess 计算判定结果，不修改记录。duration<=0 时返回 ErrUnknownDuration。
func (c *CompletionClassifier) Assess(rec *po.PlayRecord, duration float64) (CompletionVerdict, error) {
	if rec == nil {
		return CompletionVerdict{}, nil
	}
	if duration <= 0 {
		return CompletionVerdict{Abnormal: rec.IsAbnormalBehavior}, ErrUnknownDuration
	}
	v := CompletionVerdict{
		CompletionRate: rec.CompletionRate(duration),
		EffectiveRate:  rec.EffectiveDuration / duration,
		Threshold:      c.EffectiveThreshold(rec.SeekCount),
		Abnormal:       rec.IsAbnormalBehavior,
	}
	v.Completed = v.CompletionRate >= c.completionRate && v.EffectiveRate >= v.Threshold && !v.Abnormal
	return v, nil
}

// Evaluate 判定并在满足条件时标记完成，返回记录当前的完成状态。已完成的记录不会回退。
func (c *CompletionClassifier) Evaluate(rec *po.PlayRecord, duration float64, now time.Time) (bool, error) {
	if rec == nil {
		return false, nil
	}
	verdict, err := c.Assess(rec, duration)
	if err != nil {
		return rec.Completed, err
	}
	if verdict.Completed {
		rec.MarkCompleted(now)
	}
	return rec.Completed, nil
}
