package services

import (
	"errors"
	"math"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
)

var (
	// ErrOutOfRangeDelta 表示增量不在可累计区间内，调用方只记录日志。
	ErrOutOfRangeDelta = errors.New("services: playback delta out of range")
	// ErrMissingReference 表示找不到累计起点。
	ErrMissingReference = errors.New("services: playback reference time missing")
)

// WatchCredit 描述一次累计的计算结果。
type WatchCredit struct {
	Reference float64
	TimeDiff  float64
	Effective float64
}

// EffectiveDurationCalculator 根据相邻事件计算连续观看时长。
type EffectiveDurationCalculator struct {
	minDelta  float64
	maxDelta  float64
	rateFloor float64
}

// NewEffectiveDurationCalculator 构造计算器。
func NewEffectiveDurationCalculator(cfg Config) *EffectiveDurationCalculator {
	cfg = cfg.withDefaults()
	return &EffectiveDurationCalculator{
		minDelta:  cfg.MinDelta,
		maxDelta:  cfg.MaxDelta,
		rateFloor: cfg.RateFloor,
	}
}

// Compute 计算本次事件可计入的时长。reference 为最近一次 play/resume/heartbeat，
// 仅在事件自身未携带 previousTime 时使用。
func (c *EffectiveDurationCalculator) Compute(evt NormalizedEvent, reference *po.PlayEvent) (WatchCredit, error) {
	var ref float64
	switch {
	case evt.PreviousTime != nil:
		ref = *evt.PreviousTime
	case reference != nil:
		ref = reference.CurrentTime
	default:
		return WatchCredit{}, ErrMissingReference
	}

	diff := evt.CurrentTime - ref
	if math.IsNaN(diff) || diff < c.minDelta || diff > c.maxDelta {
		return WatchCredit{Reference: ref, TimeDiff: diff}, ErrOutOfRangeDelta
	}
	return WatchCredit{
		Reference: ref,
		TimeDiff:  diff,
		Effective: diff / math.Max(evt.PlaybackRate, c.rateFloor),
	}, nil
}

// Apply 计算并写入记录，返回实际计入的有效时长。非累计类事件直接返回 0。
func (c *EffectiveDurationCalculator) Apply(rec *po.PlayRecord, evt NormalizedEvent, reference *po.PlayEvent) (float64, error) {
	if rec == nil || !evt.Kind.AccruesWatchTime() {
		return 0, nil
	}
	credit, err := c.Compute(evt, reference)
	if err != nil {
		return 0, err
	}
	return rec.CreditWatchTime(credit.TimeDiff, credit.Effective), nil
}
