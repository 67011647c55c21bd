package services

import (
	"math"

	"github.com/bionicotaku/lingo-services-learning/internal/models/po"
)

// SeekDetector 识别疑似跳过内容的大幅拖动。
type SeekDetector struct {
	threshold float64
	limit     int32
}

// NewSeekDetector 构造检测器。
func NewSeekDetector(cfg Config) *SeekDetector {
	cfg = cfg.withDefaults()
	return &SeekDetector{threshold: cfg.SeekThreshold, limit: cfg.AbnormalSeekLimit}
}

// Inspect 对一次 seek 打分，返回该次拖动是否异常。
func (d *SeekDetector) Inspect(rec *po.PlayRecord, from, to float64) bool {
	if rec == nil {
		return false
	}
	if math.Abs(to-from) <= d.threshold {
		return false
	}
	rec.RecordAbnormalSeek(d.limit)
	return true
}

// SeekOrigin 返回 seek 的起点：事件自带 previousTime 优先，否则取记录在本事件前的位置。
func SeekOrigin(evt NormalizedEvent, prior *po.PlayRecord) float64 {
	if evt.PreviousTime != nil {
		return *evt.PreviousTime
	}
	if prior == nil {
		return 0
	}
	return prior.CurrentTime
}
