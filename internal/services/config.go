package services

import "time"

// Config 汇总播放进度判定使用的阈值，零值字段回落到默认值。
type Config struct {
	DefaultDuration          float64       // 目录与客户端均无时长时的兜底秒数
	SeekThreshold            float64       // 超过该距离（秒）的 seek 视为异常
	AbnormalSeekLimit        int32         // 异常 seek 达到该次数后永久标记
	MinDelta                 float64       // 单次累计的最小增量（秒）
	MaxDelta                 float64       // 单次累计的最大增量（秒）
	RateFloor                float64       // 折算有效时长时的最低倍速
	CompletionRate           float64       // 媒体完成所需的最远位置占比
	EffectiveRate            float64       // 媒体完成所需的有效时长占比
	TriggerProgress          float64       // 触发完成判定的进度
	LessonCompletePercentage float64       // 课时完成所需的百分比
	RollupTimeout            time.Duration // 上报后课时汇总的超时
}

// 默认阈值。
const (
	DefaultDuration          = 3600.0
	DefaultSeekThreshold     = 30.0
	DefaultAbnormalSeekLimit = int32(5)
	DefaultMinDelta          = 0.1
	DefaultMaxDelta          = 120.0
	DefaultRateFloor         = 0.25
	DefaultCompletionRate    = 0.95
	DefaultEffectiveRate     = 0.8
	DefaultTriggerProgress   = 0.9
	DefaultLessonComplete    = 90.0
	DefaultRollupTimeout     = 3 * time.Second
)

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = DefaultDuration
	}
	if c.SeekThreshold <= 0 {
		c.SeekThreshold = DefaultSeekThreshold
	}
	if c.AbnormalSeekLimit <= 0 {
		c.AbnormalSeekLimit = DefaultAbnormalSeekLimit
	}
	if c.MinDelta <= 0 {
		c.MinDelta = DefaultMinDelta
	}
	if c.MaxDelta <= 0 || c.MaxDelta < c.MinDelta {
		c.MaxDelta = DefaultMaxDelta
	}
	if c.RateFloor <= 0 {
		c.RateFloor = DefaultRateFloor
	}
	if c.CompletionRate <= 0 || c.CompletionRate > 1 {
		c.CompletionRate = DefaultCompletionRate
	}
	if c.EffectiveRate <= 0 || c.EffectiveRate > 1 {
		c.EffectiveRate = DefaultEffectiveRate
	}
	if c.TriggerProgress <= 0 || c.TriggerProgress > 1 {
		c.TriggerProgress = DefaultTriggerProgress
	}
	if c.LessonCompletePercentage <= 0 || c.LessonCompletePercentage > 100 {
		c.LessonCompletePercentage = DefaultLessonComplete
	}
	if c.RollupTimeout <= 0 {
		c.RollupTimeout = DefaultRollupTimeout
	}
	return c
}
