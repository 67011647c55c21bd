// Package services 编排播放上报、进度汇总与学习统计用例。
package services

import (
	"github.com/bionicotaku/lingo-services-learning/internal/repositories"
	"github.com/google/wire"
)

// ProviderSet 暴露服务层构造函数，并把仓储实现绑定到服务依赖的接口。
var ProviderSet = wire.NewSet(
	NewPlayTrackingService,
	NewProgressService,
	NewLearningStatsService,
	wire.Bind(new(PlayRecordStore), new(*repositories.PlayRecordRepository)),
	wire.Bind(new(PlayEventLog), new(*repositories.PlayEventRepository)),
	wire.Bind(new(MediaCatalog), new(*repositories.MediaCatalogRepository)),
	wire.Bind(new(LessonProgressRepo), new(*repositories.LessonProgressRepository)),
	wire.Bind(new(LearningStatsRepo), new(*repositories.LearningStatsRepository)),
	wire.Bind(new(OutboxRepo), new(*repositories.OutboxRepository)),
	wire.Bind(new(LessonRollup), new(*ProgressService)),
)
