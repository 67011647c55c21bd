package outbox

import (
	"github.com/bionicotaku/lingo-services-learning/internal/repositories"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	outboxcfg "github.com/bionicotaku/lingo-utils/outbox/config"
	outboxpublisher "github.com/bionicotaku/lingo-utils/outbox/publisher"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"go.opentelemetry.io/otel"
)

// ProviderSet 暴露 outbox 发布任务。
var ProviderSet = wire.NewSet(ProvideRunner, ProvideTask)

// ProvideRunner 将共享仓储与 Pub/Sub 发布器包装为 Outbox Runner。未配置 Topic 时返回 nil。
func ProvideRunner(
	repo *repositories.OutboxRepository,
	publisher gcpubsub.Publisher,
	pubCfg gcpubsub.Config,
	cfg outboxcfg.Config,
	logger log.Logger,
) *outboxpublisher.Runner {
	if repo == nil || logger == nil || publisher == nil {
		return nil
	}
	if pubCfg.TopicID == "" {
		return nil
	}

	meter := otel.GetMeterProvider().Meter("lingo-services-learning.outbox")
	runner, err := outboxpublisher.NewRunner(outboxpublisher.RunnerParams{
		Store:     repo.Shared(),
		Publisher: publisher,
		Config:    cfg.Publisher,
		Logger:    logger,
		Meter:     meter,
	})
	if err != nil {
		log.NewHelper(logger).Errorw("msg", "init outbox runner failed", "error", err)
		return nil
	}
	return runner
}

// ProvideTask 将 Runner 挂到 kratos 生命周期；runner 为 nil 时返回 nil，main 据此跳过注册。
func ProvideTask(runner *outboxpublisher.Runner, logger log.Logger) *Task {
	if runner == nil {
		return nil
	}
	return NewTask(runner, logger)
}
