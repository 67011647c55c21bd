// Package messaging 基于 lingo-utils/gcpubsub 构造领域事件发布器，供 outbox 任务投递。
package messaging

import (
	"context"
	"fmt"

	"github.com/bionicotaku/lingo-utils/gcpubsub"
	"github.com/go-kratos/kratos/v2/log"
)

// NewPublisher 构造 Topic 发布器。TopicID 为空时返回 nil 发布器与空 cleanup，Outbox 任务随之停用。
func NewPublisher(ctx context.Context, cfg gcpubsub.Config, logger log.Logger) (gcpubsub.Publisher, func(), error) {
	helper := log.NewHelper(logger)
	if cfg.TopicID == "" {
		helper.Infow("msg", "pubsub topic not configured, publisher disabled")
		return nil, func() {}, nil
	}

	component, cleanup, err := gcpubsub.NewComponent(ctx, cfg, gcpubsub.Dependencies{Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("messaging: init pubsub component: %w", err)
	}

	helper.Infow("msg", "pubsub publisher ready",
		"project", cfg.ProjectID,
		"topic", cfg.TopicID,
		"emulator", cfg.EmulatorEndpoint != "",
	)
	return gcpubsub.ProvidePublisher(component), cleanup, nil
}
