package main

import (
	"github.com/bionicotaku/lingo-services-learning/internal/controllers"
	loader "github.com/bionicotaku/lingo-services-learning/internal/infrastructure/config_loader"
	"github.com/bionicotaku/lingo-services-learning/internal/services"
)

func provideServiceConfig(p loader.Playback) services.Config {
	return services.Config{
		DefaultDuration:          p.DefaultDuration,
		SeekThreshold:            p.SeekThreshold,
		AbnormalSeekLimit:        p.AbnormalSeekLimit,
		MinDelta:                 p.MinDelta,
		MaxDelta:                 p.MaxDelta,
		RateFloor:                p.RateFloor,
		CompletionRate:           p.CompletionRate,
		EffectiveRate:            p.EffectiveRate,
		TriggerProgress:          p.TriggerProgress,
		LessonCompletePercentage: p.LessonCompletePercentage,
		RollupTimeout:            p.RollupTimeout.Std(),
	}
}

func provideBaseHandler(c *loader.Server) *controllers.BaseHandler {
	return controllers.NewBaseHandler(controllers.HandlerTimeouts{
		Default: c.Handlers.Default.Std(),
		Command: c.Handlers.Command.Std(),
		Query:   c.Handlers.Query.Std(),
	})
}
