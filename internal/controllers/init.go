package controllers

import (
	"github.com/bionicotaku/lingo-services-learning/internal/services"

	"github.com/google/wire"
)

// ProviderSet exposes controller/handler constructors for DI.
var ProviderSet = wire.NewSet(
	NewPlaybackHandler,
	NewProgressHandler,
	wire.Bind(new(PlaybackService), new(*services.PlayTrackingService)),
	wire.Bind(new(ProgressQueries), new(*services.ProgressService)),
	wire.Bind(new(StatsQueries), new(*services.LearningStatsService)),
)
