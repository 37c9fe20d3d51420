package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/catena/pkg/domain"
)

// LoggingHooks returns lifecycle hooks writing one structured record per event.
// Step starts are logged at Debug, everything else at Info, failures at Warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnChainStart: func(ctx context.Context, e *domain.ChainEvent) {
			logger.InfoContext(ctx, "chain_start", "chain", e.Chain, "steps", e.Steps)
		},
		OnChainEnd: func(ctx context.Context, e *domain.ChainEvent) {
			level := slog.LevelInfo
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "chain_end",
				"chain", e.Chain,
				"data_modified", e.DataModified,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
		OnStepStart: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_start", "chain", e.Chain, "index", e.Index, "action", e.Action)
		},
		OnStepEnd: func(ctx context.Context, e *domain.StepEvent) {
			level := slog.LevelInfo
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "step_end",
				"chain", e.Chain,
				"index", e.Index,
				"action", e.Action,
				"skipped", e.Skipped,
				"is_error", e.IsError,
			)
		},
	}
}
