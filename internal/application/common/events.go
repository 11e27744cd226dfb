package common

import (
	"context"

	"github.com/boutique/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PublishEvents publishes and clears the aggregate's pending events. A
// publish failure is logged and swallowed: the state change already
// committed.
func PublishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, agg shared.AggregateRoot) {
	events := agg.PullDomainEvents()
	if len(events) == 0 || publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err))
	}
}
