package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	"github.com/nexus-market/nexus-backend/pkg/logger"
	"github.com/nexus-market/nexus-backend/pkg/metrics"
)

// Celebrator records the one-time celebration of a first key reveal as an
// in-app notification. Failures are logged and swallowed: the reveal itself
// must never be blocked by the celebration side effect.
type Celebrator struct {
	repo    Repository
	logger  *logger.Logger
	metrics *metrics.StorefrontMetrics
}

// NewCelebrator builds the notification-backed celebrator.
func NewCelebrator(repo Repository, logg *logger.Logger, m *metrics.StorefrontMetrics) *Celebrator {
	return &Celebrator{repo: repo, logger: logg, metrics: m}
}

func (c *Celebrator) Celebrate(ctx context.Context, buyerID, orderItemID uuid.UUID) {
	c.metrics.IncReveal()

	if c.repo == nil {
		return
	}
	notification := &models.Notification{
		UserID: buyerID,
		Kind:   enums.NotificationKeyRevealed,
		Body:   "Your key has been revealed. Enjoy your purchase!",
	}
	if err := c.repo.Create(ctx, notification); err != nil && c.logger != nil {
		ctx = c.logger.WithField(ctx, "order_item_id", orderItemID.String())
		c.logger.Error(ctx, "celebration notification failed", err)
	}
}
