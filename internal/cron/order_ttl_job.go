package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-market/nexus-backend/pkg/logger"
)

type pendingOrderExpirer interface {
	ExpirePending(ctx context.Context, olderThan time.Time) (int64, error)
}

// OrderTTLJobParams configure the pending order expiration job.
type OrderTTLJobParams struct {
	Logger *logger.Logger
	Orders pendingOrderExpirer
	TTL    time.Duration
}

// NewOrderTTLJob builds the job that expires orders stuck in pending longer
// than the configured TTL, freeing their references from history views.
func NewOrderTTLJob(params OrderTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.TTL <= 0 {
		return nil, fmt.Errorf("pending order ttl must be positive")
	}
	return &orderTTLJob{
		logg:   params.Logger,
		orders: params.Orders,
		ttl:    params.TTL,
		now:    time.Now,
	}, nil
}

type orderTTLJob struct {
	logg   *logger.Logger
	orders pendingOrderExpirer
	ttl    time.Duration
	now    func() time.Time
}

func (j *orderTTLJob) Name() string { return "order-ttl" }

func (j *orderTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	count, err := j.orders.ExpirePending(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("expire pending orders: %w", err)
	}
	if count > 0 {
		j.logg.Info(j.logg.WithField(ctx, "count", count), "stale pending orders expired")
	}
	return nil
}
