package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	"github.com/nexus-market/nexus-backend/pkg/logger"
)

const fulfillmentBatchSize = 200

type advanceableOrders interface {
	ListAdvanceable(ctx context.Context, before time.Time, limit int) ([]models.Order, error)
	UpdateStage(ctx context.Context, orderID uuid.UUID, stage enums.FulfillmentStage) error
}

type readyNotifier interface {
	NotifyOrderReady(ctx context.Context, userID uuid.UUID, reference string) error
}

// FulfillmentJobParams configure the stage advance job.
type FulfillmentJobParams struct {
	Logger        *logger.Logger
	Orders        advanceableOrders
	Notifier      readyNotifier
	StageInterval time.Duration
}

// NewFulfillmentJob builds the job that walks paid orders through the
// fulfillment pipeline, one stage per interval, and notifies the buyer when
// their keys become ready.
func NewFulfillmentJob(params FulfillmentJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.StageInterval <= 0 {
		return nil, fmt.Errorf("stage interval must be positive")
	}
	return &fulfillmentJob{
		logg:     params.Logger,
		orders:   params.Orders,
		notifier: params.Notifier,
		interval: params.StageInterval,
		now:      time.Now,
	}, nil
}

type fulfillmentJob struct {
	logg     *logger.Logger
	orders   advanceableOrders
	notifier readyNotifier
	interval time.Duration
	now      func() time.Time
}

func (j *fulfillmentJob) Name() string { return "fulfillment-advance" }

func (j *fulfillmentJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.interval)
	rows, err := j.orders.ListAdvanceable(ctx, cutoff, fulfillmentBatchSize)
	if err != nil {
		return fmt.Errorf("list advanceable orders: %w", err)
	}

	advanced := 0
	for _, order := range rows {
		next := order.FulfillmentStage.Next()
		if next == order.FulfillmentStage {
			continue
		}
		if err := j.orders.UpdateStage(ctx, order.ID, next); err != nil {
			return fmt.Errorf("advance order %s: %w", order.Reference, err)
		}
		advanced++
		if next == enums.FulfillmentStageReady && j.notifier != nil {
			if err := j.notifier.NotifyOrderReady(ctx, order.BuyerID, order.Reference); err != nil {
				// The stage change already committed; the buyer just misses a ping.
				j.logg.Error(j.logg.WithField(ctx, "order", order.Reference), "order ready notification failed", err)
			}
		}
	}
	if advanced > 0 {
		j.logg.Info(j.logg.WithField(ctx, "count", advanced), "fulfillment stages advanced")
	}
	return nil
}
