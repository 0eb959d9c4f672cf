package cron

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nexus-market/nexus-backend/pkg/db/models"
	"github.com/nexus-market/nexus-backend/pkg/enums"
	"github.com/nexus-market/nexus-backend/pkg/logger"
)

type fakeAdvanceableOrders struct {
	rows    []models.Order
	cutoffs []time.Time
	updates map[uuid.UUID]enums.FulfillmentStage
}

func (f *fakeAdvanceableOrders) ListAdvanceable(ctx context.Context, before time.Time, limit int) ([]models.Order, error) {
	f.cutoffs = append(f.cutoffs, before)
	return f.rows, nil
}

func (f *fakeAdvanceableOrders) UpdateStage(ctx context.Context, orderID uuid.UUID, stage enums.FulfillmentStage) error {
	if f.updates == nil {
		f.updates = make(map[uuid.UUID]enums.FulfillmentStage)
	}
	f.updates[orderID] = stage
	return nil
}

type fakeReadyNotifier struct {
	notified []string
}

func (f *fakeReadyNotifier) NotifyOrderReady(ctx context.Context, userID uuid.UUID, reference string) error {
	f.notified = append(f.notified, reference)
	return nil
}

func newFulfillmentJobTest(t *testing.T, orders *fakeAdvanceableOrders, notifier *fakeReadyNotifier) *fulfillmentJob {
	t.Helper()
	jobIface, err := NewFulfillmentJob(FulfillmentJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Orders:        orders,
		Notifier:      notifier,
		StageInterval: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewFulfillmentJob: %v", err)
	}
	job, ok := jobIface.(*fulfillmentJob)
	if !ok {
		t.Fatalf("expected fulfillmentJob, got %T", jobIface)
	}
	return job
}

func TestFulfillmentJobAdvancesOneStage(t *testing.T) {
	order := models.Order{
		ID:               uuid.New(),
		Reference:        "NXS-AB12CD",
		BuyerID:          uuid.New(),
		Status:           enums.OrderStatusPaid,
		FulfillmentStage: enums.FulfillmentStageReceived,
	}
	orders := &fakeAdvanceableOrders{rows: []models.Order{order}}
	notifier := &fakeReadyNotifier{}
	job := newFulfillmentJobTest(t, orders, notifier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if orders.updates[order.ID] != enums.FulfillmentStagePreparing {
		t.Fatalf("expected preparing, got %s", orders.updates[order.ID])
	}
	if len(notifier.notified) != 0 {
		t.Fatalf("no ready notification expected yet, got %v", notifier.notified)
	}
}

func TestFulfillmentJobNotifiesWhenOrderBecomesReady(t *testing.T) {
	order := models.Order{
		ID:               uuid.New(),
		Reference:        "NXS-EF34AB",
		BuyerID:          uuid.New(),
		Status:           enums.OrderStatusPaid,
		FulfillmentStage: enums.FulfillmentStageSecuring,
	}
	orders := &fakeAdvanceableOrders{rows: []models.Order{order}}
	notifier := &fakeReadyNotifier{}
	job := newFulfillmentJobTest(t, orders, notifier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if orders.updates[order.ID] != enums.FulfillmentStageReady {
		t.Fatalf("expected ready, got %s", orders.updates[order.ID])
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != "NXS-EF34AB" {
		t.Fatalf("expected ready notification, got %v", notifier.notified)
	}
}

func TestFulfillmentJobUsesIntervalCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	orders := &fakeAdvanceableOrders{}
	job := newFulfillmentJobTest(t, orders, &fakeReadyNotifier{})
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(orders.cutoffs) != 1 {
		t.Fatalf("expected one query, got %d", len(orders.cutoffs))
	}
	if want := now.Add(-30 * time.Second); !orders.cutoffs[0].Equal(want) {
		t.Fatalf("cutoff = %s, want %s", orders.cutoffs[0], want)
	}
}
