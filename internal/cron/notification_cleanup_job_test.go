package cron

import (
	"context"
	"testing"
	"time"

	"github.com/nexus-market/nexus-backend/pkg/logger"
)

type fakePurger struct {
	cutoff time.Time
	purged int64
}

func (f *fakePurger) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.purged, nil
}

func TestNotificationCleanupUsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	purger := &fakePurger{purged: 12}
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Notifications: purger,
		Retention:     7 * 24 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job := jobIface.(*notificationCleanupJob)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if want := now.Add(-7 * 24 * time.Hour); !purger.cutoff.Equal(want) {
		t.Fatalf("cutoff = %s, want %s", purger.cutoff, want)
	}
}

func TestNotificationCleanupDefaultsRetention(t *testing.T) {
	jobIface, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Notifications: &fakePurger{},
	})
	if err != nil {
		t.Fatalf("NewNotificationCleanupJob: %v", err)
	}
	job := jobIface.(*notificationCleanupJob)
	if job.retention != defaultNotificationRetention {
		t.Fatalf("expected default retention, got %s", job.retention)
	}
}
