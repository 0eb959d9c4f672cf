package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/nexus-market/nexus-backend/pkg/logger"
)

const defaultNotificationRetention = 30 * 24 * time.Hour

type notificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationCleanupJobParams configure the notification purge job.
type NotificationCleanupJobParams struct {
	Logger        *logger.Logger
	Notifications notificationPurger
	Retention     time.Duration
}

// NewNotificationCleanupJob builds the job that purges read notifications
// older than the retention window.
func NewNotificationCleanupJob(params NotificationCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	retention := params.Retention
	if retention <= 0 {
		retention = defaultNotificationRetention
	}
	return &notificationCleanupJob{
		logg:          params.Logger,
		notifications: params.Notifications,
		retention:     retention,
		now:           time.Now,
	}, nil
}

type notificationCleanupJob struct {
	logg          *logger.Logger
	notifications notificationPurger
	retention     time.Duration
	now           func() time.Time
}

func (j *notificationCleanupJob) Name() string { return "notification-cleanup" }

func (j *notificationCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	count, err := j.notifications.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge notifications: %w", err)
	}
	if count > 0 {
		j.logg.Info(j.logg.WithField(ctx, "count", count), "read notifications purged")
	}
	return nil
}
