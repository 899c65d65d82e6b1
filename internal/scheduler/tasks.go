package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mycase/internal/constants"
	"mycase/internal/formatters"
)

const (
	TASK_PENDING_DIGEST  = "pending_digest"
	TASK_DB_MAINTENANCE  = "db_maintenance"
	maintenanceTimeout   = 5 * time.Minute
	pendingDigestTimeout = time.Minute
)

// TaskFunc - задача планировщика.
type TaskFunc func(ctx context.Context) error

// TaskStore - операции хранилища, нужные задачам. Реализуется db.Store.
type TaskStore interface {
	CountPendingSince(ctx context.Context, since time.Time) (int, error)
	Analyze(ctx context.Context) error
}

// TextSender - отправка текста в чат сотрудников. Реализуется notifier.StaffNotifier.
type TextSender interface {
	SendText(ctx context.Context, text string) error
}

// TaskDeps - зависимости задач.
type TaskDeps struct {
	Store    TaskStore
	Notifier TextSender
	Log      *zap.Logger
	Now      func() time.Time
}

// Registry возвращает все известные задачи по именам из конфигурации.
func Registry(deps TaskDeps) map[string]TaskFunc {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	return map[string]TaskFunc{
		TASK_PENDING_DIGEST: newPendingDigestTask(deps),
		TASK_DB_MAINTENANCE: newMaintenanceTask(deps),
	}
}

// newPendingDigestTask считает необработанные заказы за DIGEST_WINDOW и шлет сводку сотрудникам.
func newPendingDigestTask(deps TaskDeps) TaskFunc {
	log := deps.Log.With(zap.String("task", TASK_PENDING_DIGEST))
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, pendingDigestTimeout)
		defer cancel()

		count, err := deps.Store.CountPendingSince(ctx, deps.Now().Add(-constants.DIGEST_WINDOW))
		if err != nil {
			return fmt.Errorf("count pending orders: %w", err)
		}
		hours := int(constants.DIGEST_WINDOW / time.Hour)
		if err := deps.Notifier.SendText(ctx, formatters.PendingDigest(count, hours)); err != nil {
			return fmt.Errorf("send pending digest: %w", err)
		}
		log.Info("pending digest sent", zap.Int("pending", count))
		return nil
	}
}

func newMaintenanceTask(deps TaskDeps) TaskFunc {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, maintenanceTimeout)
		defer cancel()
		if err := deps.Store.Analyze(ctx); err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		return nil
	}
}
