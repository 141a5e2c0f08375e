// Package janitor periodically removes groups that no longer have members.
package janitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/sharelyst/internal/metrics"
	"github.com/mmynk/sharelyst/internal/models"
	"github.com/mmynk/sharelyst/internal/settlement"
)

// DefaultTimeout bounds a single sweep started by the scheduler.
const DefaultTimeout = time.Minute

// OrphanLister finds groups without members.
type OrphanLister interface {
	ListOrphanGroups(ctx context.Context) ([]string, error)
}

// Settler applies a settle action to a group.
type Settler interface {
	SettleGroup(ctx context.Context, groupID, action string, expectedVersion int64) (*settlement.ActionResult, error)
}

// Janitor deletes memberless groups through the regular delete action.
type Janitor struct {
	groups  OrphanLister
	settler Settler
	metrics *metrics.Metrics
	timeout time.Duration
}

// New creates a Janitor. m may be nil.
func New(groups OrphanLister, settler Settler, m *metrics.Metrics) *Janitor {
	return &Janitor{
		groups:  groups,
		settler: settler,
		metrics: m,
		timeout: DefaultTimeout,
	}
}

// Sweep deletes every memberless group and returns how many went. A failure
// on one group is logged and the sweep moves on; all failures are returned
// joined.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	ids, err := j.groups.ListOrphanGroups(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list orphan groups: %w", err)
	}

	var deleted int
	var errs []error
	for _, id := range ids {
		_, err := j.settler.SettleGroup(ctx, id, string(models.ActionDelete), 0)
		switch {
		case err == nil:
			deleted++
		case errors.Is(err, settlement.ErrGroupNotFound):
			// Removed by someone else since the listing.
		default:
			slog.Error("Janitor failed to delete group", "group_id", id, "error", err)
			errs = append(errs, fmt.Errorf("group %s: %w", id, err))
		}
	}

	j.metrics.ObserveSweep(deleted)
	if deleted > 0 || len(errs) > 0 {
		slog.Info("Janitor sweep finished", "deleted", deleted, "failed", len(errs))
	}
	return deleted, errors.Join(errs...)
}

// Start schedules Sweep on a cron spec such as "@every 1h" or "0 3 * * *".
// Stop the returned scheduler to end it.
func (j *Janitor) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()
		if _, err := j.Sweep(ctx); err != nil {
			slog.Error("Janitor sweep failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}

	c.Start()
	slog.Info("Janitor started", "schedule", schedule)
	return c, nil
}
