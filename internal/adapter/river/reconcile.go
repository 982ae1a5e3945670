package river

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/bookflow/internal/app"
	"github.com/neomorfeo/bookflow/internal/domain"
)

// Reconciler sweeps the bookings of the tenant carried in ctx.
type Reconciler interface {
	ReconcileAll(ctx context.Context, bus domain.EventPublisher) (app.ReconcileReport, error)
}

// ReconcileJobArgs asks for a reconciliation sweep on behalf of a user,
// whose linked calendar is the one compared against.
type ReconcileJobArgs struct {
	TenantID string `json:"tenant_id"`
	UserID   string `json:"user_id"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (ReconcileJobArgs) Kind() string { return "calendar.reconcile" }

func (ReconcileJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: 3}
}

// ReconcileQueue enqueues reconciliation sweeps.
type ReconcileQueue struct {
	client *Client
}

// NewReconcileQueue creates a queue backed by the given River client.
func NewReconcileQueue(client *Client) *ReconcileQueue {
	return &ReconcileQueue{client: client}
}

// Enqueue schedules a sweep for the tenant and user carried in ctx and
// returns the job id.
func (q *ReconcileQueue) Enqueue(ctx context.Context) (int64, error) {
	tenantID, err := domain.TenantFromContext(ctx)
	if err != nil {
		return 0, err
	}
	userID, err := domain.UserFromContext(ctx)
	if err != nil {
		return 0, err
	}

	res, err := q.client.Insert(ctx, ReconcileJobArgs{
		TenantID: string(tenantID),
		UserID:   string(userID),
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("enqueuing reconcile job: %w", err)
	}
	return res.Job.ID, nil
}

// ReconcileWorker runs a queued sweep with the job's tenant and user
// restored into the context.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileJobArgs]

	reconciler Reconciler
	publisher  domain.EventPublisher
	logger     *slog.Logger
}

// Work runs one sweep. Per-booking failures are part of the report; only a
// failure to load the bookings fails the job.
func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileJobArgs]) error {
	if w.reconciler == nil {
		return river.JobCancel(errors.New("calendar sync is not configured"))
	}

	ctx = domain.WithTenant(ctx, domain.TenantID(job.Args.TenantID))
	ctx = domain.WithUser(ctx, domain.UserID(job.Args.UserID))

	report, err := w.reconciler.ReconcileAll(ctx, w.publisher)
	if err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "reconcile job finished",
		"tenant_id", job.Args.TenantID,
		"user_id", job.Args.UserID,
		"job_id", job.ID,
		"checked", report.Checked,
		"corrected", report.Corrected(),
		"failed", report.Failed,
	)
	return nil
}
