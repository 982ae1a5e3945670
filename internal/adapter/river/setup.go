package river

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Deps are the collaborators the workers call into.
type Deps struct {
	// Mailer delivers queued mail. It must not be a MailQueue, or jobs
	// would re-enqueue themselves.
	Mailer domain.Mailer
	// Reconciler and Publisher serve reconcile jobs. Reconcile jobs fail
	// when Reconciler is nil.
	Reconciler Reconciler
	Publisher  domain.EventPublisher
	Logger     *slog.Logger
}

// Setup creates a River client with the mail and reconcile workers
// registered and runs River's internal migrations. The caller must call
// client.Start() to begin processing jobs and client.Stop() for graceful
// shutdown.
func Setup(ctx context.Context, db *sql.DB, deps Deps) (*Client, error) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	driver := riversqlite.New(db)

	// Run River's own migrations (creates river_job, river_leader, etc.).
	// These are separate from the app's goose migrations.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &MailWorker{mailer: deps.Mailer, logger: deps.Logger})
	river.AddWorker(workers, &ReconcileWorker{
		reconciler: deps.Reconciler,
		publisher:  deps.Publisher,
		logger:     deps.Logger,
	})

	client, err := river.NewClient(driver, &river.Config{
		Logger: deps.Logger,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 2},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
