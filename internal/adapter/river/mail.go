package river

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// Compile-time check: MailQueue implements domain.Mailer.
var _ domain.Mailer = (*MailQueue)(nil)

const mailMaxAttempts = 5

// MailJobArgs carries one outbound message. River serializes it as JSON
// into its job table.
type MailJobArgs struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (MailJobArgs) Kind() string { return "mail.send" }

// InsertOpts retries transient SMTP failures a bounded number of times.
func (MailJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{MaxAttempts: mailMaxAttempts}
}

// MailQueue implements domain.Mailer by enqueuing a River job, so
// notification handlers return without waiting on the mail server.
type MailQueue struct {
	client *Client
}

// NewMailQueue creates a mailer backed by the given River client.
func NewMailQueue(client *Client) *MailQueue {
	return &MailQueue{client: client}
}

// Send enqueues the message for delivery.
func (q *MailQueue) Send(ctx context.Context, to, subject, body string) error {
	_, err := q.client.Insert(ctx, MailJobArgs{To: to, Subject: subject, Body: body}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing mail job: %w", err)
	}
	return nil
}

// MailWorker delivers queued mail through the configured mailer.
type MailWorker struct {
	river.WorkerDefaults[MailJobArgs]

	mailer domain.Mailer
	logger *slog.Logger
}

// Work sends one message. A returned error makes River retry the job.
func (w *MailWorker) Work(ctx context.Context, job *river.Job[MailJobArgs]) error {
	if w.mailer == nil {
		return river.JobCancel(errors.New("no mailer configured"))
	}

	if err := w.mailer.Send(ctx, job.Args.To, job.Args.Subject, job.Args.Body); err != nil {
		w.logger.WarnContext(ctx, "mail delivery failed",
			"to", job.Args.To,
			"job_id", job.ID,
			"attempt", job.Attempt,
			"error", err,
		)
		return err
	}

	w.logger.InfoContext(ctx, "mail delivered",
		"to", job.Args.To,
		"subject", job.Args.Subject,
		"job_id", job.ID,
	)
	return nil
}
