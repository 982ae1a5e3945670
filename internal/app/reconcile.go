package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// ReconcileReport counts the outcome of a reconciliation sweep. Every linked
// booking lands in exactly one of the outcome buckets.
type ReconcileReport struct {
	Checked     int `json:"checked"`
	Cancelled   int `json:"cancelled"`
	Rescheduled int `json:"rescheduled"`
	Unchanged   int `json:"unchanged"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

// Corrected returns the number of bookings changed to match the external
// calendar.
func (r ReconcileReport) Corrected() int {
	return r.Cancelled + r.Rescheduled
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeCancelled
	outcomeRescheduled
	outcomeSkipped
)

// Reconcile brings externally linked bookings back in line with the acting
// user's calendar. An upstream deletion cancels the booking; different
// upstream times reschedule it. Corrections are persisted and, when bus is
// non-nil, their events are published. A failing booking is counted and
// logged without stopping the sweep.
func (c *CalendarSync) Reconcile(ctx context.Context, bookings []*domain.Booking, bus domain.EventPublisher) ReconcileReport {
	var report ReconcileReport

	for _, b := range bookings {
		if !b.IsLinked() {
			continue
		}
		report.Checked++

		result, err := c.reconcileOne(ctx, b, bus)
		if err != nil {
			report.Failed++
			c.logger.WarnContext(ctx, "reconcile booking failed",
				"booking_id", b.ID(),
				"external_event_id", b.ExternalEventID(),
				"error", err,
			)
			continue
		}

		switch result {
		case outcomeCancelled:
			report.Cancelled++
		case outcomeRescheduled:
			report.Rescheduled++
		case outcomeSkipped:
			report.Skipped++
		default:
			report.Unchanged++
		}
	}

	if c.observer != nil {
		c.observer.ObserveReconcile(ctx, report)
	}
	c.logger.InfoContext(ctx, "reconcile finished",
		"checked", report.Checked,
		"corrected", report.Corrected(),
		"skipped", report.Skipped,
		"failed", report.Failed,
	)
	return report
}

// ReconcileAll loads every booking of the acting tenant and reconciles it.
func (c *CalendarSync) ReconcileAll(ctx context.Context, bus domain.EventPublisher) (ReconcileReport, error) {
	bookings, err := c.bookings.FindAll(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("listing bookings: %w", err)
	}
	return c.Reconcile(ctx, bookings, bus), nil
}

func (c *CalendarSync) reconcileOne(ctx context.Context, b *domain.Booking, bus domain.EventPublisher) (outcome, error) {
	// Cancelled is terminal; nothing upstream can be applied to it.
	if b.IsCancelled() {
		return outcomeUnchanged, nil
	}

	creds, ok, err := c.credentials(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return outcomeSkipped, nil
	}

	external, err := c.client.GetEvent(ctx, b.ExternalEventID(), creds)
	if err != nil {
		return 0, fmt.Errorf("fetching external event: %w", err)
	}

	if external == nil {
		if err := b.Cancel(); err != nil {
			return 0, err
		}
		return outcomeCancelled, c.persist(ctx, b, bus)
	}

	upstream, err := domain.NewTimeRange(external.Start, external.End)
	if err != nil {
		return 0, fmt.Errorf("external event %s: %w", external.ID, err)
	}
	if b.TimeSlot().SameSeconds(upstream) {
		return outcomeUnchanged, nil
	}

	if err := b.Reschedule(upstream); err != nil {
		return 0, err
	}
	return outcomeRescheduled, c.persist(ctx, b, bus)
}

// persist saves a corrected booking and publishes its events. A publish
// failure after a successful save is logged, not returned: the correction
// itself has been applied.
func (c *CalendarSync) persist(ctx context.Context, b *domain.Booking, bus domain.EventPublisher) error {
	if err := c.bookings.Save(ctx, b); err != nil {
		b.ReleaseEvents()
		return fmt.Errorf("saving booking: %w", err)
	}

	events := b.ReleaseEvents()
	if bus == nil {
		return nil
	}
	if err := bus.PublishAll(ctx, events); err != nil {
		c.logger.WarnContext(ctx, "publishing reconcile events failed",
			"booking_id", b.ID(),
			"error", err,
		)
	}
	return nil
}
