package app_test

import (
	"context"
	"errors"
	"testing"

	"github.com/neomorfeo/bookflow/internal/app"
	"github.com/neomorfeo/bookflow/internal/domain"
)

func TestEventBus_ConcreteSubscription(t *testing.T) {
	bus := app.NewEventBus()
	var got []domain.BookingID

	app.Subscribe(bus, func(_ context.Context, e domain.BookingCancelled) error {
		got = append(got, e.BookingID)
		return nil
	})

	ctx := context.Background()
	_ = bus.Publish(ctx, domain.BookingCreated{BookingID: "b-1"})
	_ = bus.Publish(ctx, domain.BookingCancelled{BookingID: "b-2"})

	if len(got) != 1 || got[0] != "b-2" {
		t.Errorf("got %v, want [b-2]", got)
	}
}

func TestEventBus_CapabilitySubscription(t *testing.T) {
	bus := app.NewEventBus()
	var all, booking []string

	app.Subscribe(bus, func(_ context.Context, e domain.Event) error {
		all = append(all, e.EventName())
		return nil
	})
	app.Subscribe(bus, func(_ context.Context, e domain.BookingEvent) error {
		booking = append(booking, e.EventName())
		return nil
	})

	events := []domain.Event{
		domain.BookingCreated{BookingID: "b"},
		domain.BookingRescheduled{BookingID: "b"},
		domain.BookingCancelled{BookingID: "b"},
	}
	if err := bus.PublishAll(context.Background(), events); err != nil {
		t.Fatalf("PublishAll: %v", err)
	}

	want := []string{"booking.created", "booking.rescheduled", "booking.cancelled"}
	for name, got := range map[string][]string{"Event": all, "BookingEvent": booking} {
		if len(got) != len(want) {
			t.Errorf("%s handler got %v, want %v", name, got, want)
			continue
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s handler [%d] = %q, want %q", name, i, got[i], want[i])
			}
		}
	}
}

func TestEventBus_RegistrationOrder(t *testing.T) {
	bus := app.NewEventBus()
	var order []string

	app.Subscribe(bus, func(context.Context, domain.Event) error {
		order = append(order, "general")
		return nil
	})
	app.Subscribe(bus, func(context.Context, domain.BookingCreated) error {
		order = append(order, "specific")
		return nil
	})
	app.Subscribe(bus, func(context.Context, domain.BookingEvent) error {
		order = append(order, "capability")
		return nil
	})

	_ = bus.Publish(context.Background(), domain.BookingCreated{})

	want := []string{"general", "specific", "capability"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestEventBus_FirstErrorStopsDelivery(t *testing.T) {
	bus := app.NewEventBus()
	var reached bool

	app.Subscribe(bus, func(context.Context, domain.BookingCreated) error {
		return errBoom
	})
	app.Subscribe(bus, func(context.Context, domain.BookingCreated) error {
		reached = true
		return nil
	})

	err := bus.Publish(context.Background(), domain.BookingCreated{})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if reached {
		t.Error("handler after a failing handler should not run")
	}
}

func TestEventBus_PublishAllStopsAtFirstError(t *testing.T) {
	bus := app.NewEventBus()
	var seen int

	app.Subscribe(bus, func(_ context.Context, e domain.Event) error {
		seen++
		if _, ok := e.(domain.BookingRescheduled); ok {
			return errBoom
		}
		return nil
	})

	err := bus.PublishAll(context.Background(), []domain.Event{
		domain.BookingCreated{},
		domain.BookingRescheduled{},
		domain.BookingCancelled{},
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if seen != 2 {
		t.Errorf("seen = %d, want 2", seen)
	}
}

func TestEventBus_NestedPublish(t *testing.T) {
	bus := app.NewEventBus()
	var cancelled int

	app.Subscribe(bus, func(ctx context.Context, e domain.BookingCreated) error {
		return bus.Publish(ctx, domain.BookingCancelled{BookingID: e.BookingID})
	})
	app.Subscribe(bus, func(context.Context, domain.BookingCancelled) error {
		cancelled++
		return nil
	})

	if err := bus.Publish(context.Background(), domain.BookingCreated{BookingID: "b"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("cancelled = %d, want 1", cancelled)
	}
}

func TestEventBus_HandlerCount(t *testing.T) {
	bus := app.NewEventBus()
	if bus.HandlerCount() != 0 {
		t.Fatalf("HandlerCount = %d, want 0", bus.HandlerCount())
	}

	app.Subscribe(bus, func(context.Context, domain.BookingCreated) error { return nil })
	app.Subscribe(bus, func(context.Context, domain.Event) error { return nil })

	if bus.HandlerCount() != 2 {
		t.Errorf("HandlerCount = %d, want 2", bus.HandlerCount())
	}
}

func TestEventBus_NoSubscribers(t *testing.T) {
	if err := app.NewEventBus().Publish(context.Background(), domain.BookingCreated{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
