package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/bookflow/internal/domain"
)

// Compile-time check: Validator implements domain.TransitionValidator.
var _ domain.TransitionValidator = (*Validator)(nil)

// events converts domain.Transitions into looplab/fsm EventDesc format,
// grouping transitions that share an action and destination into a single
// EventDesc with several source states (cancel from "confirmed" and
// "pending" both land on "cancelled").
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		action string
		dst    string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range domain.Transitions {
		k := key{action: string(t.Action), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.action,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator implements domain.TransitionValidator using looplab/fsm.
// looplab/fsm tracks its current state internally, so every Apply call
// builds a short-lived machine seeded with the booking's status.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply checks whether action is valid from current and returns the
// destination status, or a domain.TransitionError when it is not.
func (v *Validator) Apply(ctx context.Context, current domain.Status, action domain.Action) (domain.Status, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(action)); err != nil {
		// Reschedule keeps the status; looplab/fsm reports a transition
		// onto the same state as NoTransitionError.
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return current, nil
		}

		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) {
			return "", &domain.TransitionError{
				Action:  action,
				Current: current,
			}
		}
		return "", err
	}

	return domain.Status(machine.Current()), nil
}
