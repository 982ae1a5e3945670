package domain

// Status represents the lifecycle state of a booking.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	// StatusPending is reserved for an approval workflow; no use case
	// creates pending bookings yet.
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// Action is a lifecycle operation applied to a booking.
type Action string

const (
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
)

// Transition defines a valid state change: an action moves a booking from Src to Dst.
type Transition struct {
	Action Action
	Src    Status
	Dst    Status
}

// Transitions defines all valid state changes in the booking lifecycle.
// Cancelled has no outgoing transitions.
var Transitions = []Transition{
	{Action: ActionCancel, Src: StatusConfirmed, Dst: StatusCancelled},
	{Action: ActionCancel, Src: StatusPending, Dst: StatusCancelled},
	{Action: ActionReschedule, Src: StatusConfirmed, Dst: StatusConfirmed},
	{Action: ActionReschedule, Src: StatusPending, Dst: StatusPending},
}

// NextStatus returns the destination of applying action from current, or a
// TransitionError when the lifecycle has no such transition.
func NextStatus(current Status, action Action) (Status, error) {
	for _, t := range Transitions {
		if t.Action == action && t.Src == current {
			return t.Dst, nil
		}
	}
	return "", &TransitionError{Action: action, Current: current}
}
