package domain

import "time"

// CancellationPolicy decides whether a booking may still be cancelled. A
// booking can be cancelled only while its start is at least MinimumLeadHours
// in the future.
type CancellationPolicy struct {
	minimumLeadHours int
}

// NewCancellationPolicy returns a policy requiring the given lead time.
func NewCancellationPolicy(minimumLeadHours int) (CancellationPolicy, error) {
	if minimumLeadHours < 0 {
		return CancellationPolicy{}, ErrInvalidPolicy
	}
	return CancellationPolicy{minimumLeadHours: minimumLeadHours}, nil
}

func (p CancellationPolicy) MinimumLeadHours() int { return p.minimumLeadHours }

// AllowsCancellation reports whether a booking starting at bookingStart may be
// cancelled at now. A booking that has started, or starts exactly now, can
// never be cancelled.
func (p CancellationPolicy) AllowsCancellation(bookingStart, now time.Time) bool {
	if !bookingStart.After(now) {
		return false
	}
	cutoff := now.Add(time.Duration(p.minimumLeadHours) * time.Hour)
	return !bookingStart.Before(cutoff)
}
