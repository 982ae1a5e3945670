package domain

import "time"

// TimeRange is a half-open interval [Start, End) over absolute instants.
type TimeRange struct {
	start time.Time
	end   time.Time
}

// NewTimeRange returns a range from start to end. The start must be strictly
// before the end.
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if !start.Before(end) {
		return TimeRange{}, &InvalidRangeError{Start: start, End: end}
	}
	return TimeRange{start: start, end: end}, nil
}

// MustTimeRange is like NewTimeRange but panics on an invalid range.
// Intended for tests and constants.
func MustTimeRange(start, end time.Time) TimeRange {
	r, err := NewTimeRange(start, end)
	if err != nil {
		panic(err)
	}
	return r
}

func (r TimeRange) Start() time.Time { return r.start }
func (r TimeRange) End() time.Time { return r.end }

// Overlaps reports whether the two ranges share any instant. Ranges that only
// touch at an endpoint do not overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.start.Before(other.end) && r.end.After(other.start)
}

// DurationMinutes returns the whole minutes between start and end.
func (r TimeRange) DurationMinutes() int64 {
	return (r.end.Unix() - r.start.Unix()) / 60
}

// Equal reports whether both ranges cover the same instants.
func (r TimeRange) Equal(other TimeRange) bool {
	return r.start.Equal(other.start) && r.end.Equal(other.end)
}

// SameSeconds reports whether both ranges have the same start and end at
// whole-second granularity.
func (r TimeRange) SameSeconds(other TimeRange) bool {
	return r.start.Unix() == other.start.Unix() && r.end.Unix() == other.end.Unix()
}
