package analytics

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultWindowMonths = 12

// Bucket accumulates one calendar month. End is the first instant of the
// following month, so [Start, End) covers every night of the month.
type Bucket struct {
	Start         time.Time
	End           time.Time
	Revenue       decimal.Decimal
	BookedNights  int
	BlockedNights int
}

// DaysInMonth is the calendar length of the bucket's month.
func (b *Bucket) DaysInMonth() int {
	return WholeNights(b.Start, b.End)
}

// Window is a gap-free run of month buckets ending at an anchor month, plus
// the window-wide booking source tally.
type Window struct {
	Buckets []*Bucket
	Sources map[string]int
}

// NewWindow builds `months` consecutive buckets whose last bucket is the
// calendar month containing anchor (evaluated in UTC).
func NewWindow(anchor time.Time, months int) *Window {
	if months <= 0 {
		months = DefaultWindowMonths
	}
	y, m, _ := anchor.UTC().Date()
	first := time.Date(y, m-time.Month(months-1), 1, 0, 0, 0, 0, time.UTC)

	w := &Window{
		Buckets: make([]*Bucket, 0, months),
		Sources: map[string]int{},
	}
	start := first
	for i := 0; i < months; i++ {
		end := start.AddDate(0, 1, 0)
		w.Buckets = append(w.Buckets, &Bucket{Start: start, End: end, Revenue: decimal.Zero})
		start = end
	}
	return w
}

// Start is the first instant covered by the window.
func (w *Window) Start() time.Time { return w.Buckets[0].Start }

// End is the first instant after the window.
func (w *Window) End() time.Time { return w.Buckets[len(w.Buckets)-1].End }
