package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func month(y int, m time.Month) (time.Time, time.Time) {
	start := day(y, m, 1)
	return start, start.AddDate(0, 1, 0)
}

func TestOverlapNights(t *testing.T) {
	janStart, janEnd := month(2025, time.January)
	febStart, febEnd := month(2025, time.February)

	tests := []struct {
		name       string
		start, end time.Time
		mStart     time.Time
		mEnd       time.Time
		want       int
	}{
		{"inside month", day(2025, 1, 10), day(2025, 1, 14), janStart, janEnd, 4},
		{"spills into next month", day(2025, 1, 30), day(2025, 2, 2), janStart, janEnd, 2},
		{"arrives from previous month", day(2025, 1, 30), day(2025, 2, 2), febStart, febEnd, 1},
		{"checkout on first of month", day(2025, 1, 28), day(2025, 2, 1), febStart, febEnd, 0},
		{"arrival on first of next month", day(2025, 2, 1), day(2025, 2, 3), janStart, janEnd, 0},
		{"entirely before", day(2024, 12, 1), day(2024, 12, 5), janStart, janEnd, 0},
		{"entirely after", day(2025, 3, 1), day(2025, 3, 5), janStart, janEnd, 0},
		{"covers whole month", day(2024, 12, 20), day(2025, 3, 2), febStart, febEnd, 28},
		{"zero length", day(2025, 1, 10), day(2025, 1, 10), janStart, janEnd, 0},
		{"inverted", day(2025, 1, 12), day(2025, 1, 10), janStart, janEnd, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverlapNights(tt.start, tt.end, tt.mStart, tt.mEnd))
		})
	}
}

func TestOverlapNightsLeapYear(t *testing.T) {
	febStart, febEnd := month(2024, time.February)
	assert.Equal(t, 29, OverlapNights(day(2024, 1, 15), day(2024, 3, 15), febStart, febEnd))

	b := &Bucket{Start: febStart, End: febEnd}
	assert.Equal(t, 29, b.DaysInMonth())
}

func TestOverlapNightsIgnoresClockTime(t *testing.T) {
	janStart, janEnd := month(2025, time.January)
	arrival := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	departure := time.Date(2025, 1, 12, 11, 0, 0, 0, time.UTC)
	assert.Equal(t, 2, OverlapNights(arrival, departure, janStart, janEnd))
}

func TestOverlapNightsBounds(t *testing.T) {
	w := NewWindow(day(2025, 3, 1), 14)
	starts := []time.Time{day(2023, 12, 30), day(2024, 1, 31), day(2024, 2, 28), day(2024, 6, 15), day(2024, 12, 31), day(2025, 2, 27)}
	lengths := []int{0, 1, 2, 7, 29, 31, 45, 90, 400}

	for _, s := range starts {
		for _, n := range lengths {
			e := s.AddDate(0, 0, n)
			sum := 0
			for _, b := range w.Buckets {
				got := OverlapNights(s, e, b.Start, b.End)
				assert.GreaterOrEqual(t, got, 0)
				assert.LessOrEqual(t, got, n)
				assert.LessOrEqual(t, got, b.DaysInMonth())
				sum += got
			}
			assert.LessOrEqual(t, sum, n, "start %s nights %d", s.Format("2006-01-02"), n)
		}
	}
}

func TestNewWindow(t *testing.T) {
	w := NewWindow(time.Date(2025, 2, 17, 23, 0, 0, 0, time.UTC), 3)
	if assert.Len(t, w.Buckets, 3) {
		assert.Equal(t, day(2024, 12, 1), w.Start())
		assert.Equal(t, day(2025, 3, 1), w.End())
		for i := 1; i < len(w.Buckets); i++ {
			assert.Equal(t, w.Buckets[i-1].End, w.Buckets[i].Start)
		}
	}

	assert.Len(t, NewWindow(day(2025, 1, 1), 0).Buckets, DefaultWindowMonths)
}
