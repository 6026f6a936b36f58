package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/samirwankhede/stayinsights/internal/reservations"
)

// Aggregate folds records into the window's buckets and returns the window.
// Stays add nights and prorated rent; blocks add blocked nights only.
func Aggregate(records []reservations.Record, w *Window) *Window {
	for _, r := range records {
		switch Classify(r) {
		case reservations.KindStay:
			w.addStay(r)
		default:
			w.addBlock(r)
		}
	}
	return w
}

// addStay spreads rent evenly over the stay's nights. Stays with no nights
// are malformed and contribute nothing.
func (w *Window) addStay(r reservations.Record) {
	total := WholeNights(r.Arrival, r.Departure)
	if total <= 0 {
		return
	}
	rent := r.Rent()
	totalNights := decimal.NewFromInt(int64(total))

	touched := false
	for _, b := range w.Buckets {
		n := OverlapNights(r.Arrival, r.Departure, b.Start, b.End)
		if n <= 0 {
			continue
		}
		touched = true
		b.BookedNights += n
		b.Revenue = b.Revenue.Add(rent.Mul(decimal.NewFromInt(int64(n))).Div(totalNights))
	}
	// once per stay however many buckets it spans; stays outside the window
	// are not counted
	if touched {
		w.Sources[r.SourceLabel()]++
	}
}

func (w *Window) addBlock(r reservations.Record) {
	for _, b := range w.Buckets {
		if n := OverlapNights(r.Arrival, r.Departure, b.Start, b.End); n > 0 {
			b.BlockedNights += n
		}
	}
}
