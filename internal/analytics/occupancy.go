package analytics

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Occupancy is booked nights as a percentage of the nights left after blocks.
// When blocks consume all capacity the result is zero, never negative.
func Occupancy(b *Bucket, totalProperties int) decimal.Decimal {
	capacity := b.DaysInMonth() * totalProperties
	available := capacity - b.BlockedNights
	if available <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(b.BookedNights)).Mul(hundred).Div(decimal.NewFromInt(int64(available)))
}

// AverageNightlyRate is the bucket's revenue per booked night.
func AverageNightlyRate(b *Bucket) decimal.Decimal {
	if b.BookedNights <= 0 {
		return decimal.Zero
	}
	return b.Revenue.Div(decimal.NewFromInt(int64(b.BookedNights)))
}
