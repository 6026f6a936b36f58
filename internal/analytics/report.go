package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type RevenuePoint struct {
	Amount float64 `json:"amount"`
	Month  string  `json:"month"`
	Year   int     `json:"year"`
}

type OccupancyPoint struct {
	Month string  `json:"month"`
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

type NightlyRatePoint struct {
	MonthName    string  `json:"monthName"`
	Year         int     `json:"year"`
	TotalNights  int     `json:"totalNights"`
	RatePerNight float64 `json:"ratePerNight"`
}

type SourceCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type BookingSources struct {
	Total   int           `json:"total"`
	Sources []SourceCount `json:"sources"`
}

// Report is the serialized analytics response.
type Report struct {
	GeneratedAt       time.Time          `json:"generatedAt"`
	WindowStart       string             `json:"windowStart"`
	WindowEnd         string             `json:"windowEnd"`
	RevenueSeries     []RevenuePoint     `json:"revenueSeries"`
	OccupancySeries   []OccupancyPoint   `json:"occupancySeries"`
	NightlyRateSeries []NightlyRatePoint `json:"nightlyRateSeries"`
	BookingSources    BookingSources     `json:"bookingSources"`
}

// money rounds only here, at the output boundary.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// BuildReport derives the per-month series from an aggregated window.
func BuildReport(w *Window, totalProperties int, now time.Time) Report {
	rep := Report{
		GeneratedAt:       now.UTC(),
		WindowStart:       w.Start().Format("2006-01-02"),
		WindowEnd:         w.End().AddDate(0, 0, -1).Format("2006-01-02"),
		RevenueSeries:     make([]RevenuePoint, 0, len(w.Buckets)),
		OccupancySeries:   make([]OccupancyPoint, 0, len(w.Buckets)),
		NightlyRateSeries: make([]NightlyRatePoint, 0, len(w.Buckets)),
	}
	for _, b := range w.Buckets {
		short := b.Start.Format("Jan")
		year := b.Start.Year()
		rep.RevenueSeries = append(rep.RevenueSeries, RevenuePoint{
			Amount: money(b.Revenue),
			Month:  short,
			Year:   year,
		})
		rep.OccupancySeries = append(rep.OccupancySeries, OccupancyPoint{
			Month: short,
			Year:  year,
			Value: money(Occupancy(b, totalProperties)),
		})
		rep.NightlyRateSeries = append(rep.NightlyRateSeries, NightlyRatePoint{
			MonthName:    b.Start.Month().String(),
			Year:         year,
			TotalNights:  b.BookedNights,
			RatePerNight: money(AverageNightlyRate(b)),
		})
	}
	rep.BookingSources = bookingSources(w.Sources)
	return rep
}

// bookingSources orders by count, then name, so equal inputs serialize to
// equal bytes.
func bookingSources(counts map[string]int) BookingSources {
	bs := BookingSources{Sources: make([]SourceCount, 0, len(counts))}
	for name, n := range counts {
		bs.Total += n
		bs.Sources = append(bs.Sources, SourceCount{Name: name, Count: n})
	}
	sort.Slice(bs.Sources, func(i, j int) bool {
		if bs.Sources[i].Count != bs.Sources[j].Count {
			return bs.Sources[i].Count > bs.Sources[j].Count
		}
		return bs.Sources[i].Name < bs.Sources[j].Name
	})
	return bs
}

// Redact drops monetary series for callers without an elevated role.
func (r *Report) Redact() {
	r.RevenueSeries = []RevenuePoint{}
	r.NightlyRateSeries = []NightlyRatePoint{}
}
