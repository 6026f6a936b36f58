package analytics

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirwankhede/stayinsights/internal/reservations"
)

func TestOccupancy(t *testing.T) {
	jan := &Bucket{Start: day(2025, 1, 1), End: day(2025, 2, 1)}

	jan.BookedNights = 31
	assert.Equal(t, "50.00", Occupancy(jan, 2).StringFixed(2))

	jan.BlockedNights = 31
	assert.Equal(t, "100.00", Occupancy(jan, 2).StringFixed(2))

	jan.BlockedNights = 62
	assert.True(t, Occupancy(jan, 2).IsZero())

	jan.BlockedNights = 70
	assert.True(t, Occupancy(jan, 2).IsZero())

	assert.True(t, Occupancy(&Bucket{Start: day(2025, 1, 1), End: day(2025, 2, 1), BookedNights: 3}, 0).IsZero())
}

func TestAverageNightlyRate(t *testing.T) {
	b := &Bucket{Revenue: decimal.NewFromInt(350), BookedNights: 3}
	assert.Equal(t, "116.67", AverageNightlyRate(b).StringFixed(2))
	assert.True(t, AverageNightlyRate(&Bucket{Revenue: decimal.NewFromInt(10)}).IsZero())
}

func TestBuildReportSeries(t *testing.T) {
	w := NewWindow(day(2025, 2, 1), 2)
	Aggregate([]reservations.Record{
		stay("r1", day(2025, 1, 28), day(2025, 2, 3), 700, "Airbnb"),
		stay("r2", day(2025, 2, 10), day(2025, 2, 12), 300, "Vrbo"),
		stay("r3", day(2025, 2, 14), day(2025, 2, 15), 100, "Airbnb"),
		block("b1", day(2025, 1, 1), day(2025, 1, 11)),
	}, w)

	rep := BuildReport(w, 1, day(2025, 2, 20))
	assert.Equal(t, "2025-01-01", rep.WindowStart)
	assert.Equal(t, "2025-02-28", rep.WindowEnd)

	require.Len(t, rep.OccupancySeries, 2)
	assert.Equal(t, OccupancyPoint{Month: "Jan", Year: 2025, Value: 19.05}, rep.OccupancySeries[0])
	assert.Equal(t, OccupancyPoint{Month: "Feb", Year: 2025, Value: 17.86}, rep.OccupancySeries[1])

	require.Len(t, rep.NightlyRateSeries, 2)
	assert.Equal(t, NightlyRatePoint{MonthName: "January", Year: 2025, TotalNights: 4, RatePerNight: 116.67}, rep.NightlyRateSeries[0])
	assert.Equal(t, NightlyRatePoint{MonthName: "February", Year: 2025, TotalNights: 5, RatePerNight: 126.67}, rep.NightlyRateSeries[1])

	assert.Equal(t, BookingSources{Total: 3, Sources: []SourceCount{{Name: "Airbnb", Count: 2}, {Name: "Vrbo", Count: 1}}}, rep.BookingSources)
}

func TestBookingSourcesTieBreakByName(t *testing.T) {
	bs := bookingSources(map[string]int{"Vrbo": 1, "Airbnb": 1, "Direct": 3})
	assert.Equal(t, []SourceCount{{"Direct", 3}, {"Airbnb", 1}, {"Vrbo", 1}}, bs.Sources)
	assert.Equal(t, 5, bs.Total)
}

func TestRedactKeepsNonMonetarySeries(t *testing.T) {
	w := NewWindow(day(2025, 2, 1), 2)
	Aggregate([]reservations.Record{stay("r1", day(2025, 1, 28), day(2025, 2, 3), 700, "Airbnb")}, w)
	rep := BuildReport(w, 1, day(2025, 2, 20))
	rep.Redact()

	b, err := json.Marshal(rep)
	require.NoError(t, err)

	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &out))
	assert.JSONEq(t, `[]`, string(out["revenueSeries"]))
	assert.JSONEq(t, `[]`, string(out["nightlyRateSeries"]))
	assert.Len(t, rep.OccupancySeries, 2)
	assert.Equal(t, 1, rep.BookingSources.Total)
}

func TestEmptyReportSerializesEmptyCollections(t *testing.T) {
	rep := BuildReport(NewWindow(day(2025, 2, 1), 2), 0, day(2025, 2, 20))
	b, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"sources":[]`)
	for _, p := range rep.RevenueSeries {
		assert.Zero(t, p.Amount)
	}
	for _, p := range rep.OccupancySeries {
		assert.Zero(t, p.Value)
	}
}
