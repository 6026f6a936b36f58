package reservations

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind separates revenue-bearing stays from owner blocks.
type Kind int

const (
	KindBlock Kind = iota
	KindStay
)

func (k Kind) String() string {
	if k == KindStay {
		return "stay"
	}
	return "block"
}

// DefaultSource is the channel label used when a stay carries none.
const DefaultSource = "Direct"

// RentCategory is the only charge category that counts as revenue.
const RentCategory = "rent"

type Charge struct {
	Amount   decimal.Decimal `json:"amount"`
	Category string          `json:"category"`
}

// Record is a reservation or block as returned by the upstream reservation source.
// Records are never mutated by the analytics engine.
type Record struct {
	ID         string    `json:"id"`
	Arrival    time.Time `json:"arrival"`
	Departure  time.Time `json:"departure"`
	Kind       Kind      `json:"-"`
	Charges    []Charge  `json:"charges,omitempty"`
	Source     string    `json:"source"`
	PropertyID string    `json:"propertyId"`
	ChannelID  string    `json:"channelId,omitempty"`
}

// Rent sums the charges in the rent category.
func (r Record) Rent() decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Charges {
		if c.Category == RentCategory {
			total = total.Add(c.Amount)
		}
	}
	return total
}

// SourceLabel returns the booking channel, falling back to DefaultSource.
func (r Record) SourceLabel() string {
	if s := strings.TrimSpace(r.Source); s != "" {
		return s
	}
	return DefaultSource
}

// MarshalJSON exposes the kind as a readable string for list endpoints.
func (r Record) MarshalJSON() ([]byte, error) {
	type alias Record
	return json.Marshal(struct {
		alias
		Kind string `json:"kind"`
	}{alias: alias(r), Kind: r.Kind.String()})
}

// wireRecord mirrors the upstream JSON shape. Decoding into it is the only
// place upstream field names are known.
type wireRecord struct {
	ID            wireID   `json:"id"`
	ArrivalDate   wireDate `json:"arrivalDate"`
	DepartureDate wireDate `json:"departureDate"`
	Type          string   `json:"type"`
	Charges       []Charge `json:"charges"`
	Source        string   `json:"source"`
	ListingID     wireID   `json:"listingId"`
	ChannelID     wireID   `json:"channelId"`
}

type wirePage struct {
	Status string       `json:"status"`
	Result []wireRecord `json:"result"`
}

// errQuarantined marks a decoded record that lacks the fields aggregation needs.
var errQuarantined = errors.New("record quarantined")

func (w wireRecord) toRecord() (Record, error) {
	if w.ID == "" {
		return Record{}, fmt.Errorf("%w: missing id", errQuarantined)
	}
	if w.ArrivalDate.IsZero() || w.DepartureDate.IsZero() {
		return Record{}, fmt.Errorf("%w: record %s missing dates", errQuarantined, w.ID)
	}
	rec := Record{
		ID:         string(w.ID),
		Arrival:    w.ArrivalDate.Time,
		Departure:  w.DepartureDate.Time,
		Kind:       kindFromWire(w.Type),
		Charges:    w.Charges,
		Source:     strings.TrimSpace(w.Source),
		PropertyID: string(w.ListingID),
		ChannelID:  string(w.ChannelID),
	}
	return rec, nil
}

// kindFromWire treats only "booking" as a stay. Anything else, including a
// missing type, is a block so revenue is never attributed by guesswork.
func kindFromWire(t string) Kind {
	if strings.EqualFold(strings.TrimSpace(t), "booking") {
		return KindStay
	}
	return KindBlock
}

// wireDate accepts either a bare calendar date or an RFC3339 timestamp.
type wireDate struct{ time.Time }

func (d *wireDate) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q", s)
	}
	d.Time = t
	return nil
}

// wireID accepts identifiers sent either as JSON strings or numbers.
type wireID string

func (id *wireID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*id = wireID(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid identifier %s", s)
	}
	*id = wireID(n.String())
	return nil
}
