package prices

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// marketZone is the zone mandi arrival dates are reported in.
var marketZone = time.FixedZone("IST", 5*60*60+30*60)

// Record is one day's prices for a commodity at a market, in rupees per quintal.
type Record struct {
	Date       time.Time
	State      string
	Market     string
	Commodity  string
	Variety    string
	MinPrice   int
	MaxPrice   int
	ModalPrice int
}

// Query selects the prices to fetch. Market is optional.
type Query struct {
	Commodity string
	State     string
	Market    string
}

// rawRecord mirrors a data.gov.in record. Prices arrive either as strings or
// as numbers depending on the resource.
type rawRecord struct {
	ArrivalDate string     `json:"arrival_date"`
	State       string     `json:"state"`
	Market      string     `json:"market"`
	Commodity   string     `json:"commodity"`
	Variety     string     `json:"variety"`
	MinPrice    flexNumber `json:"min_price"`
	MaxPrice    flexNumber `json:"max_price"`
	ModalPrice  flexNumber `json:"modal_price"`
}

type flexNumber struct {
	raw string
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		n.raw = s
		return nil
	}
	var f json.Number
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("price must be a string or number: %w", err)
	}
	n.raw = f.String()
	return nil
}

func (n flexNumber) int() (int, error) {
	s := strings.TrimSpace(strings.ReplaceAll(n.raw, ",", ""))
	if s == "" {
		return 0, errors.New("missing price")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", n.raw)
	}
	if f < 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("price %q out of range", n.raw)
	}
	return int(math.Round(f)), nil
}

// parseDate accepts the two layouts seen in data.gov.in resources.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{dateLayout, "02/01/2006"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}

// parseRecord validates a raw record. fallbackState fills in resources that
// omit the state column.
func parseRecord(data json.RawMessage, fallbackState string) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, err
	}

	date, err := parseDate(raw.ArrivalDate)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		Date:      date,
		State:     strings.TrimSpace(raw.State),
		Market:    strings.TrimSpace(raw.Market),
		Commodity: strings.TrimSpace(raw.Commodity),
		Variety:   strings.TrimSpace(raw.Variety),
	}
	if rec.State == "" {
		rec.State = fallbackState
	}
	if rec.Market == "" || rec.Commodity == "" {
		return Record{}, errors.New("record without market or commodity")
	}
	if rec.MinPrice, err = raw.MinPrice.int(); err != nil {
		return Record{}, err
	}
	if rec.MaxPrice, err = raw.MaxPrice.int(); err != nil {
		return Record{}, err
	}
	if rec.ModalPrice, err = raw.ModalPrice.int(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// marketDay returns the calendar day daysBack days before now in market time,
// as midnight UTC so it compares equal to parsed arrival dates.
func marketDay(now time.Time, daysBack int) time.Time {
	local := now.In(marketZone).AddDate(0, 0, -daysBack)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
