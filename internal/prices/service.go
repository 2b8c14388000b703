package prices

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	// MaxDaysBack bounds how far into the past a lookup may reach.
	MaxDaysBack = 30
	// defaultPace spaces consecutive upstream calls of a history fetch.
	defaultPace = time.Second
)

// ErrInvalidQuery is returned for a missing commodity or state or an out of
// range day count.
var ErrInvalidQuery = errors.New("invalid price query")

// DailyResult is the outcome of refreshing one day of prices.
type DailyResult struct {
	Date    time.Time
	Records []Record
	Fetched int
	Skipped int
}

// HistoryResult is the outcome of refreshing several days of prices.
type HistoryResult struct {
	From       time.Time
	To         time.Time
	Records    []Record
	Fetched    int
	Skipped    int
	FailedDays []string
}

// Service refreshes prices from the upstream source into the store and reads
// them back.
type Service struct {
	fetcher Fetcher
	store   Store
	logger  *slog.Logger
	now     func() time.Time
	pace    time.Duration
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used to pick arrival dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPace overrides the delay between upstream calls of a history fetch.
func WithPace(d time.Duration) Option {
	return func(s *Service) { s.pace = d }
}

func NewService(fetcher Fetcher, store Store, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{fetcher: fetcher, store: store, logger: logger, now: time.Now, pace: defaultPace}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DailyPrices fetches the prices reported daysBack days ago, stores them and
// returns what the store holds for that day.
func (s *Service) DailyPrices(ctx context.Context, q Query, daysBack int) (DailyResult, error) {
	q, err := normalizeQuery(q, daysBack)
	if err != nil {
		return DailyResult{}, err
	}

	day := marketDay(s.now(), daysBack)
	raw, err := s.fetcher.FetchDay(ctx, q, day)
	if err != nil {
		return DailyResult{}, err
	}
	parsed, skipped := s.parseAll(raw, q.State)
	if err := s.store.Save(ctx, parsed); err != nil {
		return DailyResult{}, err
	}

	stored, err := s.store.List(ctx, q, day, day)
	if err != nil {
		return DailyResult{}, err
	}
	return DailyResult{Date: day, Records: stored, Fetched: len(raw), Skipped: skipped}, nil
}

// History fetches every day from days ago up to today, pacing upstream calls.
// Days the upstream fails for are reported and skipped; an error is returned
// only when no day could be fetched.
func (s *Service) History(ctx context.Context, q Query, days int) (HistoryResult, error) {
	q, err := normalizeQuery(q, days)
	if err != nil {
		return HistoryResult{}, err
	}

	now := s.now()
	result := HistoryResult{From: marketDay(now, days), To: marketDay(now, 0)}
	var lastErr error
	for i := 0; i <= days; i++ {
		if i > 0 {
			if err := sleep(ctx, s.pace); err != nil {
				return HistoryResult{}, err
			}
		}

		day := marketDay(now, i)
		raw, err := s.fetcher.FetchDay(ctx, q, day)
		if err != nil {
			if errors.Is(err, ErrNotConfigured) || ctx.Err() != nil {
				return HistoryResult{}, err
			}
			lastErr = err
			result.FailedDays = append(result.FailedDays, day.Format(dateLayout))
			s.logger.Warn("skipping price day", slog.String("date", day.Format(dateLayout)), slog.Any("error", err))
			continue
		}

		parsed, skipped := s.parseAll(raw, q.State)
		if err := s.store.Save(ctx, parsed); err != nil {
			return HistoryResult{}, err
		}
		result.Fetched += len(raw)
		result.Skipped += skipped
	}
	if len(result.FailedDays) == days+1 {
		return HistoryResult{}, fmt.Errorf("fetch price history: %w", lastErr)
	}

	result.Records, err = s.store.List(ctx, q, result.From, result.To)
	if err != nil {
		return HistoryResult{}, err
	}
	return result, nil
}

// Sample returns a fixed set of records in the shape served by DailyPrices.
func (s *Service) Sample(commodity, state string) []Record {
	if commodity = strings.TrimSpace(commodity); commodity == "" {
		commodity = "Wheat"
	}
	if state = strings.TrimSpace(state); state == "" {
		state = "Uttar Pradesh"
	}
	date := time.Date(2025, time.July, 26, 0, 0, 0, 0, time.UTC)
	rows := []struct {
		market          string
		min, max, modal int
	}{
		{"Agra", 2500, 2620, 2540},
		{"Auraiya", 2500, 2570, 2550},
		{"Babrala", 2430, 2450, 2440},
		{"Vilthararoad", 2500, 2600, 2550},
		{"Safdarganj", 2500, 2600, 2550},
	}
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			Date:       date,
			State:      state,
			Market:     r.market,
			Commodity:  commodity,
			Variety:    "Dara",
			MinPrice:   r.min,
			MaxPrice:   r.max,
			ModalPrice: r.modal,
		})
	}
	return out
}

func (s *Service) parseAll(raw []json.RawMessage, state string) ([]Record, int) {
	out := make([]Record, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		rec, err := parseRecord(entry, state)
		if err != nil {
			skipped++
			s.logger.Debug("skipping price record", slog.Any("error", err))
			continue
		}
		out = append(out, rec)
	}
	return out, skipped
}

func normalizeQuery(q Query, days int) (Query, error) {
	q.Commodity = strings.TrimSpace(q.Commodity)
	q.State = strings.TrimSpace(q.State)
	q.Market = strings.TrimSpace(q.Market)
	if q.Commodity == "" || q.State == "" {
		return Query{}, fmt.Errorf("%w: commodity and state are required", ErrInvalidQuery)
	}
	if days < 0 || days > MaxDaysBack {
		return Query{}, fmt.Errorf("%w: days must be between 0 and %d", ErrInvalidQuery, MaxDaysBack)
	}
	return q, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
