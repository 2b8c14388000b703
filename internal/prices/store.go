package prices

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists price records keyed by (date, state, commodity, market).
// Saving a record for an existing key replaces it.
type Store interface {
	Save(ctx context.Context, records []Record) error
	List(ctx context.Context, q Query, from, to time.Time) ([]Record, error)
}

// PostgresStore keeps records in the price_records table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save upserts records in a single batch.
func (s *PostgresStore) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`INSERT INTO price_records
            (arrival_date, state, commodity, market, variety, min_price, max_price, modal_price, fetched_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
            ON CONFLICT (arrival_date, state, commodity, market) DO UPDATE SET
                variety = EXCLUDED.variety,
                min_price = EXCLUDED.min_price,
                max_price = EXCLUDED.max_price,
                modal_price = EXCLUDED.modal_price,
                fetched_at = EXCLUDED.fetched_at`,
			r.Date, r.State, r.Commodity, r.Market, r.Variety, r.MinPrice, r.MaxPrice, r.ModalPrice)
	}
	if err := s.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save price records: %w", err)
	}
	return nil
}

// List returns records for q with arrival dates in [from, to], newest first.
// State and commodity match case-insensitively.
func (s *PostgresStore) List(ctx context.Context, q Query, from, to time.Time) ([]Record, error) {
	rows, err := s.db.Query(ctx, `SELECT arrival_date, state, commodity, market, variety, min_price, max_price, modal_price
        FROM price_records
        WHERE lower(state) = lower($1) AND lower(commodity) = lower($2)
          AND ($3 = '' OR lower(market) = lower($3))
          AND arrival_date BETWEEN $4 AND $5
        ORDER BY arrival_date DESC, market`,
		q.State, q.Commodity, q.Market, from, to)
	if err != nil {
		return nil, fmt.Errorf("list price records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Date, &r.State, &r.Commodity, &r.Market, &r.Variety, &r.MinPrice, &r.MaxPrice, &r.ModalPrice); err != nil {
			return nil, err
		}
		r.Date = r.Date.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

type recordKey struct {
	date      string
	state     string
	commodity string
	market    string
}

type memoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]Record
}

// NewMemoryStore builds an in-memory store for tests and local development.
func NewMemoryStore() Store {
	return &memoryStore{records: make(map[recordKey]Record)}
}

func keyOf(r Record) recordKey {
	return recordKey{date: r.Date.Format(dateLayout), state: fold(r.State), commodity: fold(r.Commodity), market: fold(r.Market)}
}

func (s *memoryStore) Save(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[keyOf(r)] = r
	}
	return nil
}

func (s *memoryStore) List(_ context.Context, q Query, from, to time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, r := range s.records {
		if fold(r.State) != fold(q.State) || fold(r.Commodity) != fold(q.Commodity) {
			continue
		}
		if q.Market != "" && fold(r.Market) != fold(q.Market) {
			continue
		}
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Market < out[j].Market
	})
	return out, nil
}
