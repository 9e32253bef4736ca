package patterns

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS patterns (
	pattern_id TEXT PRIMARY KEY,
	pattern_type TEXT NOT NULL,
	description TEXT NOT NULL,
	confidence REAL NOT NULL,
	sample_size INTEGER NOT NULL,
	date_range TEXT NOT NULL,
	strategy TEXT,
	symbol TEXT,
	metrics TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT 'auto',
	validation_status TEXT NOT NULL DEFAULT 'in_sample',
	discovered_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_patterns_strategy_symbol ON patterns(strategy, symbol);
CREATE INDEX IF NOT EXISTS idx_patterns_type ON patterns(pattern_type);
`

// Filter narrows a pattern query. Zero fields match everything.
type Filter struct {
	Strategy string
	Symbol   string
	Type     Type
	Source   Source
	Limit    int
}

// SQLite stores patterns keyed by ID, replacing on conflict so detection
// re-runs stay idempotent.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(storeSchema); err != nil {
		return nil, fmt.Errorf("init patterns schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Put(p Pattern) error {
	metrics, err := json.Marshal(p.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics for %s: %w", p.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO patterns
		(pattern_id, pattern_type, description, confidence, sample_size,
		 date_range, strategy, symbol, metrics, source, validation_status,
		 discovered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Type), p.Description, p.Confidence, p.SampleSize,
		p.DateRange, nullable(p.Strategy), nullable(p.Symbol), string(metrics),
		string(p.Source), p.Validation, p.DiscoveredAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert pattern %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLite) Get(id string) (Pattern, error) {
	row := s.db.QueryRow(`
		SELECT pattern_id, pattern_type, description, confidence, sample_size,
		       date_range, strategy, symbol, metrics, source, validation_status,
		       discovered_at
		FROM patterns WHERE pattern_id = ?`, id)

	p, err := scanPattern(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Pattern{}, fmt.Errorf("pattern %q not found", id)
		}
		return Pattern{}, err
	}
	return p, nil
}

// Query returns patterns matching the filter, newest discovery first. A zero
// Limit defaults to 100.
func (s *SQLite) Query(f Filter) ([]Pattern, error) {
	query := `
		SELECT pattern_id, pattern_type, description, confidence, sample_size,
		       date_range, strategy, symbol, metrics, source, validation_status,
		       discovered_at
		FROM patterns WHERE 1=1`
	var params []any

	if f.Strategy != "" {
		query += " AND strategy = ?"
		params = append(params, f.Strategy)
	}
	if f.Symbol != "" {
		query += " AND symbol = ?"
		params = append(params, f.Symbol)
	}
	if f.Type != "" {
		query += " AND pattern_type = ?"
		params = append(params, string(f.Type))
	}
	if f.Source != "" {
		query += " AND source = ?"
		params = append(params, string(f.Source))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY discovered_at DESC, pattern_id ASC LIMIT ?"
	params = append(params, limit)

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of stored patterns.
func (s *SQLite) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM patterns`).Scan(&n)
	return n, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanPattern(row interface{ Scan(...any) error }) (Pattern, error) {
	var (
		p        Pattern
		ptype    string
		strategy sql.NullString
		symbol   sql.NullString
		metrics  string
		source   string
	)

	err := row.Scan(
		&p.ID, &ptype, &p.Description, &p.Confidence, &p.SampleSize,
		&p.DateRange, &strategy, &symbol, &metrics, &source, &p.Validation,
		&p.DiscoveredAt,
	)
	if err != nil {
		return Pattern{}, err
	}

	p.Type = Type(ptype)
	p.Strategy = strategy.String
	p.Symbol = symbol.String
	p.Source = Source(source)
	if err := json.Unmarshal([]byte(metrics), &p.Metrics); err != nil {
		return Pattern{}, fmt.Errorf("decode metrics for %s: %w", p.ID, err)
	}
	return p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
