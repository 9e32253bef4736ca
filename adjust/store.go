package adjust

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const storeSchema = `
CREATE TABLE IF NOT EXISTS adjustments (
	adjustment_id TEXT PRIMARY KEY,
	adjustment_type TEXT NOT NULL,
	param TEXT NOT NULL,
	old_value TEXT NOT NULL,
	new_value TEXT NOT NULL,
	reason TEXT NOT NULL,
	pattern_id TEXT,
	confidence REAL NOT NULL,
	status TEXT NOT NULL DEFAULT 'proposed',
	created_at DATETIME NOT NULL,
	applied_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_adjustments_status ON adjustments(status);
CREATE INDEX IF NOT EXISTS idx_adjustments_type ON adjustments(adjustment_type);
`

// Filter narrows an adjustment query. Zero fields match everything.
type Filter struct {
	Status Status
	Type   Type
	Limit  int
}

// SQLite stores adjustments keyed by ID. Inserts ignore an existing row so
// that generator re-runs never regress a reviewed status; status moves only
// through UpdateStatus.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(storeSchema); err != nil {
		return nil, fmt.Errorf("init adjustments schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Put(a Adjustment) error {
	if err := a.Validate(); err != nil {
		return err
	}

	oldVal, err := json.Marshal(a.Old)
	if err != nil {
		return fmt.Errorf("encode old value for %s: %w", a.ID, err)
	}
	newVal, err := json.Marshal(a.New)
	if err != nil {
		return fmt.Errorf("encode new value for %s: %w", a.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO adjustments
		(adjustment_id, adjustment_type, param, old_value, new_value, reason,
		 pattern_id, confidence, status, created_at, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		a.ID, string(a.Type), a.Param, string(oldVal), string(newVal), a.Reason,
		nullable(a.PatternID), a.Confidence, string(a.Status), a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert adjustment %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLite) Get(id string) (Adjustment, error) {
	row := s.db.QueryRow(`
		SELECT adjustment_id, adjustment_type, param, old_value, new_value,
		       reason, pattern_id, confidence, status, created_at, applied_at
		FROM adjustments WHERE adjustment_id = ?`, id)

	a, err := scanAdjustment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return Adjustment{}, fmt.Errorf("adjustment %q not found", id)
		}
		return Adjustment{}, err
	}
	return a, nil
}

// Query returns adjustments matching the filter, newest first. A zero Limit
// defaults to 100.
func (s *SQLite) Query(f Filter) ([]Adjustment, error) {
	query := `
		SELECT adjustment_id, adjustment_type, param, old_value, new_value,
		       reason, pattern_id, confidence, status, created_at, applied_at
		FROM adjustments WHERE 1=1`
	var params []any

	if f.Status != "" {
		query += " AND status = ?"
		params = append(params, string(f.Status))
	}
	if f.Type != "" {
		query += " AND adjustment_type = ?"
		params = append(params, string(f.Type))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY created_at DESC, adjustment_id ASC LIMIT ?"
	params = append(params, limit)

	rows, err := s.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Adjustment
	for rows.Next() {
		a, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus moves an adjustment forward through its lifecycle. Illegal
// transitions, including any attempt to move backward, return an error and
// leave the row untouched.
func (s *SQLite) UpdateStatus(id string, to Status, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRow(`SELECT status FROM adjustments WHERE adjustment_id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("adjustment %q not found", id)
	}
	if err != nil {
		return err
	}

	if !CanTransition(Status(current), to) {
		return fmt.Errorf("adjustment %s: illegal transition %s -> %s", id, current, to)
	}

	var applied any
	if to == StatusApplied {
		applied = at.UTC()
	}
	_, err = tx.Exec(`UPDATE adjustments SET status = ?, applied_at = COALESCE(?, applied_at) WHERE adjustment_id = ?`,
		string(to), applied, id)
	if err != nil {
		return fmt.Errorf("update adjustment %s: %w", id, err)
	}
	return tx.Commit()
}

// Count returns the number of stored adjustments.
func (s *SQLite) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM adjustments`).Scan(&n)
	return n, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func scanAdjustment(row interface{ Scan(...any) error }) (Adjustment, error) {
	var (
		a         Adjustment
		atype     string
		oldVal    string
		newVal    string
		patternID sql.NullString
		status    string
		appliedAt sql.NullTime
	)

	err := row.Scan(
		&a.ID, &atype, &a.Param, &oldVal, &newVal, &a.Reason,
		&patternID, &a.Confidence, &status, &a.CreatedAt, &appliedAt,
	)
	if err != nil {
		return Adjustment{}, err
	}

	a.Type = Type(atype)
	a.PatternID = patternID.String
	a.Status = Status(status)
	if appliedAt.Valid {
		a.AppliedAt = appliedAt.Time
	}
	if err := json.Unmarshal([]byte(oldVal), &a.Old); err != nil {
		return Adjustment{}, fmt.Errorf("decode old value for %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(newVal), &a.New); err != nil {
		return Adjustment{}, fmt.Errorf("decode new value for %s: %w", a.ID, err)
	}
	return a, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
