// Package state is the agent-scoped key/value store backing the analysis
// engines: risk-constraint snapshots, warm session memory and any other
// auxiliary state an agent wants to survive a restart.
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tradememory/risk"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_state (
	agent TEXT NOT NULL,
	state_key TEXT NOT NULL,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (agent, state_key)
);

CREATE INDEX IF NOT EXISTS idx_session_state_agent ON session_state(agent);
`

// constraintsKey is where risk snapshots live within an agent's state.
const constraintsKey = "risk_constraints"

// Store is a SQLite-backed key/value store. Values are JSON-encoded;
// writes are last-write-wins per (agent, key).
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init state schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Set stores a JSON-encodable value under the agent's key.
func (s *Store) Set(agent, key string, v any) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state %s/%s: %w", agent, key, err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO session_state (agent, state_key, value, updated_at)
		VALUES (?, ?, ?, ?)`,
		agent, key, string(encoded), s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("write state %s/%s: %w", agent, key, err)
	}
	return nil
}

// Get decodes the agent's value for key into out. The second return is
// false when the key has never been set.
func (s *Store) Get(agent, key string, out any) (bool, error) {
	var value string
	err := s.db.QueryRow(`
		SELECT value FROM session_state WHERE agent = ? AND state_key = ?`,
		agent, key).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read state %s/%s: %w", agent, key, err)
	}

	if err := json.Unmarshal([]byte(value), out); err != nil {
		return false, fmt.Errorf("decode state %s/%s: %w", agent, key, err)
	}
	return true, nil
}

// Delete removes one key. Deleting an absent key is a no-op.
func (s *Store) Delete(agent, key string) error {
	_, err := s.db.Exec(`DELETE FROM session_state WHERE agent = ? AND state_key = ?`, agent, key)
	return err
}

// Keys lists the agent's stored keys in lexical order.
func (s *Store) Keys(agent string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT state_key FROM session_state WHERE agent = ? ORDER BY state_key`, agent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// SaveConstraints persists an agent's risk snapshot.
func (s *Store) SaveConstraints(agent string, c risk.Constraints) error {
	return s.Set(agent, constraintsKey, c)
}

// LoadConstraints returns the agent's stored risk snapshot, if any.
func (s *Store) LoadConstraints(agent string) (risk.Constraints, bool, error) {
	var c risk.Constraints
	ok, err := s.Get(agent, constraintsKey, &c)
	if err != nil || !ok {
		return risk.Constraints{}, ok, err
	}
	return c, true, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
