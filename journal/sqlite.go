package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite persists trade records to a single SQLite file, no ORM.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("init journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordDecision inserts a decision-time record. Re-inserting an existing ID
// is a no-op, so replayed imports stay idempotent.
func (j *SQLite) RecordDecision(t TradeRecord) error {
	if err := t.Validate(); err != nil {
		return err
	}

	market, err := json.Marshal(t.Market)
	if err != nil {
		return fmt.Errorf("encode market context: %w", err)
	}
	refs, err := json.Marshal(emptyIfNil(t.References))
	if err != nil {
		return fmt.Errorf("encode references: %w", err)
	}
	tags, err := json.Marshal(emptyIfNil(t.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	_, err = j.db.Exec(`
		INSERT OR IGNORE INTO trade_records
		(id, timestamp, symbol, direction, lot_size, strategy, confidence,
		 reasoning, market_context, trade_references, exit_timestamp, exit_price,
		 pnl, pnl_r, hold_duration, exit_reasoning, slippage, execution_quality,
		 lessons, tags, grade)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Timestamp.UTC(), t.Symbol, string(t.Direction), t.LotSize,
		t.Strategy, t.Confidence, t.Reasoning, string(market), string(refs),
		nullTime(t.ExitTime), nullIfOpen(t, t.ExitPrice), nullIfOpen(t, t.PnL),
		nullIfOpen(t, t.PnLR), nullIntIfOpen(t, t.HoldDuration),
		nullStr(t.ExitReasoning), nullIfOpen(t, t.Slippage),
		nullIfOpen(t, t.ExecutionQuality), nullStr(t.Lessons),
		string(tags), nullStr(string(t.Grade)),
	)
	if err != nil {
		return fmt.Errorf("insert trade %s: %w", t.ID, err)
	}
	return nil
}

// RecordOutcome fills the exit-side fields of an open trade. It refuses to
// overwrite a trade that already closed.
func (j *SQLite) RecordOutcome(tradeID string, o Outcome) error {
	if o.ExitTime.IsZero() {
		return fmt.Errorf("outcome exit time is required")
	}
	if o.ExecutionQuality < 0.0 || o.ExecutionQuality > 1.0 {
		return fmt.Errorf("execution quality must be 0.0-1.0, got %v", o.ExecutionQuality)
	}

	res, err := j.db.Exec(`
		UPDATE trade_records SET
			exit_timestamp = ?, exit_price = ?, pnl = ?, pnl_r = ?,
			hold_duration = ?, exit_reasoning = ?, slippage = ?,
			execution_quality = ?, lessons = ?, grade = ?
		WHERE id = ? AND exit_timestamp IS NULL`,
		o.ExitTime.UTC(), o.ExitPrice, o.PnL, o.PnLR, o.HoldDuration,
		o.ExitReasoning, o.Slippage, o.ExecutionQuality,
		nullStr(o.Lessons), nullStr(string(o.Grade)), tradeID,
	)
	if err != nil {
		return fmt.Errorf("update trade %s outcome: %w", tradeID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, gerr := j.GetTrade(tradeID); gerr != nil {
			return gerr
		}
		return fmt.Errorf("trade %q already closed", tradeID)
	}
	return nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

// Outcome columns stay NULL until the trade closes, so open and closed
// records are distinguishable in SQL.
func nullIfOpen(t TradeRecord, v float64) any {
	if !t.Closed() {
		return nil
	}
	return v
}

func nullIntIfOpen(t TradeRecord, v int) any {
	if !t.Closed() {
		return nil
	}
	return v
}
