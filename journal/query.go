package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const selectColumns = `
	id, timestamp, symbol, direction, lot_size, strategy, confidence,
	reasoning, market_context, trade_references, exit_timestamp, exit_price,
	pnl, pnl_r, hold_duration, exit_reasoning, slippage, execution_quality,
	lessons, tags, grade`

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(
		`SELECT `+selectColumns+` FROM trade_records WHERE id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// QueryTrades returns records matching the filter, newest first. A zero
// Limit defaults to 100.
func (j *SQLite) QueryTrades(q Query) ([]TradeRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM trade_records WHERE 1=1`
	var params []any

	if q.Strategy != "" {
		query += " AND strategy = ?"
		params = append(params, q.Strategy)
	}
	if q.Symbol != "" {
		query += " AND symbol = ?"
		params = append(params, q.Symbol)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	params = append(params, limit)

	return j.queryTrades(query, params...)
}

// ActiveTrades returns all open trades (no exit timestamp), newest first.
func (j *SQLite) ActiveTrades() ([]TradeRecord, error) {
	return j.queryTrades(`
		SELECT ` + selectColumns + `
		FROM trade_records
		WHERE exit_timestamp IS NULL
		ORDER BY timestamp DESC`)
}

// ClosedSince returns closed trades whose entry timestamp is at or after the
// cutoff, oldest first, the way the risk calculator replays them.
func (j *SQLite) ClosedSince(cutoff time.Time) ([]TradeRecord, error) {
	return j.queryTrades(`
		SELECT `+selectColumns+`
		FROM trade_records
		WHERE exit_timestamp IS NOT NULL AND timestamp >= ?
		ORDER BY timestamp ASC`, cutoff.UTC())
}

func (j *SQLite) queryTrades(query string, params ...any) ([]TradeRecord, error) {
	rows, err := j.db.Query(query, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(row scanner) (TradeRecord, error) {
	var (
		rec       TradeRecord
		direction string
		market    string
		refs      string
		tags      string

		exitTime  sql.NullTime
		exitPrice sql.NullFloat64
		pnl       sql.NullFloat64
		pnlR      sql.NullFloat64
		holdMin   sql.NullInt64
		exitWhy   sql.NullString
		slippage  sql.NullFloat64
		execQual  sql.NullFloat64
		lessons   sql.NullString
		grade     sql.NullString
	)

	err := row.Scan(
		&rec.ID, &rec.Timestamp, &rec.Symbol, &direction, &rec.LotSize,
		&rec.Strategy, &rec.Confidence, &rec.Reasoning, &market, &refs,
		&exitTime, &exitPrice, &pnl, &pnlR, &holdMin, &exitWhy,
		&slippage, &execQual, &lessons, &tags, &grade,
	)
	if err != nil {
		return TradeRecord{}, err
	}

	rec.Direction = Direction(direction)
	if err := json.Unmarshal([]byte(market), &rec.Market); err != nil {
		return TradeRecord{}, fmt.Errorf("decode market context for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(refs), &rec.References); err != nil {
		return TradeRecord{}, fmt.Errorf("decode references for %s: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return TradeRecord{}, fmt.Errorf("decode tags for %s: %w", rec.ID, err)
	}

	if exitTime.Valid {
		rec.ExitTime = exitTime.Time
	}
	rec.ExitPrice = exitPrice.Float64
	rec.PnL = pnl.Float64
	rec.PnLR = pnlR.Float64
	rec.HoldDuration = int(holdMin.Int64)
	rec.ExitReasoning = exitWhy.String
	rec.Slippage = slippage.Float64
	rec.ExecutionQuality = execQual.Float64
	rec.Lessons = lessons.String
	rec.Grade = Grade(grade.String)

	return rec, nil
}
