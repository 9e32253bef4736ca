// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trade_records (
	id TEXT PRIMARY KEY,
	timestamp DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	lot_size REAL NOT NULL,
	strategy TEXT NOT NULL,
	confidence REAL NOT NULL,
	reasoning TEXT NOT NULL,
	market_context TEXT NOT NULL,
	trade_references TEXT NOT NULL,
	exit_timestamp DATETIME,
	exit_price REAL,
	pnl REAL,
	pnl_r REAL,
	hold_duration INTEGER,
	exit_reasoning TEXT,
	slippage REAL,
	execution_quality REAL,
	lessons TEXT,
	tags TEXT NOT NULL,
	grade TEXT
);

CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trade_records(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_trades_strategy ON trade_records(strategy);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trade_records(symbol);
`
