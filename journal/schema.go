package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	dataset TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	strategy TEXT NOT NULL,
	config BLOB,
	reward_risk REAL NOT NULL,
	risk_budget REAL NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	candles INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	stop_losses INTEGER NOT NULL,
	targets INTEGER NOT NULL,
	forced INTEGER NOT NULL,
	rejected INTEGER NOT NULL,
	open_at_end BOOLEAN NOT NULL,
	net_pnl REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	avg_r REAL NOT NULL,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	idx INTEGER NOT NULL,
	time INTEGER NOT NULL,
	kind TEXT NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	stop_loss REAL,
	target REAL,
	risk_per_share REAL,
	pnl REAL,
	cumulative_pnl REAL
);

CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, id);
`
