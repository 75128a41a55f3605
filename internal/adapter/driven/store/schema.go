package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS recommendations (
    id                        INTEGER PRIMARY KEY AUTOINCREMENT,
    title                     TEXT NOT NULL,
    type                      TEXT NOT NULL,
    description               TEXT,
    account_id                TEXT,
    estimated_monthly_savings REAL NOT NULL DEFAULT 0,
    risk_level                TEXT NOT NULL,
    effort                    TEXT NOT NULL,
    status                    TEXT NOT NULL DEFAULT 'pending',
    created_at                TEXT NOT NULL,
    resolved_at               TEXT,
    actual_monthly_savings    REAL,
    notes                     TEXT
);

CREATE TABLE IF NOT EXISTS cost_snapshots (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    date          TEXT NOT NULL,
    account_id    TEXT,
    total_cost    REAL NOT NULL,
    period_days   INTEGER NOT NULL,
    by_service    TEXT
);

CREATE INDEX IF NOT EXISTS idx_recommendations_status ON recommendations(status);
CREATE INDEX IF NOT EXISTS idx_snapshots_account ON cost_snapshots(account_id, date);
`
