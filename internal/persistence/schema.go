package persistence

// Schema documents the relational layout spec §6.1 names. Pgx (this
// package's reference adapter) persists signals.agent_analysis and
// backtest_results.trades/agent_attribution as JSONB columns rather than
// the fully normalized agent_analysis/performance tables below — a
// deliberate simplification for a reference adapter, not a departure from
// the contract: every field the normalized tables would hold is still
// present, just nested under the owning row instead of foreign-keyed out.
// A production deployment wanting per-agent indexing or ad-hoc joins would
// split agent_analysis and performance into real tables using this DDL
// unchanged.
const Schema = `
CREATE TABLE IF NOT EXISTS watchlist (
    ticker      TEXT PRIMARY KEY,
    added_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    notes       TEXT
);

CREATE TABLE IF NOT EXISTS signals (
    id               UUID PRIMARY KEY,
    ticker           TEXT NOT NULL REFERENCES watchlist(ticker),
    created_at       TIMESTAMPTZ NOT NULL,
    signal_type      TEXT NOT NULL CHECK (signal_type IN ('BUY','SELL','HOLD')),
    confidence       DOUBLE PRECISION NOT NULL,
    entry_price      DOUBLE PRECISION NOT NULL,
    stop_loss        DOUBLE PRECISION,
    target_price     DOUBLE PRECISION,
    position_size    INTEGER NOT NULL DEFAULT 0,
    status           TEXT NOT NULL CHECK (status IN ('PENDING','APPROVED','EXECUTED','CLOSED')),
    agent_analysis   JSONB NOT NULL DEFAULT '[]',
    closed_pnl       DOUBLE PRECISION,
    notes            TEXT,
    warnings         JSONB
);

-- Normalized form of signals.agent_analysis, for deployments that split it out:
CREATE TABLE IF NOT EXISTS agent_analysis (
    id          UUID PRIMARY KEY,
    signal_id   UUID NOT NULL REFERENCES signals(id),
    agent_name  TEXT NOT NULL,
    signal      TEXT NOT NULL,
    raw_score   DOUBLE PRECISION NOT NULL,
    confidence  DOUBLE PRECISION NOT NULL,
    reasoning   TEXT NOT NULL,
    data_used   JSONB,
    failed      BOOLEAN NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS portfolio (
    ticker        TEXT PRIMARY KEY REFERENCES watchlist(ticker),
    shares        INTEGER NOT NULL DEFAULT 0,
    average_cost  DOUBLE PRECISION,
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS performance (
    signal_id   UUID PRIMARY KEY REFERENCES signals(id),
    closed_at   TIMESTAMPTZ,
    realized_pnl DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS market_data (
    ticker      TEXT NOT NULL REFERENCES watchlist(ticker),
    as_of       DATE NOT NULL,
    open        DOUBLE PRECISION,
    high        DOUBLE PRECISION,
    low         DOUBLE PRECISION,
    close       DOUBLE PRECISION,
    volume      DOUBLE PRECISION,
    PRIMARY KEY (ticker, as_of)
);

CREATE TABLE IF NOT EXISTS sentiment_data (
    ticker              TEXT NOT NULL REFERENCES watchlist(ticker),
    as_of               TIMESTAMPTZ NOT NULL,
    source              TEXT NOT NULL,
    sentiment           DOUBLE PRECISION NOT NULL,
    mention_count       INTEGER,
    PRIMARY KEY (ticker, as_of, source)
);

CREATE TABLE IF NOT EXISTS backtest_results (
    id                  UUID PRIMARY KEY,
    signal_id           UUID REFERENCES signals(id),
    mode                TEXT NOT NULL CHECK (mode IN ('CORE_FOCUS','BALANCED','DIVERSIFIED')),
    start_date          TIMESTAMPTZ NOT NULL,
    end_date            TIMESTAMPTZ NOT NULL,
    starting_capital    DOUBLE PRECISION NOT NULL,
    total_pnl           DOUBLE PRECISION NOT NULL,
    total_return_pct    DOUBLE PRECISION NOT NULL,
    win_rate            DOUBLE PRECISION NOT NULL,
    sharpe              DOUBLE PRECISION NOT NULL,
    max_drawdown_pct    DOUBLE PRECISION NOT NULL,
    trades              JSONB NOT NULL DEFAULT '[]',
    agent_attribution   JSONB NOT NULL DEFAULT '[]',
    warnings            JSONB,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
