package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/signalforge/equityedge/internal/backtest"
	"github.com/signalforge/equityedge/internal/breaker"
	"github.com/signalforge/equityedge/internal/errkind"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/vault"
	"github.com/signalforge/equityedge/internal/verdict"
)

// breakerKey is the internal/breaker.Manager key guarding every Postgres
// call this adapter makes, so a database outage opens exactly one breaker
// shared across all Pgx queries rather than one per method.
const breakerKey = "persistence.postgres"

// Pgx is the pgx/v5-backed reference Repository. Grounded on the teacher's
// internal/db/db.go: Vault-or-DATABASE_URL-env credential resolution, the
// same pool tuning (MaxConns 10 / MinConns 2 / 1h lifetime / 30m idle), and
// circuit-breaker-wrapped execution — reusing this module's own
// internal/breaker.Manager (keyed by breakerKey) rather than the teacher's
// separate risk.CircuitBreakerManager, so the whole module has one circuit-
// breaking idiom instead of two parallel ones.
type Pgx struct {
	pool     *pgxpool.Pool
	breakers *breaker.Manager
}

var _ Repository = (*Pgx)(nil)

// NewPgx resolves a database URL (Vault first, DATABASE_URL env as
// fallback), opens a pool tuned like the teacher's, and pings it once.
func NewPgx(ctx context.Context, breakers *breaker.Manager) (*Pgx, error) {
	databaseURL := resolveDatabaseURL(ctx)
	if databaseURL == "" {
		return nil, errkind.Fatalf("persistence.NewPgx", fmt.Errorf("DATABASE_URL not set and Vault credentials not available"))
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errkind.Fatalf("persistence.NewPgx", fmt.Errorf("parse database url: %w", err))
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errkind.Fatalf("persistence.NewPgx", fmt.Errorf("create connection pool: %w", err))
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errkind.New(errkind.Unavailable, "persistence.NewPgx", fmt.Errorf("ping database: %w", err))
	}

	log.Info().Msg("persistence: postgres connection pool created")
	return &Pgx{pool: pool, breakers: breakers}, nil
}

func resolveDatabaseURL(ctx context.Context) string {
	if vaultClient, err := vault.NewClientFromEnv(); err == nil {
		if dbCfg, err := vaultClient.GetDatabaseConfig(ctx); err == nil {
			log.Info().Msg("persistence: database credentials loaded from Vault")
			return dbCfg.ConnectionString()
		} else {
			log.Debug().Err(err).Msg("persistence: could not load database config from Vault, falling back to env")
		}
	}
	return os.Getenv("DATABASE_URL")
}

// Close releases the connection pool.
func (p *Pgx) Close() { p.pool.Close() }

// Health reports database reachability.
func (p *Pgx) Health(ctx context.Context) error { return p.pool.Ping(ctx) }

// execute runs op behind the shared Postgres circuit breaker. Manager.Execute
// already classifies a tripped breaker as Unavailable; any other failure
// (query error, connection drop) is classified Transient here so it is
// retry-eligible per spec §7, unless the call site already classified it
// (e.g. scanVerdict's BadInput/Fatal on a malformed row).
func (p *Pgx) execute(op string, fn func() (any, error)) (any, error) {
	result, err := p.breakers.Execute(breakerKey, fn)
	if err != nil {
		if errkind.KindOf(err) != "" {
			return nil, err
		}
		return nil, errkind.Transientf(op, err)
	}
	return result, nil
}

func (p *Pgx) SaveVerdict(ctx context.Context, v verdict.Verdict) error {
	agentJSON, err := json.Marshal(v.AgentVerdicts)
	if err != nil {
		return errkind.Fatalf("persistence.SaveVerdict", err)
	}
	warningsJSON, _ := json.Marshal(v.Warnings)

	_, err = p.execute("persistence.SaveVerdict", func() (any, error) {
		_, execErr := p.pool.Exec(ctx, `
			INSERT INTO signals (id, ticker, created_at, signal_type, confidence, entry_price,
				stop_loss, target_price, position_size, status, agent_analysis, closed_pnl, notes, warnings)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
			ON CONFLICT (id) DO UPDATE SET
				status = EXCLUDED.status, closed_pnl = EXCLUDED.closed_pnl, notes = EXCLUDED.notes
		`, v.ID, string(v.Ticker), v.CreatedAt, string(v.SignalType), v.Confidence, v.EntryPrice,
			v.StopLoss, v.TargetPrice, v.PositionSize, string(v.Status), agentJSON, v.ClosedPnL, v.Notes, warningsJSON)
		return nil, execErr
	})
	return err
}

func (p *Pgx) LoadVerdict(ctx context.Context, id string) (verdict.Verdict, error) {
	result, err := p.execute("persistence.LoadVerdict", func() (any, error) {
		row := p.pool.QueryRow(ctx, `
			SELECT id, ticker, created_at, signal_type, confidence, entry_price,
				stop_loss, target_price, position_size, status, agent_analysis, closed_pnl, notes, warnings
			FROM signals WHERE id = $1`, id)
		return scanVerdict(row)
	})
	if err != nil {
		return verdict.Verdict{}, err
	}
	return result.(verdict.Verdict), nil
}

func (p *Pgx) ListVerdicts(ctx context.Context, filter ListFilter) ([]verdict.Verdict, error) {
	query := `
		SELECT id, ticker, created_at, signal_type, confidence, entry_price,
			stop_loss, target_price, position_size, status, agent_analysis, closed_pnl, notes, warnings
		FROM signals WHERE 1=1`
	args := []any{}
	if filter.Ticker != nil {
		args = append(args, string(*filter.Ticker))
		query += fmt.Sprintf(" AND ticker = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CreatedAfter != nil {
		args = append(args, *filter.CreatedAfter)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.CreatedBefore != nil {
		args = append(args, *filter.CreatedBefore)
		query += fmt.Sprintf(" AND created_at <= $%d", len(args))
	}
	query += " ORDER BY created_at ASC"

	result, err := p.execute("persistence.ListVerdicts", func() (any, error) {
		rows, queryErr := p.pool.Query(ctx, query, args...)
		if queryErr != nil {
			return nil, queryErr
		}
		defer rows.Close()

		out := []verdict.Verdict{}
		for rows.Next() {
			v, scanErr := scanVerdict(rows)
			if scanErr != nil {
				return nil, scanErr
			}
			out = append(out, v)
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]verdict.Verdict), nil
}

func (p *Pgx) UpdateStatus(ctx context.Context, id string, to verdict.VerdictStatus, pnl *float64, notes string) (verdict.Verdict, error) {
	v, err := p.LoadVerdict(ctx, id)
	if err != nil {
		return verdict.Verdict{}, err
	}
	if err := v.Transition(to, pnl, notes); err != nil {
		return verdict.Verdict{}, err
	}
	if err := p.SaveVerdict(ctx, v); err != nil {
		return verdict.Verdict{}, err
	}
	return v, nil
}

// scanRow is the subset of pgx.Row/pgx.Rows that Scan needs.
type scanRow interface {
	Scan(dest ...any) error
}

func scanVerdict(row scanRow) (verdict.Verdict, error) {
	var v verdict.Verdict
	var tkr, signalType, status string
	var agentJSON, warningsJSON []byte

	if err := row.Scan(&v.ID, &tkr, &v.CreatedAt, &signalType, &v.Confidence, &v.EntryPrice,
		&v.StopLoss, &v.TargetPrice, &v.PositionSize, &status, &agentJSON, &v.ClosedPnL, &v.Notes, &warningsJSON); err != nil {
		if err == pgx.ErrNoRows {
			return verdict.Verdict{}, errkind.New(errkind.BadInput, "persistence.scanVerdict", err)
		}
		return verdict.Verdict{}, errkind.Fatalf("persistence.scanVerdict", err)
	}
	v.Ticker = ticker.Ticker(tkr)
	v.SignalType = verdict.SignalType(signalType)
	v.Status = verdict.VerdictStatus(status)
	if len(agentJSON) > 0 {
		if err := json.Unmarshal(agentJSON, &v.AgentVerdicts); err != nil {
			return verdict.Verdict{}, errkind.Fatalf("persistence.scanVerdict", err)
		}
	}
	if len(warningsJSON) > 0 {
		_ = json.Unmarshal(warningsJSON, &v.Warnings)
	}
	return v, nil
}

func (p *Pgx) SaveBacktest(ctx context.Context, r backtest.Report) error {
	tradesJSON, err := json.Marshal(r.Trades)
	if err != nil {
		return errkind.Fatalf("persistence.SaveBacktest", err)
	}
	attributionJSON, _ := json.Marshal(r.AgentAttribution)
	warningsJSON, _ := json.Marshal(r.Warnings)

	_, err = p.execute("persistence.SaveBacktest", func() (any, error) {
		_, execErr := p.pool.Exec(ctx, `
			INSERT INTO backtest_results (id, mode, start_date, end_date, starting_capital,
				total_pnl, total_return_pct, win_rate, sharpe, max_drawdown_pct, trades, agent_attribution, warnings, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		`, r.ID, string(r.Mode), r.Start, r.End, r.StartingCapital,
			r.TotalPnL, r.TotalReturnPct, r.WinRate, r.Sharpe, r.MaxDrawdownPct, tradesJSON, attributionJSON, warningsJSON, r.CreatedAt)
		return nil, execErr
	})
	return err
}

func (p *Pgx) LoadBacktest(ctx context.Context, id string) (backtest.Report, error) {
	result, err := p.execute("persistence.LoadBacktest", func() (any, error) {
		row := p.pool.QueryRow(ctx, `
			SELECT id, mode, start_date, end_date, starting_capital, total_pnl, total_return_pct,
				win_rate, sharpe, max_drawdown_pct, trades, agent_attribution, warnings, created_at
			FROM backtest_results WHERE id = $1`, id)
		return scanBacktest(row)
	})
	if err != nil {
		return backtest.Report{}, err
	}
	return result.(backtest.Report), nil
}

func (p *Pgx) ListBacktests(ctx context.Context) ([]backtest.Report, error) {
	result, err := p.execute("persistence.ListBacktests", func() (any, error) {
		rows, queryErr := p.pool.Query(ctx, `
			SELECT id, mode, start_date, end_date, starting_capital, total_pnl, total_return_pct,
				win_rate, sharpe, max_drawdown_pct, trades, agent_attribution, warnings, created_at
			FROM backtest_results ORDER BY created_at ASC`)
		if queryErr != nil {
			return nil, queryErr
		}
		defer rows.Close()

		out := []backtest.Report{}
		for rows.Next() {
			r, scanErr := scanBacktest(rows)
			if scanErr != nil {
				return nil, scanErr
			}
			out = append(out, r)
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result.([]backtest.Report), nil
}

func scanBacktest(row scanRow) (backtest.Report, error) {
	var r backtest.Report
	var mode string
	var tradesJSON, attributionJSON, warningsJSON []byte

	if err := row.Scan(&r.ID, &mode, &r.Start, &r.End, &r.StartingCapital, &r.TotalPnL, &r.TotalReturnPct,
		&r.WinRate, &r.Sharpe, &r.MaxDrawdownPct, &tradesJSON, &attributionJSON, &warningsJSON, &r.CreatedAt); err != nil {
		return backtest.Report{}, errkind.Fatalf("persistence.scanBacktest", err)
	}
	r.Mode = backtest.Mode(mode)
	if len(tradesJSON) > 0 {
		_ = json.Unmarshal(tradesJSON, &r.Trades)
	}
	if len(attributionJSON) > 0 {
		_ = json.Unmarshal(attributionJSON, &r.AgentAttribution)
	}
	if len(warningsJSON) > 0 {
		_ = json.Unmarshal(warningsJSON, &r.Warnings)
	}
	return r, nil
}
