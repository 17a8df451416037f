// signalctl is a flag-based CLI exercising the module's seven core
// operations without bringing in an HTTP/REST surface (out of scope per
// spec §1). Grounded on the teacher's cmd/backtest/main.go flag style.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signalforge/equityedge/internal/app"
	"github.com/signalforge/equityedge/internal/backtest"
	"github.com/signalforge/equityedge/internal/breaker"
	"github.com/signalforge/equityedge/internal/config"
	"github.com/signalforge/equityedge/internal/persistence"
	"github.com/signalforge/equityedge/internal/ticker"
	"github.com/signalforge/equityedge/internal/verdict"
)

var (
	op         = flag.String("op", "", "operation: generate_signal, generate_batch, list_signals, get_signal, update_signal_status, run_backtest, compare_backtest_modes")
	configPath = flag.String("config", "", "path to config.yaml (optional; defaults applied otherwise)")
	symbols    = flag.String("symbols", "", "comma-separated tickers, e.g. NVDA,AAPL")

	mode           = flag.String("mode", "", "backtest allocation mode: CORE_FOCUS, BALANCED, DIVERSIFIED")
	startDate      = flag.String("start", "", "backtest window start (YYYY-MM-DD)")
	endDate        = flag.String("end", "", "backtest window end (YYYY-MM-DD)")
	capital        = flag.Float64("capital", 50000, "starting capital")
	holdPeriodDays = flag.Int("hold-period-days", 0, "hold period in days (0 = config default)")
	usePostgres    = flag.Bool("postgres", false, "use the pgx persistence adapter instead of in-memory")
	verbose        = flag.Bool("verbose", false, "enable debug logging")

	signalID  = flag.String("id", "", "verdict ID, for get_signal/update_signal_status")
	status    = flag.String("status", "", "target status for update_signal_status: APPROVED, EXECUTED, CLOSED")
	notes     = flag.String("notes", "", "freeform notes attached to a status transition")
	pnl       = flag.Float64("pnl", 0, "realized P&L, for update_signal_status to CLOSED")
	hasPnl    = flag.Bool("has-pnl", false, "set to apply -pnl (closing P&L is optional even when closing)")
	tickerArg = flag.String("ticker", "", "ticker filter for list_signals")
	offset    = flag.Int("offset", 0, "list_signals pagination offset")
	limit     = flag.Int("limit", 0, "list_signals pagination limit (0 = unlimited)")
)

func main() {
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *op == "" {
		fmt.Fprintln(os.Stderr, "Error: -op flag is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()
	repo, closeRepo := buildRepository(ctx, cfg)
	defer closeRepo()

	a, err := app.Wire(ctx, cfg, repo, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to wire application")
	}

	switch *op {
	case "generate_signal":
		runGenerateSignal(ctx, a)
	case "generate_batch":
		runGenerateBatch(ctx, a)
	case "list_signals":
		runListSignals(ctx, a)
	case "get_signal":
		runGetSignal(ctx, a)
	case "update_signal_status":
		runUpdateSignalStatus(ctx, a)
	case "run_backtest":
		runBacktest(ctx, a)
	case "compare_backtest_modes":
		runCompareBacktestModes(ctx, a)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown op %q\n", *op)
		os.Exit(1)
	}
}

func buildRepository(ctx context.Context, cfg *config.Config) (persistence.Repository, func()) {
	if !*usePostgres {
		return persistence.NewMemory(), func() {}
	}
	breakers := breaker.NewManager(breaker.Default())
	repo, err := persistence.NewPgx(ctx, breakers)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect persistence adapter")
	}
	return repo, repo.Close
}

func parseSymbols() []ticker.Ticker {
	if *symbols == "" {
		fmt.Fprintln(os.Stderr, "Error: -symbols flag is required for this op")
		os.Exit(1)
	}
	parts := strings.Split(*symbols, ",")
	out := make([]ticker.Ticker, 0, len(parts))
	for _, p := range parts {
		t, err := ticker.Parse(strings.TrimSpace(p))
		if err != nil {
			log.Fatal().Err(err).Str("symbol", p).Msg("invalid ticker")
		}
		out = append(out, t)
	}
	return out
}

func runGenerateSignal(ctx context.Context, a *app.App) {
	tickers := parseSymbols()
	v, err := a.GenerateSignal(ctx, tickers[0])
	if err != nil {
		log.Fatal().Err(err).Msg("generate_signal failed")
	}
	printJSON(v)
}

func runGenerateBatch(ctx context.Context, a *app.App) {
	tickers := parseSymbols()
	results, err := a.GenerateBatch(ctx, tickers)
	if err != nil {
		log.Fatal().Err(err).Msg("generate_batch failed")
	}
	printJSON(results)
}

func runListSignals(ctx context.Context, a *app.App) {
	var filter persistence.ListFilter
	if *tickerArg != "" {
		t, err := ticker.Parse(*tickerArg)
		if err != nil {
			log.Fatal().Err(err).Str("ticker", *tickerArg).Msg("invalid -ticker")
		}
		filter.Ticker = &t
	}
	if *status != "" {
		s := verdict.VerdictStatus(*status)
		filter.Status = &s
	}
	results, err := a.ListSignals(ctx, filter, *offset, *limit)
	if err != nil {
		log.Fatal().Err(err).Msg("list_signals failed")
	}
	printJSON(results)
}

func runGetSignal(ctx context.Context, a *app.App) {
	if *signalID == "" {
		fmt.Fprintln(os.Stderr, "Error: -id is required for get_signal")
		os.Exit(1)
	}
	v, err := a.GetSignal(ctx, *signalID)
	if err != nil {
		log.Fatal().Err(err).Msg("get_signal failed")
	}
	printJSON(v)
}

func runUpdateSignalStatus(ctx context.Context, a *app.App) {
	if *signalID == "" || *status == "" {
		fmt.Fprintln(os.Stderr, "Error: -id and -status are required for update_signal_status")
		os.Exit(1)
	}
	var pnlPtr *float64
	if *hasPnl {
		pnlPtr = pnl
	}
	v, err := a.UpdateSignalStatus(ctx, *signalID, verdict.VerdictStatus(*status), pnlPtr, *notes)
	if err != nil {
		log.Fatal().Err(err).Msg("update_signal_status failed")
	}
	printJSON(v)
}

func parseBacktestRequest() backtest.Request {
	if *startDate == "" || *endDate == "" {
		fmt.Fprintln(os.Stderr, "Error: -start and -end are required for backtest ops")
		os.Exit(1)
	}
	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -start date")
	}
	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -end date")
	}
	return backtest.Request{
		Mode:            backtest.Mode(*mode),
		Start:           start,
		End:             end,
		StartingCapital: *capital,
		HoldPeriodDays:  *holdPeriodDays,
	}
}

func runBacktest(ctx context.Context, a *app.App) {
	req := parseBacktestRequest()
	if req.Mode == "" {
		fmt.Fprintln(os.Stderr, "Error: -mode is required for run_backtest")
		os.Exit(1)
	}
	report, err := a.RunBacktest(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("run_backtest failed")
	}
	printJSON(report)
}

func runCompareBacktestModes(ctx context.Context, a *app.App) {
	req := parseBacktestRequest()
	reports, err := a.CompareBacktestModes(ctx, req)
	if err != nil {
		log.Fatal().Err(err).Msg("compare_backtest_modes failed")
	}
	printJSON(reports)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatal().Err(err).Msg("failed to encode output")
	}
}
