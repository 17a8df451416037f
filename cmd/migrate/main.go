// migrate applies the reference schema documented in
// internal/persistence.Schema to a Postgres database. Grounded on the
// teacher's cmd/migrate/main.go flag shape (-db, -command), generalized
// from a sql-migrations-directory runner to a single idempotent DDL apply
// since this module ships one schema version, not a migration chain.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/signalforge/equityedge/internal/persistence"
)

func main() {
	command := flag.String("command", "apply", "command to run: apply or status")
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "database connection URL")
	flag.Parse()

	if *dbURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -db flag or DATABASE_URL env var is required")
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, *dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to ping database: %v\n", err)
		os.Exit(1)
	}

	switch *command {
	case "apply":
		if _, err := pool.Exec(ctx, persistence.Schema); err != nil {
			fmt.Fprintf(os.Stderr, "schema apply failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("schema applied")
	case "status":
		var tableCount int
		err := pool.QueryRow(ctx, `SELECT count(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = ANY($1)`,
			[]string{"watchlist", "signals", "agent_analysis", "portfolio", "performance", "market_data", "sentiment_data", "backtest_results"}).Scan(&tableCount)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status check failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%d/8 schema tables present\n", tableCount)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		fmt.Fprintln(os.Stderr, "Usage: migrate -command=[apply|status]")
		os.Exit(1)
	}
}
