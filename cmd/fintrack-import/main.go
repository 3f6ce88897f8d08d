// Command fintrack-import loads a JSON export of transactions (and optional
// notifications) into the SQLite source.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/source/memory"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()

	file := flag.String("file", cfg.SeedFile, "JSON file: a transaction array or {\"transactions\": [...], \"notifications\": [...]}")
	dbPath := flag.String("db", cfg.SQLiteDBPath, "SQLite database path")
	dryRun := flag.Bool("dry-run", false, "parse and summarize the file without writing")
	flag.Parse()

	logger := cli.SetupLogger(cfg.LogLevel).WithComponent("import")

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Error("Failed to read import file", log.FieldError, err, "file", *file)
		os.Exit(1)
	}
	seed, err := memory.ParseSeed(data)
	if err != nil {
		logger.Error("Failed to parse import file", log.FieldError, err, "file", *file)
		os.Exit(1)
	}

	loc, err := cfg.Location()
	if err != nil {
		loc = time.Local
	}
	sum := core.Summarize(seed.Transactions, time.Now().In(loc), core.FeedOptions{})
	logger.Info("Parsed import file",
		"file", *file,
		log.FieldTxCount, len(seed.Transactions),
		"notifications", len(seed.Notifications),
		log.FieldTotalIncome, sum.Totals.Income.String(),
		log.FieldTotalExpense, sum.Totals.Expense.String(),
		"bad_amount", sum.Excluded.BadAmount,
		"unknown_type", sum.Excluded.UnknownType)

	if *dryRun {
		fmt.Printf("%d transactions, %d notifications (dry run, nothing written)\n", len(seed.Transactions), len(seed.Notifications))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	repo := cli.OpenSQLite(logger, *dbPath)
	defer repo.Close()
	repo.WithLocation(loc)

	inserted, skipped, err := repo.Import(ctx, seed.Transactions)
	if err != nil {
		logger.Error("Import failed", log.FieldOperation, log.OpImport, log.FieldError, err)
		os.Exit(1)
	}
	for _, n := range seed.Notifications {
		if err := repo.AddNotification(ctx, n); err != nil {
			logger.Error("Failed to import notification", log.FieldError, err, "notification_id", n.ID)
			os.Exit(1)
		}
	}

	total, err := repo.Count(ctx)
	if err != nil {
		logger.Warn("Failed to count transactions", log.FieldError, err)
	}
	logger.Info("Import completed",
		log.FieldOperation, log.OpImport,
		"inserted", inserted,
		"skipped", skipped,
		"total", total,
		"db", *dbPath)
	fmt.Printf("Imported %d transactions (%d already present), %d notifications into %s\n",
		inserted, skipped, len(seed.Notifications), *dbPath)
}
