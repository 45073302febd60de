// Command adminctl provisions admin accounts directly against Postgres.
//
//	adminctl create <name>
//	adminctl lock <name>
//	adminctl unlock [-reset-password] <name>
//
// Passwords are read from stdin, twice.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"wastereport/internal/accounts"
	"wastereport/internal/config"
	"wastereport/internal/schema"
	"wastereport/pkg/logger"
	"wastereport/pkg/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadDB()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)
	ctx = logger.With(ctx, log)

	db, err := utils.OpenPostgres(ctx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := schema.Apply(ctx, db); err != nil {
			log.Error("schema apply failed", "err", err)
			os.Exit(1)
		}
	}

	prov := accounts.NewProvisioner(accounts.NewPostgresRepo(db), accounts.BcryptHasher{})
	if err := cmd.exec(ctx, prov, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "adminctl:", err)
		os.Exit(1)
	}
}
