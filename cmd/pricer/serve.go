package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"optionpricer/internal/calculator"
	"optionpricer/internal/database"
	"optionpricer/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pricer over HTTP and websocket",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Listen address, overrides server.addr.")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, os.Stderr)

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo database.Repository = database.NopRepository{}
	if cfg.Database.Enabled {
		pg, err := database.NewPostgresRepository(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		logger.Info("Quote storage enabled", "host", cfg.Database.Host, "dbname", cfg.Database.DBName)
		repo = pg
	}

	calc := calculator.NewCalculator(logger, repo, &cfg)
	return server.NewServer(logger, calc, cfg.Server).Run(ctx)
}
