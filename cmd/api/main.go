package main

import (
	"context"
	"errors"
	"fmt"
	"food-storefront/internal/config"
	"food-storefront/internal/server"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Food storefront API",
		SilenceUsage:  true,
	}

	root.AddCommand(
		newServeCmd(),
		newReportCmd(),
		newSeedCmd(),
		newHashPasswordCmd(),
	)
	return root
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, nil, fmt.Errorf("parse config: %w", err)
	}

	logger := cfg.Log.NewLogger(os.Stdout).With(slog.String("env", cfg.Environment.Name))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the daily report scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var wg sync.WaitGroup
			if err := a.startBridge(ctx, &wg); err != nil {
				return err
			}

			sched, err := a.newScheduler()
			if err != nil {
				return err
			}
			sched.Start()
			logger.Info("daily report scheduled",
				slog.String("schedule", cfg.Report.Schedule),
				slog.Time("next_run", sched.Next()),
			)

			srv := server.NewServer(a.services, a.hub, logger)
			serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

			logger.Info("starting HTTP server", slog.String("addr", serverAddr))
			serverErr := make(chan error, 1)
			go func() {
				if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info("signal received, starting graceful shutdown")
			case err := <-serverErr:
				logger.Error("HTTP server error", slog.Any("error", err))
				stop()
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.Any("error", err))
			}
			if err := sched.Stop(shutdownCtx); err != nil {
				logger.Error("scheduler shutdown error", slog.Any("error", err))
			}
			wg.Wait()
			return nil
		},
	}
}

func newReportCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and store the daily report now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			if date != "" {
				day, err := time.ParseInLocation(time.DateOnly, date, a.services.Report.Location())
				if err != nil {
					return fmt.Errorf("parse date: %w", err)
				}
				report, err := a.services.Report.Calculate(cmd.Context(), day)
				if err != nil {
					return err
				}
				logger.Info("report calculated", slog.Any("report", report))
				return nil
			}

			report, err := a.services.Report.GenerateAndSave(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("report saved", slog.String("date", report.Date), slog.Uint64("id", uint64(report.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "calculate a past day (YYYY-MM-DD) without saving")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default product catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			a, err := newApp(cfg, logger)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.services.Product.Seed(cmd.Context()); err != nil {
				return err
			}
			logger.Info("products seeded")
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}
