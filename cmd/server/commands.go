package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aman-churiwal/getyoursite/internal/circuitbreaker"
	"github.com/aman-churiwal/getyoursite/internal/config"
	"github.com/aman-churiwal/getyoursite/internal/logging"
	"github.com/aman-churiwal/getyoursite/internal/notify"
	"github.com/aman-churiwal/getyoursite/internal/server"
	"github.com/aman-churiwal/getyoursite/internal/service"
	"github.com/aman-churiwal/getyoursite/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const shutdownTimeout = 15 * time.Second

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "getyoursite",
		Short:         "Backend for the GetYourSite landing page and admin panel.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("GYS_CONFIG"), "config file (YAML); defaults to $GYS_CONFIG")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE:  runMigrate,
		},
		newInboxCmd(),
		&cobra.Command{
			Use:   "hash-password <password>",
			Short: "Print a bcrypt hash usable as auth.admin_password_hash",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(hash))
				return nil
			},
		},
	)

	return cmd
}

func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func openPostgres(cfg *config.Config, logger *zap.Logger) (*storage.Postgres, error) {
	postgres, err := storage.NewPostgres(cfg.Database.DSN, storage.PostgresOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	if err := postgres.AutoMigrate(); err != nil {
		_ = postgres.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("connected to postgres")
	return postgres, nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	postgres, err := openPostgres(cfg, logger)
	if err != nil {
		return err
	}
	defer postgres.Close()

	logger.Info("database schema is up to date")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	postgres, err := openPostgres(cfg, logger)
	if err != nil {
		return err
	}
	defer postgres.Close()

	var redis *storage.RedisClient
	if cfg.Redis.Enabled {
		redis, err = storage.NewRedis(cfg.Redis.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer redis.Close()
		logger.Info("connected to redis", zap.String("addr", cfg.Redis.GetRedisAddr()))
	}

	notifier, breaker, err := buildNotifier(cfg.Mail, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Config:      cfg,
		Postgres:    postgres,
		Redis:       redis,
		Notifier:    notifier,
		MailBreaker: breaker,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if err := srv.EnsureAdmin(cmd.Context()); err != nil {
		if !errors.Is(err, service.ErrNoAdminCredentials) {
			return fmt.Errorf("failed to seed admin account: %w", err)
		}
		logger.Warn("no admin account configured; set auth.admin_password or auth.admin_password_hash")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(":" + cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func buildNotifier(cfg config.MailConfig, logger *zap.Logger) (notify.Notifier, *circuitbreaker.CircuitBreaker, error) {
	if !cfg.Enabled() {
		logger.Info("mail not configured, contact notifications are disabled")
		return notify.Nop{}, nil, nil
	}

	mailer, err := notify.NewMailer(notify.MailerConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
		From:     cfg.From,
		To:       cfg.To,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}

	mailLog := logger.Named("mail")
	breaker := circuitbreaker.New(circuitbreaker.Config{
		MaxFailures: 5,
		Timeout:     30 * time.Second,
		OnStateChange: func(from, to circuitbreaker.State) {
			mailLog.Warn("mail circuit breaker changed state",
				zap.Stringer("from", from),
				zap.Stringer("to", to))
		},
	})

	return notify.WithBreaker(mailer, breaker), breaker, nil
}
