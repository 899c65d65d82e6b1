package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mycase/internal/api"
	"mycase/internal/config"
	"mycase/internal/db"
	"mycase/internal/handlers"
	"mycase/internal/logger"
	"mycase/internal/notifier"
	"mycase/internal/scheduler"
	"mycase/internal/session"
	"mycase/internal/telegram_api"
	"mycase/internal/uploads"
	"mycase/internal/utils"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot, the HTTP API and the scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runServe(cmd.Context(), configPath)
		},
	}
}

// loadRuntime - общая инициализация команд: конфигурация и логгер.
func loadRuntime(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("не удалось создать логгер: %w", err)
	}
	return cfg, log, nil
}

// newSessionStore выбирает хранилище состояний диалога. close освобождает соединения.
func newSessionStore(ctx context.Context, cfg config.SessionConfig, log *zap.Logger) (session.Store, func(), error) {
	switch cfg.Backend {
	case "redis":
		rs, err := session.NewRedisStore(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, nil, err
		}
		log.Info("sessions stored in redis", zap.Duration("ttl", cfg.TTL))
		return rs, func() {
			if err := rs.Close(); err != nil {
				log.Warn("error closing redis", zap.Error(err))
			}
		}, nil
	default:
		log.Info("sessions stored in memory")
		return session.NewMemoryStore(), func() {}, nil
	}
}

func runServe(parent context.Context, configPath string) error {
	cfg, log, err := loadRuntime(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Блок инициализации ---
	sqlDB, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close(sqlDB, log)

	if err := db.Migrate(sqlDB.DB, db.MigrateUp, log); err != nil {
		return fmt.Errorf("не удалось применить миграции: %w", err)
	}
	store := db.NewStore(sqlDB, log)

	sessions, closeSessions, err := newSessionStore(ctx, cfg.Session, log)
	if err != nil {
		return fmt.Errorf("не удалось подключить хранилище сессий: %w", err)
	}
	defer closeSessions()

	client, err := telegram_api.NewBotClient(cfg.Telegram, log)
	if err != nil {
		return fmt.Errorf("не удалось инициализировать Telegram бота: %w", err)
	}
	if cfg.Telegram.BotUsername == "" {
		cfg.Telegram.BotUsername = client.Username()
	}

	quote, err := utils.NewQuote(cfg.Pricing)
	if err != nil {
		return fmt.Errorf("некорректные цены: %w", err)
	}

	botHandler := handlers.NewBotHandler(handlers.HandlerDependencies{
		Config:   cfg,
		Replier:  client,
		Sessions: sessions,
		Store:    store,
		Log:      log,
		Quote:    quote,
	})

	staff := notifier.New(client, cfg.Telegram.StaffChatID, cfg.Telegram.NotifyTimeout, log)

	storage, err := uploads.NewStorage(cfg.HTTP.UploadDir)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewRouter(api.ApiDependencies{
			Config:   cfg,
			Store:    store,
			Notifier: staff,
			Uploads:  storage,
			Log:      log,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	sched, err := scheduler.New(log, cfg.Scheduler, scheduler.Registry(scheduler.TaskDeps{
		Store:    store,
		Notifier: staff,
		Log:      log,
	}))
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	// Long polling: канал закрывается после StopUpdates.
	g.Go(func() error {
		updates, err := client.Updates(cfg.Telegram.PollTimeout)
		if err != nil {
			return err
		}
		log.Info("bot started", zap.String("username", cfg.Telegram.BotUsername))
		return botHandler.Run(gctx, updates)
	})

	g.Go(func() error {
		log.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sched.Run(gctx)
	})

	// Остановка: сигнал или падение любого компонента.
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		client.StopUpdates()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err = g.Wait()
	botHandler.Wait()
	log.Info("stopped")
	return err
}
