// Файл: internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"mycase/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Направления миграций для команды `mycase migrate`.
// Migration directions used by `mycase migrate`.
const (
	MigrateUp   = "up"
	MigrateDown = "down"
)

// Open открывает пул соединений с PostgreSQL и ждет, пока база станет доступна.
// Open opens the PostgreSQL pool and waits until the database answers a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*sqlx.DB, error) {
	if cfg.URL == "" {
		return nil, errors.New("DATABASE_URL не установлена")
	}

	db, err := sqlx.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// База в docker-compose поднимается дольше приложения.
	// The database container usually starts after the app.
	err = retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectAttempts),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn("database is not ready, retrying", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ошибка проверки соединения с базой данных: %w", err)
	}

	log.Info("connected to database",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns))
	return db, nil
}

// Close закрывает пул соединений.
func Close(db *sqlx.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		log.Error("error closing database connection", zap.Error(err))
		return
	}
	log.Info("database connection closed")
}

// Migrate применяет встроенные SQL-миграции. "down" откатывает ровно один шаг.
// Migrate applies the embedded SQL migrations. "down" rolls back exactly one step.
func Migrate(db *sql.DB, direction string, log *zap.Logger) error {
	if db == nil {
		return errors.New("database connection is nil, cannot apply migrations")
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres migration driver: %w", err)
	}
	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	switch direction {
	case MigrateUp:
		err = migrator.Up()
	case MigrateDown:
		err = migrator.Steps(-1)
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("no database migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply migrations (%s): %w", direction, err)
	}

	version, dirty, verr := migrator.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", verr)
	}
	log.Info("database migrations applied",
		zap.String("direction", direction),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// Store - слой доступа к данным поверх sqlx. Каждая запись идет в своей транзакции.
// Store is the sqlx data access layer. Every write runs in its own transaction.
type Store struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewStore(db *sqlx.DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

// Ping проверяет соединение (используется /healthz).
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Analyze обновляет статистику планировщика по рабочим таблицам.
// Analyze refreshes planner statistics for the working tables.
func (s *Store) Analyze(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "ANALYZE orders, designs, bot_users"); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

// inTx выполняет fn в транзакции; откат при ошибке, коммит при успехе.
// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error("transaction rollback failed", zap.Error(rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
