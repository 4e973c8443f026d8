package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"showup-backend/internal/config"
	"showup-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Open connects to the configured database and migrates the schema. The
// returned func releases every resource Open acquired.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, func(), error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := OpenSQLite(cfg.Path, cfg.LogSQL)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { closeDB(db) }, nil
	default:
		return OpenPostgres(ctx, cfg)
	}
}

// OpenPostgres opens a pgx pool and hands it to gorm
func OpenPostgres(ctx context.Context, cfg config.DatabaseConfig) (*gorm.DB, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), gormConfig(cfg.LogSQL))
	if err != nil {
		sqlDB.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("failed to open gorm: %w", err)
	}

	if err := Migrate(db); err != nil {
		sqlDB.Close()
		pool.Close()
		return nil, nil, err
	}

	return db, func() {
		sqlDB.Close()
		pool.Close()
	}, nil
}

// OpenSQLite opens (or creates) a SQLite database. dsn may be a file path
// or a full "file:" URI such as an in-memory database.
func OpenSQLite(dsn string, logSQL bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(logSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
	}
	// SQLite has a single writer; one connection keeps transactions serialized
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		closeDB(db)
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Genre{},
		&models.Squad{},
		&models.User{},
		&models.Concert{},
		&models.SquadInterest{},
		&models.SquadGoing{},
		&models.Swipe{},
		&models.JoinRequest{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}

func gormConfig(logSQL bool) *gorm.Config {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	return &gorm.Config{
		Logger:         &zerologGorm{level: level, slowThreshold: 200 * time.Millisecond},
		TranslateError: true,
		// Referential integrity is maintained by the services
		DisableForeignKeyConstraintWhenMigrating: true,
	}
}

// zerologGorm routes gorm's logging into the global zerolog logger
type zerologGorm struct {
	level         logger.LogLevel
	slowThreshold time.Duration
}

func (l *zerologGorm) LogMode(level logger.LogLevel) logger.Interface {
	return &zerologGorm{level: level, slowThreshold: l.slowThreshold}
}

func (l *zerologGorm) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		log.Info().Msgf(msg, args...)
	}
}

func (l *zerologGorm) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		log.Warn().Msgf(msg, args...)
	}
}

func (l *zerologGorm) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		log.Error().Msgf(msg, args...)
	}
}

func (l *zerologGorm) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	var event *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		event = log.Error().Err(err)
	case elapsed > l.slowThreshold && l.level >= logger.Warn:
		event = log.Warn().Bool("slow", true)
	case l.level >= logger.Info:
		event = log.Debug()
	default:
		return
	}

	sql, rows := fc()
	event.Dur("elapsed", elapsed).Int64("rows", rows).Str("sql", sql).Msg("SQL")
}
