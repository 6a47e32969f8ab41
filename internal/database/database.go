// Package database opens the Postgres connections and owns the schema:
// versioned SQL migrations plus the GORM model registry.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"viralpik/internal/config"
	"viralpik/internal/middleware"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	slowQueryThreshold = 200 * time.Millisecond
	applicationName    = "viralpik-api"
)

// ReadDB is the read replica, or nil when DB_READ_HOST is unset or the
// replica could not be reached at startup.
var ReadDB *gorm.DB

// queryLogger sends GORM output through slog so query records carry the
// request and trace ids.
type queryLogger struct {
	level logger.LogLevel
	slow  time.Duration
}

func (l queryLogger) LogMode(level logger.LogLevel) logger.Interface {
	l.level = level
	return l
}

func (l queryLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, logger.Info, slog.LevelInfo, msg, args)
}

func (l queryLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, logger.Warn, slog.LevelWarn, msg, args)
}

func (l queryLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, logger.Error, slog.LevelError, msg, args)
}

func (l queryLogger) log(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, args []interface{}) {
	if l.level >= min {
		middleware.Logger.Log(ctx, level, fmt.Sprintf(msg, args...), slog.String("component", "gorm"))
	}
}

// Trace logs failed queries at error, slow ones at warn and, only at the
// Info level, everything else.
func (l queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var level slog.Level
	var msg string
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		level, msg = slog.LevelError, "query failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		level, msg = slog.LevelWarn, "slow query"
	case l.level >= logger.Info:
		level, msg = slog.LevelDebug, "query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []slog.Attr{
		slog.String("component", "gorm"),
		slog.String("sql", sql),
		slog.Int64("rows", rows),
		slog.Duration("elapsed", elapsed),
	}
	if level == slog.LevelError {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	middleware.Logger.LogAttrs(ctx, level, msg, attrs...)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         queryLogger{level: logger.Warn, slow: slowQueryThreshold},
		TranslateError: true,
	}
}

// DSN renders a Postgres connection URL. Credentials are escaped, so
// passwords may contain any character.
func DSN(host, port, user, password, name, sslMode string) string {
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("application_name", applicationName)
	u.RawQuery = q.Encode()
	return u.String()
}

// Connect opens the primary and, when configured, the read replica. A
// replica that fails to open is logged and reads stay on the primary.
// Schema changes are applied separately by ApplySchema.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := open(DSN(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode), cfg)
	if err != nil {
		return nil, fmt.Errorf("connect primary %s: %w", cfg.DBHost, err)
	}
	middleware.Logger.Info("database connected", slog.String("host", cfg.DBHost), slog.String("name", cfg.DBName))

	ReadDB = nil
	if cfg.DBReadHost == "" {
		return db, nil
	}
	replica, err := open(DSN(cfg.DBReadHost, cfg.DBReadPort, cfg.DBReadUser, cfg.DBReadPassword, cfg.DBName, cfg.DBSSLMode), cfg)
	if err != nil {
		middleware.Logger.Warn("read replica unavailable", slog.String("host", cfg.DBReadHost), slog.String("error", err.Error()))
		return db, nil
	}
	ReadDB = replica
	middleware.Logger.Info("read replica connected", slog.String("host", cfg.DBReadHost))
	return db, nil
}

func open(dsn string, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}
	if err := configurePool(db, cfg); err != nil {
		return nil, err
	}
	return db, nil
}

// Reader returns the replica when one is connected, else primary.
func Reader(primary *gorm.DB) *gorm.DB {
	if ReadDB != nil {
		return ReadDB
	}
	return primary
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

func configurePool(db *gorm.DB, cfg *config.Config) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("access sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(orDefault(cfg.DBMaxOpenConns, 25))
	sqlDB.SetMaxIdleConns(orDefault(cfg.DBMaxIdleConns, 5))
	sqlDB.SetConnMaxLifetime(orDefault(time.Duration(cfg.DBConnMaxLifetimeMinutes)*time.Minute, 5*time.Minute))
	return nil
}
