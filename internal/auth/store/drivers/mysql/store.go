// Package mysql implements store.Accounts over the AzerothCore acore_auth
// database with gorm.
package mysql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/realmauth/internal/auth/store"
	driver "github.com/go-sql-driver/mysql"
	"github.com/samber/oops"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config locates the auth database.
type Config struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	User         string        `koanf:"user"`
	Password     string        `koanf:"password"`
	Database     string        `koanf:"database"`
	MaxOpenConns int           `koanf:"max_open_conns"`
	SlowQuery    time.Duration `koanf:"slow_query"`
}

// DSN renders the go-sql-driver connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database,
	)
}

type Store struct {
	db *gorm.DB
}

var _ store.Accounts = (*Store)(nil)

// Open connects to the database described by cfg.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	if cfg.Host == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("mysql: empty host")
	}

	st, err := OpenDSN(cfg.DSN(), logger, cfg.SlowQuery)
	if err != nil {
		return nil, oops.Code("ACCOUNT_DB_UNAVAILABLE").
			With("host", cfg.Host).
			With("database", cfg.Database).
			Wrap(err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB, err := st.db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	return st, nil
}

// OpenDSN connects with a raw DSN. Used by tests against a container.
func OpenDSN(dsn string, logger *slog.Logger, slowQuery time.Duration) (*Store, error) {
	parsed, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	// Report matched rows, not changed rows, so rewriting identical values
	// is not mistaken for a missing account.
	parsed.ClientFoundRows = true
	parsed.ParseTime = true

	db, err := gorm.Open(mysql.Open(parsed.FormatDSN()), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 NewGormLogger(logger, slowQuery),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
