package database

import (
	"context"
	"fmt"
	"site-inventory/internal/config"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewMySQL opens the site store and checks it answers within five seconds.
func NewMySQL(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// Connection pool settings
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql %s:%s: %w", cfg.DBHost, cfg.DBPort, err)
	}

	return db, nil
}
