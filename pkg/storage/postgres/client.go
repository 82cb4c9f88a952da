package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"stockstream/config"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresClient wraps a GORM connection for queries and row inserts, plus a
// raw lib/pq connection reserved for COPY bulk loads.
type PostgresClient struct {
	DB     *gorm.DB
	copyDB *sql.DB
}

func NewClient(dsn string, cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// Separate pq connection for the COPY protocol path.
	copyDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open copy connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		copyDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	return &PostgresClient{DB: db, copyDB: copyDB}, nil
}

// InitializeAndMigrateTradeRecord connects to Postgres, optionally creates the DB,
// and runs AutoMigrate.
func InitializeAndMigrateTradeRecord(cfg config.PostgresConfig, createDB bool, env string) (*PostgresClient, error) {
	if createDB {
		if err := CreateDatabase(cfg, env); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	client, err := NewClient(cfg.DSN(env), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := client.AutoMigrateTradeRecord(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) AutoMigrateTradeRecord() error {
	if err := p.DB.AutoMigrate(&TradeRecord{}); err != nil {
		return fmt.Errorf("auto-migrate stock_trades table: %w", err)
	}
	return nil
}

func (p *PostgresClient) IsHealthy(ctx context.Context) bool {
	db, err := p.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (p *PostgresClient) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	if cerr := p.copyDB.Close(); cerr != nil {
		return fmt.Errorf("failed to close copy connection: %w", cerr)
	}
	return db.Close()
}
