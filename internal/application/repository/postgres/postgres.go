// Package postgres implements C3: the relational store gateway backing
// documents, golden routes/answers, the knowledge graph, user memory,
// sessions, and ratings. Connection setup follows the teacher's
// gorm.DB-over-pgx convention; query shape follows the teacher's
// repository package (Where/First/Create/Save, gorm.ErrRecordNotFound
// mapped to a typed not-found error).
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Balizero1987/ayo-sub004/internal/config"
	"github.com/Balizero1987/ayo-sub004/internal/types"
)

// Open establishes a pooled GORM connection against Postgres, applying
// the configured pool bounds (§4.3: min 1 / max configurable connections).
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("postgres: missing database url: %w", types.ErrInputInvalid)
	}

	db, err := gorm.Open(postgres.Open(cfg.URL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w: %v", types.ErrTransport, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("postgres: acquire pool: %w: %v", types.ErrTransport, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)

	return db, nil
}
