package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"dreambid/internal/config"
	"dreambid/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

// New opens the configured database and verifies the connection
func New(cfg config.DatabaseConfig) (*GormDB, error) {
	var (
		dialector gorm.Dialector
		err       error
	)
	switch cfg.Type {
	case "mysql":
		dialector = mysqlDialector(cfg.MySQL)
	case "postgres":
		dialector, err = postgresDialector(cfg.Postgres)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, GormConfig(cfg.LogSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Type, err)
	}

	log.Printf("Database: connected (%s)", cfg.Type)
	return &GormDB{db: db}, nil
}

// GormConfig returns the gorm settings shared by every dialect. Timestamps
// are always written in UTC.
func GormConfig(logSQL bool) *gorm.Config {
	level := logger.Warn
	if logSQL {
		level = logger.Info
	}
	return &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the store is reachable
func (gdb *GormDB) Ping(ctx context.Context) error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	if err := gdb.db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
