package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"prompt-forge/server/internal/config"
	"prompt-forge/server/internal/interfaces"
	"prompt-forge/server/internal/models"
)

const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// HistoryStore records successful generations in a SQL database.
type HistoryStore struct {
	db *gorm.DB
}

func NewHistoryStore(cfg config.HistoryConfig) (*HistoryStore, error) {
	dialector, err := historyDialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if cfg.Driver == "mysql" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(&models.Generation{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history: %w", err)
	}

	return &HistoryStore{db: db}, nil
}

func historyDialector(cfg config.HistoryConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		dsn := cfg.DSN
		if cfg.MySQL.Host != "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				cfg.MySQL.Username,
				cfg.MySQL.Password,
				cfg.MySQL.Host,
				cfg.MySQL.Port,
				cfg.MySQL.Database,
			)
		}
		return mysql.Open(dsn), nil
	case "sqlite", "":
		if !strings.HasPrefix(cfg.DSN, "file:") {
			if dir := filepath.Dir(cfg.DSN); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("failed to create history directory: %w", err)
				}
			}
		}
		return sqlite.Open(cfg.DSN), nil
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", cfg.Driver)
	}
}

func (s *HistoryStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Record inserts a generation
func (s *HistoryStore) Record(ctx context.Context, rec *interfaces.GenerationRecord) error {
	row := &models.Generation{
		Keywords:         rec.Keywords,
		NegativeKeywords: rec.NegativeKeywords,
		Style:            rec.Style,
		PositivePrompt:   rec.PositivePrompt,
		NegativePrompt:   rec.NegativePrompt,
		SamplingMethod:   rec.SamplingMethod,
		Scheduler:        rec.Scheduler,
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// Recent returns up to limit generations, newest first
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]models.Generation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var rows []models.Generation
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	return rows, nil
}
