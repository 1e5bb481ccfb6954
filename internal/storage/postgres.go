package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingsModel maps to the pet_settings table.
type settingsModel struct {
	Name      string `gorm:"primaryKey"`
	Data      string `gorm:"type:jsonb;not null"`
	UpdatedAt time.Time
}

func (settingsModel) TableName() string {
	return "pet_settings"
}

// PostgresStore keeps one named settings row in PostgreSQL.
type PostgresStore struct {
	db   *gorm.DB
	name string
}

// OpenPostgres connects to databaseURL and returns a store for the named settings row.
func OpenPostgres(ctx context.Context, databaseURL, name string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStore(db, name), nil
}

// NewPostgresStore wraps an open gorm handle.
func NewPostgresStore(db *gorm.DB, name string) *PostgresStore {
	return &PostgresStore{db: db, name: keyOrDefault(name)}
}

// Migrate creates or updates the settings table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&settingsModel{}); err != nil {
		return fmt.Errorf("failed to migrate settings table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	var record settingsModel
	err := s.db.WithContext(ctx).Where("name = ?", s.name).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	return []byte(record.Data), nil
}

func (s *PostgresStore) Save(ctx context.Context, data []byte) error {
	record := settingsModel{Name: s.name, Data: string(data), UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
