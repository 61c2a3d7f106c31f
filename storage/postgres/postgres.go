package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/pitabwire/userlocale/storage"
)

// Entry is one row of the key value table. Rows are scoped by namespace so
// several stores can share the table.
type Entry struct {
	Namespace string `gorm:"primaryKey;type:varchar(100)"`
	Key       string `gorm:"primaryKey;type:varchar(255)"`
	Value     []byte `gorm:"type:bytea;not null"`
	UpdatedAt time.Time
}

// TableName pins the table regardless of gorm naming strategy.
func (Entry) TableName() string {
	return "kv_entries"
}

// Store is a Postgres-backed store built on gorm.
type Store struct {
	db        *gorm.DB
	namespace string
}

const connectionTimeout = 5 * time.Second

// New opens the database named by a postgres:// DSN and migrates the entry table.
func New(ctx context.Context, opts ...storage.Option) (storage.RawStore, error) {
	storeOpts := storage.NewOptions(opts...)

	db, err := gorm.Open(
		postgres.New(postgres.Config{
			DSN:                  storeOpts.DSN.String(),
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger:                 logger.Default.LogMode(logger.Silent),
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()

	if err = sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	if err = db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Store{
		db:        db,
		namespace: storeOpts.Name,
	}, nil
}

// Get retrieves an item from the table.
func (ps *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var entry Entry
	err := ps.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", ps.namespace, key).
		Take(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if entry.Value == nil {
		entry.Value = []byte{}
	}
	return entry.Value, true, nil
}

// Set upserts an item.
func (ps *Store) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	entry := Entry{
		Namespace: ps.namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	return ps.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

// Delete removes an item from the table.
func (ps *Store) Delete(ctx context.Context, key string) error {
	return ps.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", ps.namespace, key).
		Delete(&Entry{}).Error
}

// Exists checks if a key exists in the table.
func (ps *Store) Exists(ctx context.Context, key string) (bool, error) {
	var count int64
	err := ps.db.WithContext(ctx).
		Model(&Entry{}).
		Where("namespace = ? AND key = ?", ps.namespace, key).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Close closes the underlying connection pool.
func (ps *Store) Close() error {
	sqlDB, err := ps.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
