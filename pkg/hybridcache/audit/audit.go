// Package audit persists degradation events to a local SQLite database,
// giving the notify package's bounded in-memory ring a durable history that
// survives process restarts and can be queried past the ring's retention
// window, up to monitoring.retention_days.
package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/alfredw/shadcn-ui-mcp-server-sub001/pkg/hybridcache/notify"
)

// EventRecord is the durable row shape for one notify.Event. EventID is the
// UUID Notify assigned the event, distinct from the row's own primary key.
type EventRecord struct {
	ID        uint      `gorm:"primaryKey"`
	EventID   string    `gorm:"size:36;index"`
	Type      string    `gorm:"size:64;index"`
	Severity  string    `gorm:"size:16"`
	Tier      string    `gorm:"size:64;index"`
	Message   string    `gorm:"type:text"`
	Timestamp time.Time `gorm:"index"`
}

func (EventRecord) TableName() string { return "degraded_events" }

// Store is a GORM-backed SQLite append log for degradation events.
type Store struct {
	db *gorm.DB
}

// Open creates (if needed) and migrates a SQLite database at path, with
// WAL/busy-timeout pragmas for concurrent access.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit db directory: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}

	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, fmt.Errorf("migrate audit db: %w", err)
	}

	return &Store{db: db}, nil
}

// Record appends evt to the log.
func (s *Store) Record(ctx context.Context, evt notify.Event) error {
	return s.db.WithContext(ctx).Create(&EventRecord{
		EventID:   evt.ID,
		Type:      string(evt.Type),
		Severity:  evt.Severity.String(),
		Tier:      evt.Tier,
		Message:   evt.Message,
		Timestamp: evt.Timestamp,
	}).Error
}

// Since returns every recorded event with Timestamp >= since, oldest first.
func (s *Store) Since(ctx context.Context, since time.Time) ([]EventRecord, error) {
	var out []EventRecord
	err := s.db.WithContext(ctx).Where("timestamp >= ?", since).Order("timestamp asc").Find(&out).Error
	return out, err
}

// Prune deletes every recorded event older than before, implementing
// monitoring.retention_days.
func (s *Store) Prune(ctx context.Context, before time.Time) error {
	return s.db.WithContext(ctx).Where("timestamp < ?", before).Delete(&EventRecord{}).Error
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
