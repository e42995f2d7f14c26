// Package storage persists the optional session log: client join/leave
// events and chat traffic. The link itself keeps no persistent state;
// this adapter only exists when a database path is configured.
package storage

import (
	"fmt"
	"log"
	"net"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/mjwells2002/foa-dswifi/internal/core/domain"
	"github.com/mjwells2002/foa-dswifi/internal/core/ports"
)

// SQLiteAdapter implements ports.SessionStore using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// SessionEventModel is the GORM model for join/leave events.
type SessionEventModel struct {
	ID   uint `gorm:"primaryKey;autoIncrement"`
	At   time.Time
	Kind string
	MAC  string `gorm:"column:mac;index"`
}

func (SessionEventModel) TableName() string { return "session_events" }

// ChatMessageModel is the GORM model for chat lines.
type ChatMessageModel struct {
	ID      string `gorm:"primaryKey"`
	At      time.Time
	FromMAC string `gorm:"index"`
	FromAID uint16
	Body    []byte
}

func (ChatMessageModel) TableName() string { return "chat_messages" }

// NewSQLiteAdapter opens (or creates) the session log at path.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		log.Printf("Warning: gorm tracing plugin unavailable: %v", err)
	}

	if err := db.AutoMigrate(&SessionEventModel{}, &ChatMessageModel{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}

	return &SQLiteAdapter{db: db}, nil
}

func (s *SQLiteAdapter) LogEvent(kind string, mac net.HardwareAddr, at time.Time) error {
	return s.db.Create(&SessionEventModel{At: at, Kind: kind, MAC: mac.String()}).Error
}

func (s *SQLiteAdapter) LogMessage(from net.HardwareAddr, aid domain.AID, body []byte, at time.Time) error {
	return s.db.Create(&ChatMessageModel{
		ID:      uuid.NewString(),
		At:      at,
		FromMAC: from.String(),
		FromAID: uint16(aid),
		Body:    append([]byte(nil), body...),
	}).Error
}

func (s *SQLiteAdapter) RecentMessages(n int) ([]ports.StoredMessage, error) {
	var rows []ChatMessageModel
	if err := s.db.Order("at desc").Limit(n).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]ports.StoredMessage, 0, len(rows))
	for _, row := range rows {
		out = append(out, ports.StoredMessage{
			ID:      row.ID,
			At:      row.At,
			FromMAC: row.FromMAC,
			FromAID: row.FromAID,
			Body:    row.Body,
		})
	}
	return out, nil
}

func (s *SQLiteAdapter) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
