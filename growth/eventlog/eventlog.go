package eventlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/postloop/growthd/models"

	"gorm.io/gorm"
)

// Append-only sink for structured audit events.
type EventLog interface {
	Emit(ctx context.Context, kind string, payload map[string]any) error
}

type GormEventLog struct {
	DB *gorm.DB
}

var _ EventLog = (*GormEventLog)(nil)

func NewGormEventLog(db *gorm.DB) *GormEventLog {
	return &GormEventLog{DB: db}
}

func (l *GormEventLog) Emit(ctx context.Context, kind string, payload map[string]any) error {
	evt := models.AuditEvent{
		CreatedAt: time.Now().UTC(),
		Kind:      kind,
		Payload:   payload,
	}
	if err := l.DB.WithContext(ctx).Create(&evt).Error; err != nil {
		return fmt.Errorf("writing %s audit event: %w", kind, err)
	}
	return nil
}

type MemEventLog struct {
	mu     sync.Mutex
	Events []models.AuditEvent
}

var _ EventLog = (*MemEventLog)(nil)

func NewMemEventLog() *MemEventLog {
	return &MemEventLog{}
}

func (l *MemEventLog) Emit(ctx context.Context, kind string, payload map[string]any) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Events = append(l.Events, models.AuditEvent{
		ID:        uint(len(l.Events) + 1),
		CreatedAt: time.Now().UTC(),
		Kind:      kind,
		Payload:   payload,
	})
	return nil
}

func (l *MemEventLog) Kinds() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.Events))
	for i, e := range l.Events {
		out[i] = e.Kind
	}
	return out
}
