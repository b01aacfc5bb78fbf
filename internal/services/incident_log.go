package services

import (
	"driverless-backend/internal/models"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IncidentLog is the append-only audit trail of control unit decisions.
//
// Reading is destructive: Drain hands back every entry, most recent first,
// and empties the log. Callers that need to keep entries around must copy
// them elsewhere (see the batch archiver).
//
// IncidentLog is not safe for concurrent use; the ControlUnit serializes access.
type IncidentLog struct {
	entries []models.LogEntry
	outbox  []models.LogEntry
	now     func() time.Time
}

func NewIncidentLog() *IncidentLog {
	return &IncidentLog{
		now: time.Now,
	}
}

// Append timestamps message and pushes it on top of the log.
func (l *IncidentLog) Append(message string) models.LogEntry {
	entry := models.LogEntry{
		ID:        uuid.NewString(),
		Message:   message,
		Timestamp: l.now(),
	}
	l.entries = append(l.entries, entry)
	l.outbox = append(l.outbox, entry)
	return entry
}

func (l *IncidentLog) Appendf(format string, args ...any) models.LogEntry {
	return l.Append(fmt.Sprintf(format, args...))
}

// Drain pops every entry, last in first out. A second call with no
// intervening Append returns an empty slice.
func (l *IncidentLog) Drain() []models.LogEntry {
	drained := make([]models.LogEntry, 0, len(l.entries))
	for i := len(l.entries) - 1; i >= 0; i-- {
		drained = append(drained, l.entries[i])
	}
	l.entries = l.entries[:0]
	return drained
}

// Len returns the number of undrained entries.
func (l *IncidentLog) Len() int {
	return len(l.entries)
}

// takeOutbox returns the entries appended since the previous call, in
// append order. Draining does not affect the outbox.
func (l *IncidentLog) takeOutbox() []models.LogEntry {
	if len(l.outbox) == 0 {
		return nil
	}
	out := l.outbox
	l.outbox = nil
	return out
}
