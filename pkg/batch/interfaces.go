package batch

import (
	"context"
	"driverless-backend/internal/models"
	"errors"
	"time"
)

// IncidentStore persists archived incident log entries.
type IncidentStore interface {
	InsertIncidents(ctx context.Context, entries []models.LogEntry) error
	InsertIncident(ctx context.Context, entry models.LogEntry) error
}

// BatchStats provides statistics about archiving.
type BatchStats struct {
	BatchesProcessed int           `json:"batchesProcessed"`
	AverageSize      float64       `json:"averageSize"`
	ProcessingTime   time.Duration `json:"processingTime"`
	ErrorRate        float64       `json:"errorRate"`
	TotalEntries     int64         `json:"totalEntries"`
	FailedEntries    int64         `json:"failedEntries"`
	DroppedEntries   int64         `json:"droppedEntries"`
	LastProcessedAt  time.Time     `json:"lastProcessedAt"`
}

type BatchConfig struct {
	MaxBatchSize  int           `json:"maxBatchSize"`
	BatchInterval time.Duration `json:"batchInterval"`
	QueueSize     int           `json:"queueSize"`
	RetryAttempts int           `json:"retryAttempts"`
	RetryBackoff  time.Duration `json:"retryBackoff"`
}

var (
	ErrInvalidBatchSize     = errors.New("invalid batch size: must be greater than 0")
	ErrInvalidBatchInterval = errors.New("invalid batch interval: must be greater than 0")
	ErrInvalidQueueSize     = errors.New("invalid queue size: must be greater than 0")
	ErrInvalidRetryAttempts = errors.New("invalid retry attempts: must be greater than or equal to 0")
	ErrInvalidRetryBackoff  = errors.New("invalid retry backoff: must be greater than or equal to 0")
)
