package batch

import (
	"driverless-backend/internal/config"
	"time"
)

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		MaxBatchSize:  50,
		BatchInterval: 5 * time.Second,
		QueueSize:     1024,
		RetryAttempts: 3,
		RetryBackoff:  500 * time.Millisecond,
	}
}

// ConfigFromArchive builds the archiver settings from the service config.
func ConfigFromArchive(cfg config.ArchiveConfig) BatchConfig {
	bc := DefaultBatchConfig()
	bc.MaxBatchSize = cfg.BatchSize
	bc.BatchInterval = cfg.FlushInterval
	bc.RetryAttempts = cfg.RetryAttempts
	bc.RetryBackoff = cfg.RetryBackoff
	if bc.QueueSize < bc.MaxBatchSize*4 {
		bc.QueueSize = bc.MaxBatchSize * 4
	}
	return bc
}

func ValidateConfig(bc BatchConfig) error {
	if bc.MaxBatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if bc.BatchInterval <= 0 {
		return ErrInvalidBatchInterval
	}
	if bc.QueueSize <= 0 {
		return ErrInvalidQueueSize
	}
	if bc.RetryAttempts < 0 {
		return ErrInvalidRetryAttempts
	}
	if bc.RetryBackoff < 0 {
		return ErrInvalidRetryBackoff
	}
	return nil
}
