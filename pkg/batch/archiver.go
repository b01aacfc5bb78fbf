package batch

import (
	"context"
	"driverless-backend/internal/models"
	"fmt"
	"log"
	"sync"
	"time"
)

// Archiver copies incident log entries to durable storage in batches. The
// incident log itself is drained on read, so the archive is the only place
// entries survive once an operator has read them.
type Archiver struct {
	config BatchConfig
	store  IncidentStore

	queue    chan models.LogEntry
	flushReq chan chan error
	pending  []models.LogEntry

	stats    BatchStats
	statsMux sync.RWMutex
}

func NewArchiver(config BatchConfig, store IncidentStore) (*Archiver, error) {
	if err := ValidateConfig(config); err != nil {
		return nil, err
	}

	return &Archiver{
		config:   config,
		store:    store,
		queue:    make(chan models.LogEntry, config.QueueSize),
		flushReq: make(chan chan error),
	}, nil
}

// ObserveIncidents queues entries for archiving without blocking the caller.
// Entries that do not fit in the queue are counted as dropped.
func (a *Archiver) ObserveIncidents(entries []models.LogEntry, _ models.Vehicle) {
	for _, entry := range entries {
		select {
		case a.queue <- entry:
		default:
			a.statsMux.Lock()
			a.stats.DroppedEntries++
			a.statsMux.Unlock()
		}
	}
}

// Run batches queued entries until ctx is done. A batch is written when it
// reaches MaxBatchSize or when BatchInterval elapses. Whatever is queued at
// shutdown is written before Run returns.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.config.BatchInterval)
	defer ticker.Stop()

	log.Println("Incident archiver started")
	for {
		select {
		case entry := <-a.queue:
			a.pending = append(a.pending, entry)
			if len(a.pending) >= a.config.MaxBatchSize {
				if err := a.process(ctx); err != nil {
					log.Printf("Error archiving full batch: %v", err)
				}
			}

		case <-ticker.C:
			if err := a.process(ctx); err != nil {
				log.Printf("Error archiving interval batch: %v", err)
			}

		case reply := <-a.flushReq:
			a.drainQueue()
			reply <- a.process(ctx)

		case <-ctx.Done():
			a.drainQueue()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := a.process(shutdownCtx); err != nil {
				log.Printf("Error archiving final batch: %v", err)
			}
			cancel()
			log.Println("Incident archiver stopped")
			return nil
		}
	}
}

// Flush writes everything queued so far and waits for the result. It must
// only be called while Run is active.
func (a *Archiver) Flush(ctx context.Context) error {
	reply := make(chan error, 1)
	select {
	case a.flushReq <- reply:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *Archiver) drainQueue() {
	for {
		select {
		case entry := <-a.queue:
			a.pending = append(a.pending, entry)
		default:
			return
		}
	}
}

// process writes the pending entries in chunks of MaxBatchSize.
func (a *Archiver) process(ctx context.Context) error {
	if len(a.pending) == 0 {
		return nil
	}
	entries := a.pending
	a.pending = nil

	start := time.Now()
	var batches, failedBatches int
	for len(entries) > 0 {
		n := min(len(entries), a.config.MaxBatchSize)
		if err := a.processSingleBatch(ctx, entries[:n]); err != nil {
			log.Printf("Error archiving batch: %v", err)
			failedBatches++
		}
		entries = entries[n:]
		batches++
	}

	a.updateStats(batches, time.Since(start))
	if failedBatches > 0 {
		return fmt.Errorf("failed to archive %d out of %d batches", failedBatches, batches)
	}
	return nil
}

// processSingleBatch retries with exponential backoff and then falls back to
// inserting the entries one at a time.
func (a *Archiver) processSingleBatch(ctx context.Context, batch []models.LogEntry) error {
	a.addTotal(len(batch))

	for attempt := 0; attempt <= a.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			backoff := a.config.RetryBackoff << (attempt - 1)
			log.Printf("Retrying incident archive after %v (attempt %d/%d)", backoff, attempt, a.config.RetryAttempts)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				a.addFailed(len(batch))
				return fmt.Errorf("archiver stopped during retry: %w", ctx.Err())
			}
		}

		err := a.store.InsertIncidents(ctx, batch)
		if err == nil {
			return nil
		}
		log.Printf("Incident archive attempt %d failed: %v", attempt+1, err)
	}

	log.Printf("All archive retries failed, falling back to single inserts")
	return a.fallbackToSingleInserts(ctx, batch)
}

func (a *Archiver) fallbackToSingleInserts(ctx context.Context, batch []models.LogEntry) error {
	var failed []string
	for _, entry := range batch {
		if err := a.store.InsertIncident(ctx, entry); err != nil {
			failed = append(failed, entry.ID)
		}
	}

	if len(failed) > 0 {
		a.addFailed(len(failed))
		return fmt.Errorf("%d incidents could not be archived: %v", len(failed), failed)
	}
	return nil
}

func (a *Archiver) GetBatchStats() BatchStats {
	a.statsMux.RLock()
	defer a.statsMux.RUnlock()
	return a.stats
}

func (a *Archiver) updateStats(batches int, elapsed time.Duration) {
	a.statsMux.Lock()
	defer a.statsMux.Unlock()

	a.stats.BatchesProcessed += batches
	a.stats.ProcessingTime = elapsed
	a.stats.LastProcessedAt = time.Now()
	if a.stats.BatchesProcessed > 0 {
		a.stats.AverageSize = float64(a.stats.TotalEntries) / float64(a.stats.BatchesProcessed)
	}
	if a.stats.TotalEntries > 0 {
		a.stats.ErrorRate = float64(a.stats.FailedEntries) / float64(a.stats.TotalEntries)
	}
}

func (a *Archiver) addTotal(n int) {
	a.statsMux.Lock()
	a.stats.TotalEntries += int64(n)
	a.statsMux.Unlock()
}

func (a *Archiver) addFailed(n int) {
	a.statsMux.Lock()
	a.stats.FailedEntries += int64(n)
	a.statsMux.Unlock()
}
