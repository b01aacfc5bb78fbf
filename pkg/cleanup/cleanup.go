package cleanup

import (
	"context"
	"log"
	"time"
)

// IncidentPruner deletes archived incidents older than a cutoff.
type IncidentPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupService enforces the archive retention period. The in-memory
// incident log is never touched: only the archive is pruned.
type CleanupService struct {
	store     IncidentPruner
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewCleanupService(store IncidentPruner, retention, interval time.Duration) *CleanupService {
	return &CleanupService{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Run prunes once on start and then every interval until ctx is done.
func (s *CleanupService) Run(ctx context.Context) error {
	log.Printf("Starting incident archive cleanup (retention: %v, interval: %v)", s.retention, s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cleanupExpiredIncidents(ctx)

	for {
		select {
		case <-ticker.C:
			s.cleanupExpiredIncidents(ctx)
		case <-ctx.Done():
			log.Println("Stopping incident archive cleanup")
			return nil
		}
	}
}

func (s *CleanupService) cleanupExpiredIncidents(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	count, err := s.store.DeleteOlderThan(ctx, s.now().Add(-s.retention))
	if err != nil {
		log.Printf("Error cleaning up archived incidents: %v", err)
		return
	}

	if count > 0 {
		log.Printf("Cleaned up %d archived incidents", count)
	}
}
