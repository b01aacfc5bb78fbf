package pubsub

import (
	"context"
	"driverless-backend/internal/models"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connection is the part of the managed Redis client the publisher needs.
type Connection interface {
	GetClient() *redis.Client
	IsConnected() bool
}

// Update is the payload published for every control unit operation that
// produced incidents.
type Update struct {
	Entries     []models.LogEntry `json:"entries"`
	Vehicle     models.Vehicle    `json:"vehicle"`
	PublishedAt time.Time         `json:"publishedAt"`
}

// Publisher mirrors the incident stream and the latest vehicle state into
// Redis: each update is PUBLISHed on the incidents channel and the vehicle
// snapshot is stored under the vehicle key.
type Publisher struct {
	conn    Connection
	prefix  string
	queue   chan Update
	dropped atomic.Int64
}

func NewPublisher(conn Connection, prefix string, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		conn:   conn,
		prefix: prefix,
		queue:  make(chan Update, buffer),
	}
}

func (p *Publisher) IncidentChannel() string {
	return p.prefix + "incidents"
}

func (p *Publisher) VehicleKey() string {
	return p.prefix + "vehicle"
}

// ObserveIncidents queues the update without blocking. Updates are dropped
// when the queue is full.
func (p *Publisher) ObserveIncidents(entries []models.LogEntry, vehicle models.Vehicle) {
	update := Update{
		Entries:     entries,
		Vehicle:     vehicle,
		PublishedAt: time.Now(),
	}

	select {
	case p.queue <- update:
	default:
		if n := p.dropped.Add(1); n%100 == 1 {
			log.Printf("Redis publisher queue full, %d updates dropped so far", n)
		}
	}
}

// Dropped returns the number of updates discarded because the queue was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Run publishes queued updates until ctx is done, then flushes what is left.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			p.flush()
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			p.flush()
			return nil
		case update := <-p.queue:
			if err := p.publish(ctx, update); err != nil {
				log.Printf("Failed to publish incidents: %v", err)
			}
		}
	}
}

func (p *Publisher) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		select {
		case update := <-p.queue:
			if err := p.publish(ctx, update); err != nil {
				log.Printf("Failed to publish incidents on shutdown: %v", err)
				return
			}
		default:
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, update Update) error {
	client := p.conn.GetClient()
	if client == nil || !p.conn.IsConnected() {
		p.dropped.Add(1)
		return nil
	}

	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}
	state, err := json.Marshal(update.Vehicle)
	if err != nil {
		return fmt.Errorf("marshal vehicle: %w", err)
	}

	pipe := client.TxPipeline()
	pipe.Publish(ctx, p.IncidentChannel(), payload)
	pipe.Set(ctx, p.VehicleKey(), state, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish to redis: %w", err)
	}
	return nil
}
