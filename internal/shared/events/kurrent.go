package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/EventStore/EventStore-Client-Go/v4/esdb"
	"github.com/carebridge/platform/internal/shared/config"
	"github.com/google/uuid"
)

// KurrentBus dispatches events in process and additionally appends every
// event to a KurrentDB (EventStoreDB) stream so the activity history
// survives restarts independently of the snapshot store.
type KurrentBus struct {
	local  *MemoryBus
	client *esdb.Client
	stream string
}

// NewKurrentBus creates a durable event bus connected to KurrentDB
func NewKurrentBus(ctx context.Context, cfg config.KurrentDBConfig) (*KurrentBus, error) {
	settings, err := esdb.ParseConnectionString(buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	client, err := esdb.NewClient(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create KurrentDB client: %w", err)
	}

	bus := &KurrentBus{
		local:  NewMemoryBus(),
		client: client,
		stream: cfg.Stream,
	}

	if err := bus.Health(); err != nil {
		client.Close()
		return nil, fmt.Errorf("KurrentDB health check failed: %w", err)
	}

	return bus, nil
}

// buildConnectionString creates the esdb:// connection string
func buildConnectionString(cfg config.KurrentDBConfig) string {
	var auth string
	if cfg.Username != "" && cfg.Password != "" {
		auth = fmt.Sprintf("%s:%s@", cfg.Username, cfg.Password)
	}

	params := ""
	if cfg.Insecure {
		params = "?tls=false&tlsVerifyCert=false"
	}

	return fmt.Sprintf("esdb://%s%s:%d%s", auth, cfg.Host, cfg.Port, params)
}

// Publish appends the event to the durable stream, then dispatches locally.
// A failed append does not block local dispatch; the error is returned after
// handlers have run so callers can log it.
func (b *KurrentBus) Publish(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	eventID, err := uuid.Parse(event.ID)
	if err != nil {
		eventID = uuid.New()
	}

	esdbEvent := esdb.EventData{
		EventID:     eventID,
		EventType:   event.Type,
		ContentType: esdb.ContentTypeJson,
		Data:        data,
	}

	_, appendErr := b.client.AppendToStream(ctx, b.stream, esdb.AppendToStreamOptions{
		ExpectedRevision: esdb.Any{},
	}, esdbEvent)

	if localErr := b.local.Publish(ctx, event); localErr != nil {
		return localErr
	}

	if appendErr != nil {
		return fmt.Errorf("failed to append event: %w", appendErr)
	}
	return nil
}

// Subscribe registers a handler for all events
func (b *KurrentBus) Subscribe(handler Handler) {
	b.local.Subscribe(handler)
}

// Close closes the KurrentDB connection
func (b *KurrentBus) Close() {
	if b.client != nil {
		b.client.Close()
	}
}

// Health checks the KurrentDB connection by reading the tail of $all
func (b *KurrentBus) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := b.client.ReadAll(ctx, esdb.ReadAllOptions{
		Direction: esdb.Backwards,
		From:      esdb.End{},
	}, 1)
	if err != nil {
		return fmt.Errorf("KurrentDB unreachable: %w", err)
	}
	defer stream.Close()

	return nil
}

var _ Bus = (*KurrentBus)(nil)
