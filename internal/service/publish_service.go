package service

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/nsvirk/spxanalytics/internal/repository"
	"github.com/nsvirk/spxanalytics/pkg/utils/zaplogger"
	"github.com/redis/go-redis/v9"
)

// RedisChannel receives every prices-synced event
var RedisChannel = "CH:SPX:PRICES:SYNCED"

// Publisher publishes a message on a channel, implemented by *redis.Client
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// PublishService relays Postgres notifications of synced prices to Redis
type PublishService struct {
	publisher Publisher
	pgConnStr string
}

// NewPublishService creates a new PublishService
func NewPublishService(publisher Publisher, pgConnStr string) *PublishService {
	return &PublishService{
		publisher: publisher,
		pgConnStr: pgConnStr,
	}
}

// PublishSyncEventsToRedisChannel listens on the Postgres channel until ctx is done
func (s *PublishService) PublishSyncEventsToRedisChannel(ctx context.Context) error {
	listener := pq.NewListener(s.pgConnStr, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			zaplogger.Error("PostgreSQL listener event", zaplogger.Fields{"event": ev, "error": err.Error()})
		}
	})
	defer listener.Close()

	if err := listener.Listen(repository.PricesSyncedChannel); err != nil {
		return err
	}
	zaplogger.Info("Listening for sync events", zaplogger.Fields{"channel": repository.PricesSyncedChannel})

	s.relay(ctx, listener.Notify, func() {
		if err := listener.Ping(); err != nil {
			zaplogger.Error("Error pinging PostgreSQL", zaplogger.Fields{"error": err.Error()})
		}
	})
	return nil
}

// relay forwards notifications until ctx is done or notifications is closed,
// calling ping after 90 seconds of silence
func (s *PublishService) relay(ctx context.Context, notifications <-chan *pq.Notification, ping func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			// nil after a reconnect
			if n == nil {
				continue
			}
			if err := s.publisher.Publish(ctx, RedisChannel, n.Extra).Err(); err != nil {
				zaplogger.Error("Failed to publish to Redis", zaplogger.Fields{"error": err.Error()})
			}
		case <-time.After(90 * time.Second):
			go ping()
		}
	}
}
