// Package events carries standings updates between API instances over Redis
// pub/sub so that every instance can refresh its own websocket clients.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/tournament-tracker/live"
	"github.com/Dosada05/tournament-tracker/models"
)

const StandingsChannel = "tournament:standings"

// NewClient connects to the Redis instance described by redisURL and checks
// that it answers.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes every recalculated standings table.
type RedisNotifier struct {
	client publisher
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) PublishStandings(ctx context.Context, teams []models.Team) error {
	data, err := live.EncodeStandings(teams)
	if err != nil {
		return err
	}
	if err := n.client.Publish(ctx, StandingsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish standings: %w", err)
	}
	return nil
}

type Broadcaster interface {
	Broadcast(ctx context.Context, message []byte) error
}

// Subscriber forwards messages from StandingsChannel to a local hub.
type Subscriber struct {
	client *redis.Client
	hub    Broadcaster
	logger *slog.Logger
}

func NewSubscriber(client *redis.Client, hub Broadcaster, logger *slog.Logger) *Subscriber {
	return &Subscriber{client: client, hub: hub, logger: logger}
}

// Run blocks until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, StandingsChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", StandingsChannel, err)
	}
	s.logger.Info("subscribed to standings updates", "channel", StandingsChannel)

	s.consume(ctx, pubsub.Channel())
	return nil
}

func (s *Subscriber) consume(ctx context.Context, messages <-chan *redis.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if !json.Valid([]byte(msg.Payload)) {
				s.logger.Warn("dropping malformed standings message", "channel", msg.Channel)
				continue
			}
			if err := s.hub.Broadcast(ctx, []byte(msg.Payload)); err != nil {
				s.logger.Warn("failed to forward standings message", "error", err)
			}
		}
	}
}
