package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/Dosada05/tournament-tracker/models"
)

type fakePublisher struct {
	channel string
	message interface{}
	err     error
}

func (p *fakePublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	p.channel, p.message = channel, message
	return redis.NewIntResult(1, p.err)
}

type fakeBroadcaster struct {
	messages []string
}

func (b *fakeBroadcaster) Broadcast(ctx context.Context, message []byte) error {
	b.messages = append(b.messages, string(message))
	return nil
}

func TestRedisNotifierPublishesEncodedStandings(t *testing.T) {
	pub := &fakePublisher{}
	n := &RedisNotifier{client: pub}

	err := n.PublishStandings(context.Background(), []models.Team{{ID: 1, Name: "Alpha", Score: 50, Position: 1}})
	if err != nil {
		t.Fatalf("PublishStandings() error = %v", err)
	}
	if pub.channel != StandingsChannel {
		t.Errorf("channel = %q, want %q", pub.channel, StandingsChannel)
	}
	data, ok := pub.message.([]byte)
	if !ok {
		t.Fatalf("message type = %T, want []byte", pub.message)
	}
	want := `{"type":"STANDINGS_UPDATED","payload":[{"id":1,"name":"Alpha","score":50,"created_at":"0001-01-01T00:00:00Z","position":1}]}`
	if string(data) != want {
		t.Errorf("message = %s\nwant      %s", data, want)
	}
}

func TestRedisNotifierError(t *testing.T) {
	n := &RedisNotifier{client: &fakePublisher{err: errors.New("connection refused")}}
	if err := n.PublishStandings(context.Background(), nil); err == nil {
		t.Error("PublishStandings() succeeded with failing redis")
	}
}

func TestSubscriberForwardsValidMessages(t *testing.T) {
	hub := &fakeBroadcaster{}
	s := &Subscriber{hub: hub, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	messages := make(chan *redis.Message, 3)
	messages <- &redis.Message{Channel: StandingsChannel, Payload: `{"type":"STANDINGS_UPDATED","payload":[]}`}
	messages <- &redis.Message{Channel: StandingsChannel, Payload: `not json`}
	messages <- &redis.Message{Channel: StandingsChannel, Payload: `{"type":"STANDINGS_UPDATED","payload":[{"id":2}]}`}
	close(messages)

	s.consume(context.Background(), messages)

	if len(hub.messages) != 2 {
		t.Fatalf("forwarded %d messages, want 2: %v", len(hub.messages), hub.messages)
	}
}
