package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/FiveEightyEight/musicbingo/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	snapshotKeyPrefix   = "game_snapshot:"
	eventChannelPrefix  = "game_events:"
	snapshotScanPattern = snapshotKeyPrefix + "*"
)

// RedisClient keeps game snapshots in redis and fans game events out over pub/sub.
type RedisClient struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewRedisClient(opts *redis.Options, log zerolog.Logger) *RedisClient {
	client := redis.NewClient(opts)
	return &RedisClient{client: client, log: log.With().Str("component", "redis").Logger()}
}

func (rc *RedisClient) Ping(ctx context.Context) error {
	return errors.Wrap(rc.client.Ping(ctx).Err(), "redis ping")
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

func snapshotKey(id uuid.UUID) string {
	return fmt.Sprintf("%s%s", snapshotKeyPrefix, id)
}

func eventChannel(id uuid.UUID) string {
	return fmt.Sprintf("%s%s", eventChannelPrefix, id)
}

// Snapshot operations

func (rc *RedisClient) SaveSnapshot(ctx context.Context, snap models.GameSnapshot) error {
	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	return errors.Wrapf(rc.client.Set(ctx, snapshotKey(snap.GameID), snapJSON, 0).Err(), "save snapshot %s", snap.GameID)
}

func (rc *RedisClient) GetSnapshot(ctx context.Context, id uuid.UUID) (models.GameSnapshot, error) {
	snapJSON, err := rc.client.Get(ctx, snapshotKey(id)).Bytes()
	if err == redis.Nil {
		return models.GameSnapshot{}, models.NotFoundf("get snapshot", "no cached snapshot for game %s", id)
	}
	if err != nil {
		return models.GameSnapshot{}, errors.Wrapf(err, "get snapshot %s", id)
	}
	var snap models.GameSnapshot
	if err := json.Unmarshal(snapJSON, &snap); err != nil {
		return models.GameSnapshot{}, errors.Wrapf(err, "decode snapshot %s", id)
	}
	return snap, nil
}

func (rc *RedisClient) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	return errors.Wrapf(rc.client.Del(ctx, snapshotKey(id)).Err(), "delete snapshot %s", id)
}

// SnapshotIDs lists the games with a cached snapshot.
func (rc *RedisClient) SnapshotIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	iter := rc.client.Scan(ctx, 0, snapshotScanPattern, 100).Iterator()
	for iter.Next(ctx) {
		id, err := uuid.Parse(strings.TrimPrefix(iter.Val(), snapshotKeyPrefix))
		if err != nil {
			rc.log.Warn().Str("key", iter.Val()).Msg("skipping malformed snapshot key")
			continue
		}
		ids = append(ids, id)
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "scan snapshots")
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// Event bus

func (rc *RedisClient) Publish(ctx context.Context, event models.GameEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "encode event")
	}
	return errors.Wrapf(rc.client.Publish(ctx, eventChannel(event.GameID), eventJSON).Err(), "publish %s", event.Type)
}

// Subscribe streams events for one game until ctx is cancelled. The
// subscription is confirmed before Subscribe returns.
func (rc *RedisClient) Subscribe(ctx context.Context, gameID uuid.UUID) (<-chan models.GameEvent, error) {
	pubsub := rc.client.Subscribe(ctx, eventChannel(gameID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, errors.Wrapf(err, "subscribe to game %s", gameID)
	}

	ch := make(chan models.GameEvent)

	go func() {
		defer pubsub.Close()
		defer close(ch)

		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}

			var event models.GameEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				rc.log.Warn().Err(err).Str("channel", msg.Channel).Msg("dropping undecodable event")
				continue
			}

			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
