package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"presence-service/internal/domain"
	"presence-service/internal/metrics"
)

// ChannelName is where every snapshot of a hive is published.
func ChannelName(hiveID int64) string {
	return fmt.Sprintf("presence:hive:%d", hiveID)
}

// UsersKey holds the ids of users present in a hive.
func UsersKey(hiveID int64) string {
	return fmt.Sprintf("presence:hive:%d:users", hiveID)
}

// Publisher mirrors hive snapshots into Redis so other services and other
// instances can follow presence without a socket.
type Publisher struct {
	client  *redis.Client
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewPublisher(client *redis.Client, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *Publisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:  client,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// Publish replaces the hive's user set and publishes the snapshot.
func (p *Publisher) Publish(ctx context.Context, hiveID int64, msg domain.UpdateMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	key := UsersKey(hiveID)
	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(msg.Users) > 0 {
			members := make([]interface{}, 0, len(msg.Users))
			for _, u := range msg.Users {
				members = append(members, u.ID)
			}
			pipe.SAdd(ctx, key, members...)
		}
		pipe.Publish(ctx, ChannelName(hiveID), data)
		return nil
	})
	if err != nil {
		p.metrics.RecordMirrorError()
		p.logger.Warn("Failed to mirror hive snapshot",
			zap.Int64("hiveId", hiveID),
			zap.Error(err))
		return fmt.Errorf("failed to mirror hive %d: %w", hiveID, err)
	}
	return nil
}

// Clear drops the mirrored user set of a hive that is no longer live.
func (p *Publisher) Clear(ctx context.Context, hiveID int64) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.client.Del(ctx, UsersKey(hiveID)).Err(); err != nil {
		p.metrics.RecordMirrorError()
		return fmt.Errorf("failed to clear hive %d: %w", hiveID, err)
	}
	return nil
}

// OnlineUsers returns the mirrored user ids of a hive in ascending order.
func (p *Publisher) OnlineUsers(ctx context.Context, hiveID int64) ([]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	members, err := p.client.SMembers(ctx, UsersKey(hiveID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read hive %d users: %w", hiveID, err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			p.logger.Warn("Skipping malformed mirrored user id", zap.String("member", m))
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}
