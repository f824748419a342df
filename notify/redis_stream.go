package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"manuscript-workflow/models"

	"github.com/redis/go-redis/v9"
)

const defaultStreamMaxLen = 10000

// RedisStreamSink appends notifications to a Redis stream consumed by the
// notification collaborator.
type RedisStreamSink struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisStreamSink(client *redis.Client, stream string) (*RedisStreamSink, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	stream = strings.TrimSpace(stream)
	if stream == "" {
		return nil, errors.New("notification stream required")
	}
	return &RedisStreamSink{client: client, stream: stream, maxLen: defaultStreamMaxLen}, nil
}

func (s *RedisStreamSink) Name() string { return "redis_stream" }

func (s *RedisStreamSink) Deliver(ctx context.Context, n models.Notification) error {
	roles, err := json.Marshal(n.TargetRoles)
	if err != nil {
		return err
	}
	users, err := json.Marshal(n.TargetUserIDs)
	if err != nil {
		return err
	}
	manuscriptID := ""
	if n.ManuscriptID != nil {
		manuscriptID = strconv.FormatUint(uint64(*n.ManuscriptID), 10)
	}

	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		MaxLen: s.maxLen,
		Approx: true,
		Values: map[string]any{
			"event_id":        n.EventID,
			"title":           n.Title,
			"message":         n.Message,
			"severity":        string(n.Severity),
			"target_roles":    string(roles),
			"target_user_ids": string(users),
			"manuscript_id":   manuscriptID,
		},
	}).Err()
}
