package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const recordTTL = 90 * 24 * time.Hour

// RedisStore persists conversation records in redis. Suited to
// multi-process deployments where FileStore would race.
type RedisStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisStore wires a store over an existing client.
func NewRedisStore(client *redis.Client, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("memory: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("leadbot.internal.memory")
	}
	return &RedisStore{redis: client, tracer: tracer}
}

func redisKey(key string) string {
	return fmt.Sprintf("leadbot:memory:%s", key)
}

func (s *RedisStore) Load(ctx context.Context, key string) (*Memory, error) {
	ctx, span := s.tracer.Start(ctx, "memory.load")
	defer span.End()

	data, err := s.redis.Get(ctx, redisKey(key)).Bytes()
	if err == redis.Nil {
		return &Memory{}, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("memory: failed to load %s: %w", key, err)
	}

	var mem Memory
	if err := json.Unmarshal(data, &mem); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("memory: failed to decode %s: %w", key, err)
	}
	return &mem, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, mem *Memory) error {
	ctx, span := s.tracer.Start(ctx, "memory.save")
	defer span.End()

	data, err := json.Marshal(mem)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("memory: failed to marshal %s: %w", key, err)
	}
	if err := s.redis.Set(ctx, redisKey(key), data, recordTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("memory: failed to persist %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	ctx, span := s.tracer.Start(ctx, "memory.reset")
	defer span.End()

	if err := s.redis.Del(ctx, redisKey(key)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("memory: failed to reset %s: %w", key, err)
	}
	return nil
}
