package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/cv-ranker/internal/model"
)

const (
	keyPrefix  = "cv-ranker:job:"
	DefaultTTL = 24 * time.Hour
)

type RedisConfig struct {
	Address  string        `mapstructure:"address" validate:"required"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// Redis stores JSON snapshots under cv-ranker:job:<id>.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis connects to the configured server and pings it.
func NewRedis(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisWithClient(client, cfg.TTL, logger), nil
}

func NewRedisWithClient(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, ttl: ttl, logger: logger}
}

func Key(jobID string) string {
	return keyPrefix + jobID
}

func (r *Redis) Save(ctx context.Context, snapshot *model.JobSnapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return errors.New("snapshot with an id is required")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", snapshot.ID, err)
	}
	if err := r.client.Set(ctx, Key(snapshot.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot %s: %w", snapshot.ID, err)
	}

	r.logger.Debug("job snapshot saved",
		zap.String("job_id", snapshot.ID),
		zap.String("state", string(snapshot.State)),
		zap.Duration("ttl", r.ttl),
	)
	return nil
}

func (r *Redis) Load(ctx context.Context, jobID string) (*model.JobSnapshot, error) {
	data, err := r.client.Get(ctx, Key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", jobID, err)
	}

	var snapshot model.JobSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", jobID, err)
	}
	return &snapshot, nil
}

func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
