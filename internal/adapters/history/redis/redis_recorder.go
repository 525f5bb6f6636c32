// Package redis disponibiliza o registrador de histórico de ciclos baseado em Redis.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/domain"
	"github.com/yeadkhail/auto-pppoe-quota-manager/internal/core/ports"
)

const historyKey = "rotation:history"

// Recorder guarda o desfecho de cada ciclo em uma lista limitada. O histórico
// é apenas observabilidade; o motor de decisão nunca lê daqui.
type Recorder struct {
	client *redis.Client
	limit  int64
}

var _ ports.CycleRecorder = (*Recorder)(nil)

type Config struct {
	Addr     string
	Password string
	DB       int
	Limit    int
}

func New(cfg Config) (*Recorder, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("history limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Recorder{client: client, limit: int64(cfg.Limit)}, nil
}

func (r *Recorder) Close() error {
	return r.client.Close()
}

func (r *Recorder) Record(ctx context.Context, record domain.CycleRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode cycle record: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, historyKey, payload)
	pipe.LTrim(ctx, historyKey, 0, r.limit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return nil
}
