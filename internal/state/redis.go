package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"VCPSentinel/internal/model"
)

const redisPrefix = "vcpsentinel:state:"

// RedisStore keeps each symbol state as a JSON value under its own key, with
// a set indexing the known symbols.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	log.Printf("[INFO] redis state store connected: %s db=%d", addr, db)
	return &RedisStore{client: client, prefix: redisPrefix}, nil
}

func (r *RedisStore) key(symbol string) string { return r.prefix + symbol }
func (r *RedisStore) index() string            { return r.prefix + "symbols" }

func (r *RedisStore) Load(ctx context.Context, symbol string) (model.SymbolState, bool, error) {
	var s model.SymbolState
	data, err := r.client.Get(ctx, r.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return s, false, nil
	}
	if err != nil {
		return s, false, fmt.Errorf("redis get %s: %w", symbol, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, false, fmt.Errorf("decode state %s: %w", symbol, err)
	}
	return s, true, nil
}

func (r *RedisStore) Save(ctx context.Context, s model.SymbolState) error {
	s.UpdatedAt = time.Now()
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(s.Symbol), data, 0)
	pipe.SAdd(ctx, r.index(), s.Symbol)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save %s: %w", s.Symbol, err)
	}
	return nil
}

func (r *RedisStore) All(ctx context.Context) ([]model.SymbolState, error) {
	symbols, err := r.client.SMembers(ctx, r.index()).Result()
	if err != nil {
		return nil, fmt.Errorf("redis members: %w", err)
	}
	sort.Strings(symbols)
	out := make([]model.SymbolState, 0, len(symbols))
	for _, sym := range symbols {
		s, ok, err := r.Load(ctx, sym)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *RedisStore) Close() error { return r.client.Close() }
