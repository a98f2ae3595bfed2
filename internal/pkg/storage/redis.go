package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/go-redis/redis/v9"
)

type RedisConfig struct {
	URI       string        `mapstructure:"uri"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"keyPrefix"`
	// Timeout bounds every command; the read timeout of URI is used if zero.
	Timeout time.Duration `mapstructure:"timeout"`
}

type RedisStore struct {
	cli       *redis.Client
	ttl       time.Duration
	keyPrefix string
	timeout   time.Duration
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URI)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = opts.ReadTimeout
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &RedisStore{
		cli:       redis.NewClient(opts),
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		timeout:   timeout,
	}, nil
}

func (s *RedisStore) key(username string, ip net.IP) string {
	return s.keyPrefix + Key(username, ip)
}

func (s *RedisStore) PutSession(ctx context.Context, rec SessionRecord) error {
	bb, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.cli.Set(ctx, s.key(rec.Username, net.ParseIP(rec.IP)), bb, s.ttl).Err()
}

func (s *RedisStore) GetSession(ctx context.Context, username string, ip net.IP) (SessionRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	bb, err := s.cli.Get(ctx, s.key(username, ip)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return SessionRecord{}, ErrNotFound
		}
		return SessionRecord{}, err
	}

	var rec SessionRecord
	if err := json.Unmarshal(bb, &rec); err != nil {
		return SessionRecord{}, err
	}
	return rec, nil
}

func (s *RedisStore) Close() error {
	return s.cli.Close()
}
