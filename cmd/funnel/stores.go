package main

import (
	"fmt"
	"path/filepath"

	"github.com/aretw0/funnel/internal/adapters/file"
	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/adapters/redis"
	"github.com/aretw0/funnel/pkg/ports"
	backend "github.com/redis/go-redis/v9"
)

// stores are the two flag scopes plus the optional cross-process lock.
type stores struct {
	local    ports.FlagStore
	sessions ports.FlagStore
	locker   ports.DistributedLocker
	close    func() error
}

// openStores picks the backend: "memory", "file" or "redis".
// An empty kind means redis when REDIS_ADDR is set, memory otherwise.
func openStores(cfg *config.Config, kind, dataDir string) (*stores, error) {
	if kind == "" {
		kind = "memory"
		if cfg.RedisAddr != "" {
			kind = "redis"
		}
	}

	switch kind {
	case "memory":
		return &stores{
			local:    memory.NewStore(),
			sessions: memory.NewStore(),
			close:    func() error { return nil },
		}, nil

	case "file":
		return &stores{
			local:    file.New(filepath.Join(dataDir, "visitors")),
			sessions: file.New(filepath.Join(dataDir, "sessions")),
			close:    func() error { return nil },
		}, nil

	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis store needs REDIS_ADDR")
		}
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return &stores{
			local: redis.NewFromClient(client, redis.WithPrefix(cfg.RedisPrefix+"local:")),
			sessions: redis.NewFromClient(client,
				redis.WithPrefix(cfg.RedisPrefix+"session:"),
				redis.WithTTL(cfg.SessionTTL),
			),
			locker: redis.NewLocker(client, cfg.RedisPrefix),
			close:  client.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q (want memory, file or redis)", kind)
}
