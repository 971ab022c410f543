package state

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tangytongues/WatchTogether/config"
	"github.com/tangytongues/WatchTogether/internal/repo"
	"github.com/tangytongues/WatchTogether/internal/repo/memory"
	pgstore "github.com/tangytongues/WatchTogether/internal/repo/postgres"
	"github.com/tangytongues/WatchTogether/internal/repo/redisstore"
	"gorm.io/gorm"
)

type AppState struct {
	Ctx    context.Context
	Cancel context.CancelFunc
	DB     *gorm.DB
	Redis  *redis.Client
	Store  repo.Store
}

func InitAppState(ctx context.Context, cancel context.CancelFunc) (*AppState, error) {
	state := &AppState{Ctx: ctx, Cancel: cancel}

	switch backend := config.Conf.Store.Backend; backend {
	case "memory", "":
		state.Store = memory.NewStore()
		log.Info().Msg("using in-memory store")

	case "postgres":
		db, _, err := InitPostgres(config.Conf.Store.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		store, err := pgstore.NewStore(db)
		if err != nil {
			return nil, err
		}
		state.DB = db
		state.Store = store

	case "redis":
		rdb, err := InitRedis(config.Conf.Store.Redis.Addr, config.Conf.Store.Redis.Password, config.Conf.Store.Redis.DB)
		if err != nil {
			return nil, err
		}
		state.Redis = rdb
		// Room session state lives in Redis, the peripheral entities
		// (users, files, media, themes, annotations) stay in memory.
		state.Store = repo.Split(redisstore.NewStore(rdb), memory.NewStore())

	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}

	return state, nil
}

func (a *AppState) Close() {
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			log.Info().Msg("Closing PostgreSQL database connection...")
			sqlDB.Close()
		}
	}

	if a.Redis != nil {
		log.Info().Msg("Closing Redis client...")
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close Redis client")
		}
	}
}
