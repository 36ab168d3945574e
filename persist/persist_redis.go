package persist

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"boerenbridge.com/server/game"
)

const keyPrefix = "boerenbridge:game:"

type RedisGameStateTracker struct {
	rdclient *redis.Client
}

func NewRedisGameStateTracker(redisURL string, redisPW string, redisDB int) *RedisGameStateTracker {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     redisURL,
		Password: redisPW,
		DB:       redisDB,
	})
	return &RedisGameStateTracker{
		rdclient: rdclient,
	}
}

func redisKey(gameID string) string {
	return fmt.Sprintf("%s%s", keyPrefix, gameID)
}

func (r *RedisGameStateTracker) Load(ctx context.Context, gameID string) (game.GameState, error) {
	stateBytes, err := r.rdclient.Get(ctx, redisKey(gameID)).Bytes()
	if err == redis.Nil {
		return game.GameState{}, errors.Wrapf(ErrNotFound, "game %s", gameID)
	} else if err != nil {
		return game.GameState{}, errors.Wrapf(err, "Unable to load game state for %s", gameID)
	}
	state, err := decode(stateBytes)
	if err != nil {
		return game.GameState{}, errors.Wrapf(err, "Unable to decode game state for %s", gameID)
	}
	return state, nil
}

func (r *RedisGameStateTracker) Save(ctx context.Context, gameID string, state game.GameState) error {
	stateBytes, err := encode(state)
	if err != nil {
		return errors.Wrapf(err, "Unable to encode game state for %s", gameID)
	}
	return r.rdclient.Set(ctx, redisKey(gameID), stateBytes, 0).Err()
}

func (r *RedisGameStateTracker) Remove(ctx context.Context, gameID string) error {
	return r.rdclient.Del(ctx, redisKey(gameID)).Err()
}

func (r *RedisGameStateTracker) Close() error {
	return r.rdclient.Close()
}
