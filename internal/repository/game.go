package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openchess/chessboard-backend/internal/entity"
)

var ErrGameNotFound = errors.New("game not found")

// sharedGameTTL evicts relay games nobody touched for a day. A board
// that keeps playing refreshes the key on every move.
const sharedGameTTL = 24 * time.Hour

// GameRepository relays shared games between boards. The remote side
// polls GetByID for moves the local side pushed with CreateOrUpdate.
type GameRepository interface {
	CreateOrUpdate(ctx context.Context, game *entity.SharedGame) error
	GetByID(ctx context.Context, id string) (*entity.SharedGame, error)
	DeleteByID(ctx context.Context, id string) error
}

type sharedGames struct {
	client *redis.Client
}

func NewGameRepository(client *redis.Client) GameRepository {
	return &sharedGames{client: client}
}

func gameKey(id string) string {
	return "game:" + id
}

func (that *sharedGames) CreateOrUpdate(ctx context.Context, game *entity.SharedGame) error {
	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	if err = that.client.Set(ctx, gameKey(game.ID), payload, sharedGameTTL).Err(); err != nil {
		return fmt.Errorf("could not save game: %w", err)
	}

	return nil
}

func (that *sharedGames) GetByID(ctx context.Context, id string) (*entity.SharedGame, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("could not get game by id: %w", err)
	}

	var game entity.SharedGame
	if err = json.Unmarshal([]byte(response), &game); err != nil {
		return nil, fmt.Errorf("could not unmarshal game: %w", err)
	}

	return &game, nil
}

func (that *sharedGames) DeleteByID(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, gameKey(id)).Err(); err != nil {
		return fmt.Errorf("could not delete game by id: %w", err)
	}

	return nil
}
