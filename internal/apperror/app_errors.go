package apperror

import "errors"

var (
	ErrGameFinished   = errors.New("game is already finished")
	ErrGameNotStarted = errors.New("game is not started")
	ErrNoActiveGame   = errors.New("no active game")
	ErrIllegalMove    = errors.New("illegal move")
	ErrUnknownMode    = errors.New("unknown game mode")
	ErrEngineFailed   = errors.New("engine request failed")
)
