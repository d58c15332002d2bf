package entity

import (
	"time"

	"github.com/openchess/chessboard-backend/internal/chess"
)

const (
	StatusWaiting  = "waiting"
	StatusOngoing  = "ongoing"
	StatusFinished = "finished"
)

// SharedGame is the state two boards exchange during online play. Each
// side pushes its committed moves and reads the opponent's; the position
// travels as FEN so either board can rebuild it.
type SharedGame struct {
	ID        string    `json:"id"`
	FEN       string    `json:"fen"`
	Turn      string    `json:"turn"`
	Status    string    `json:"status"`
	Winner    string    `json:"winner,omitempty"`
	LastMove  string    `json:"last_move,omitempty"` // long algebraic, e.g. "e2e4"
	MoveCount int       `json:"move_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSharedGame(id string) *SharedGame {
	initial := chess.Position{
		Board:          chess.Initial(),
		Turn:           chess.White,
		CastlingRights: chess.RecomputeCastlingRights(chess.Initial()),
		FullmoveNumber: 1,
	}
	return &SharedGame{
		ID:     id,
		FEN:    chess.ToFEN(initial),
		Turn:   string(chess.White),
		Status: StatusWaiting,
	}
}

func (that *SharedGame) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *SharedGame) IsOngoing() bool {
	return that.Status == StatusOngoing
}

func (that *SharedGame) IsWaiting() bool {
	return that.Status == StatusWaiting
}

// RecordMove folds a committed move into the shared state.
func (that *SharedGame) RecordMove(move chess.Move, fen string, turn byte) {
	that.FEN = fen
	that.Turn = string(turn)
	that.LastMove = move.String()
	that.MoveCount++
	that.Status = StatusOngoing
	that.UpdatedAt = time.Now().UTC()
}

// Finish marks the game over. Winner is "w", "b", or empty for a draw.
func (that *SharedGame) Finish(winner string) {
	that.Status = StatusFinished
	that.Winner = winner
	that.Turn = ""
	that.UpdatedAt = time.Now().UTC()
}
