package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchess/chessboard-backend/internal/chess"
)

func TestSharedGame(t *testing.T) {
	t.Run("A new game waits at the starting position", func(t *testing.T) {
		game := NewSharedGame("board-7")

		assert.True(t, game.IsWaiting())
		assert.Equal(t, "w", game.Turn)
		assert.Zero(t, game.MoveCount)

		pos, err := chess.ParseFEN(game.FEN)
		require.NoError(t, err)
		assert.Equal(t, chess.Initial(), pos.Board)
	})

	t.Run("Recording a move makes the game ongoing", func(t *testing.T) {
		game := NewSharedGame("board-7")
		move, err := chess.ParseMove("e2e4")
		require.NoError(t, err)

		game.RecordMove(move, "fen-after", chess.Black)

		assert.True(t, game.IsOngoing())
		assert.Equal(t, "e2e4", game.LastMove)
		assert.Equal(t, "b", game.Turn)
		assert.Equal(t, 1, game.MoveCount)
		assert.False(t, game.UpdatedAt.IsZero())
	})

	t.Run("Finish freezes the result", func(t *testing.T) {
		game := NewSharedGame("board-7")

		game.Finish("b")

		assert.True(t, game.IsFinished())
		assert.Equal(t, "b", game.Winner)
		assert.Empty(t, game.Turn)
	})
}
