package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchess/chessboard-backend/internal/hardware"
)

func newTestGrid(sim *hardware.SimBoard) *SensorGrid {
	grid := NewSensorGrid(sim, sim)
	grid.sleep = func(time.Duration) {}
	return grid
}

func TestSensorGrid_Poll(t *testing.T) {
	t.Run("Reads occupied squares after a scan", func(t *testing.T) {
		// Given: A simulated board with two pieces
		sim := hardware.NewSimBoard()
		sim.Place(0, 0)
		sim.Place(7, 4)
		grid := newTestGrid(sim)

		// When: Polling the grid
		grid.Poll()

		// Then: Exactly the occupied squares read true
		assert.True(t, grid.Occupied(0, 0))
		assert.True(t, grid.Occupied(7, 4))
		assert.False(t, grid.Occupied(3, 3))
	})

	t.Run("Tracks pieces across consecutive scans", func(t *testing.T) {
		// Given: A polled board with one piece
		sim := hardware.NewSimBoard()
		sim.Place(2, 5)
		grid := newTestGrid(sim)
		grid.Poll()
		require.True(t, grid.Occupied(2, 5))

		// When: The piece moves and the grid is polled again
		sim.Lift(2, 5)
		sim.Place(3, 5)
		grid.Poll()

		// Then: The new reading replaces the old one
		assert.False(t, grid.Occupied(2, 5))
		assert.True(t, grid.Occupied(3, 5))
	})
}

func TestSensorGrid_Commit(t *testing.T) {
	t.Run("Exposes a lift as an edge until committed", func(t *testing.T) {
		// Given: A committed baseline with a piece on e2
		sim := hardware.NewSimBoard()
		sim.Place(6, 4)
		grid := newTestGrid(sim)
		grid.Poll()
		grid.Commit()

		// When: The piece is lifted and the grid polled
		sim.Lift(6, 4)
		grid.Poll()

		// Then: Previous still shows the piece, current does not
		assert.True(t, grid.PreviousOccupied(6, 4))
		assert.False(t, grid.Occupied(6, 4))
	})

	t.Run("Commit erases the edge", func(t *testing.T) {
		// Given: An uncommitted lift edge
		sim := hardware.NewSimBoard()
		sim.Place(6, 4)
		grid := newTestGrid(sim)
		grid.Poll()
		grid.Commit()
		sim.Lift(6, 4)
		grid.Poll()
		require.True(t, grid.PreviousOccupied(6, 4))

		// When: Committing the new snapshot
		grid.Commit()

		// Then: Previous matches current and the edge is gone
		assert.False(t, grid.PreviousOccupied(6, 4))
	})

	t.Run("Commit is idempotent", func(t *testing.T) {
		// Given: A committed snapshot
		sim := hardware.NewSimBoard()
		sim.Place(1, 1)
		grid := newTestGrid(sim)
		grid.Poll()
		grid.Commit()

		// When: Committing again without polling
		grid.Commit()

		// Then: The baseline is unchanged
		assert.True(t, grid.PreviousOccupied(1, 1))
		assert.True(t, grid.Occupied(1, 1))
	})
}
