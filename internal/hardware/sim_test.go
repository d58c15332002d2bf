package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimBoard(t *testing.T) {
	t.Run("Reads follow the strobed row", func(t *testing.T) {
		// Given: Pieces on two rows
		sim := NewSimBoard()
		sim.Place(1, 2)
		sim.Place(5, 2)

		// When / Then: Each strobe exposes its own row only
		require.NoError(t, sim.Strobe(1))
		occupied, err := sim.ReadColumn(2)
		require.NoError(t, err)
		assert.True(t, occupied)

		require.NoError(t, sim.Strobe(2))
		occupied, err = sim.ReadColumn(2)
		require.NoError(t, err)
		assert.False(t, occupied)
	})

	t.Run("A deasserted board reads empty", func(t *testing.T) {
		sim := NewSimBoard()
		sim.Place(0, 0)

		require.NoError(t, sim.Strobe(-1))
		occupied, err := sim.ReadColumn(0)
		require.NoError(t, err)
		assert.False(t, occupied)
	})
}
