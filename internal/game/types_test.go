package game

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatches(t *testing.T) {
	t.Run("Resign latch is consumed exactly once", func(t *testing.T) {
		latches := &Latches{}
		assert.False(t, latches.TakeResign())

		latches.RequestResign()
		assert.True(t, latches.TakeResign())
		assert.False(t, latches.TakeResign())
	})

	t.Run("Board edit carries its FEN", func(t *testing.T) {
		latches := &Latches{}
		_, pending := latches.TakeBoardEdit()
		assert.False(t, pending)

		latches.RequestBoardEdit("8/8/8/8/8/8/8/K6k w - -")
		fen, pending := latches.TakeBoardEdit()
		assert.True(t, pending)
		assert.Equal(t, "8/8/8/8/8/8/8/K6k w - -", fen)

		_, pending = latches.TakeBoardEdit()
		assert.False(t, pending)
	})

	t.Run("A later mode request overwrites the earlier one", func(t *testing.T) {
		latches := &Latches{}

		latches.RequestMode(ModeTwoPlayer, ModeConfig{})
		latches.RequestMode(ModeEngine, ModeConfig{EngineLevel: 5, PlayWhite: true})

		mode, conf, pending := latches.TakeMode()
		assert.True(t, pending)
		assert.Equal(t, ModeEngine, mode)
		assert.Equal(t, 5, conf.EngineLevel)
		assert.True(t, conf.PlayWhite)

		_, _, pending = latches.TakeMode()
		assert.False(t, pending)
	})
}

func TestState(t *testing.T) {
	t.Run("Readers see the latest published snapshot", func(t *testing.T) {
		state := &State{}
		assert.Zero(t, state.Snapshot())

		state.Publish(Snapshot{FEN: "x", Turn: "white", Status: "ongoing"})
		state.Publish(Snapshot{FEN: "y", Turn: "black", Status: "ongoing"})

		assert.Equal(t, "y", state.Snapshot().FEN)
		assert.Equal(t, "black", state.Snapshot().Turn)
	})

	t.Run("Publish is safe under concurrent reads", func(t *testing.T) {
		state := &State{}
		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					state.Publish(Snapshot{Status: "ongoing"})
					_ = state.Snapshot()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, "ongoing", state.Snapshot().Status)
	})
}
