package game

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchess/chessboard-backend/internal/board"
	"github.com/openchess/chessboard-backend/internal/chess"
	"github.com/openchess/chessboard-backend/internal/hardware"
)

// resolverFixture wires a resolver to simulated hardware. Blocking waits
// are driven through the sleep seam: each queued step runs on one sleep
// call, so tests script sensor changes between loop iterations.
type resolverFixture struct {
	sim      *hardware.SimBoard
	strip    *hardware.SimStrip
	driver   *board.Driver
	sensors  *board.SensorGrid
	latches  *Latches
	resolver *Resolver

	clock         time.Time
	steps         []func()
	confirmAnswer bool
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()

	f := &resolverFixture{
		sim:           hardware.NewSimBoard(),
		strip:         hardware.NewSimStrip(),
		clock:         time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		confirmAnswer: true,
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	f.driver = board.NewDriver(logger, f.strip)
	t.Cleanup(f.driver.Close)
	f.sensors = board.NewSensorGrid(f.sim, f.sim)
	f.latches = &Latches{}
	f.resolver = NewResolver(context.Background(), logger, f.driver, f.sensors, chess.NewEngine(), nil, f.latches)
	f.resolver.now = func() time.Time { return f.clock }
	f.resolver.sleep = func(time.Duration) {
		if len(f.steps) == 0 {
			return
		}
		step := f.steps[0]
		f.steps = f.steps[1:]
		step()
	}
	f.resolver.confirm = func(bool) bool { return f.confirmAnswer }
	return f
}

// script queues sensor mutations to run on successive sleep calls.
func (f *resolverFixture) script(steps ...func()) {
	f.steps = steps
}

// syncSim mirrors the resolver's board onto the simulated sensors and
// establishes a committed baseline.
func (f *resolverFixture) syncSim() {
	f.sim.SetAll(occupancy(f.resolver.Board()))
	f.sensors.Poll()
	f.sensors.Commit()
}

func occupancy(b chess.Board) [8][8]bool {
	var occ [8][8]bool
	for row := range b {
		for col := range b[row] {
			occ[row][col] = b[row][col] != chess.Empty
		}
	}
	return occ
}

// lift removes a piece on the sim and polls so the resolver sees the
// edge against the committed baseline.
func (f *resolverFixture) lift(square string) (row, col int) {
	row, col, _ = chess.ParseSquare(square)
	f.sim.Lift(row, col)
	f.sensors.Poll()
	return row, col
}

func TestResolver_TryPlayerMove(t *testing.T) {
	t.Run("No lift yields no move", func(t *testing.T) {
		// Given: A settled starting position
		f := newResolverFixture(t)
		f.syncSim()

		// When
		_, ok := f.resolver.TryPlayerMove(chess.White)

		// Then
		assert.False(t, ok)
	})

	t.Run("Resolves a pawn push to its landing square", func(t *testing.T) {
		// Given: The e2 pawn lifted
		f := newResolverFixture(t)
		f.syncSim()
		f.lift("e2")

		// When: The piece lands on e4 during the placement wait
		f.script(func() { f.sim.Place(4, 4) })
		move, ok := f.resolver.TryPlayerMove(chess.White)

		// Then
		require.True(t, ok)
		assert.Equal(t, "e2e4", move.String())
	})

	t.Run("Returning the piece to its origin cancels", func(t *testing.T) {
		// Given: The e2 pawn lifted
		f := newResolverFixture(t)
		f.syncSim()
		f.lift("e2")

		// When: It goes straight back down
		f.script(func() { f.sim.Place(6, 4) })
		_, ok := f.resolver.TryPlayerMove(chess.White)

		// Then: No move, and the board is untouched
		assert.False(t, ok)
		assert.Equal(t, chess.Initial(), f.resolver.Board())
	})

	t.Run("Wrong side's lift is rejected without blocking", func(t *testing.T) {
		// Given: A black pawn lifted on white's turn
		f := newResolverFixture(t)
		f.syncSim()
		f.lift("d7")

		// When
		_, ok := f.resolver.TryPlayerMove(chess.White)

		// Then
		assert.False(t, ok)
	})

	t.Run("Capture resolves when the victim leaves first", func(t *testing.T) {
		// Given: A white pawn on e4 facing a black pawn on d5
		f := newResolverFixture(t)
		require.NoError(t, f.resolver.SetBoardFromFEN("8/8/8/3p4/4P3/8/8/K6k w - - 0 1"))
		f.syncSim()
		f.lift("e4")

		// When: The victim is removed, then the pawn lands on d5
		f.script(
			func() { f.sim.Lift(3, 3) },
			func() { f.sim.Place(3, 3) },
		)
		move, ok := f.resolver.TryPlayerMove(chess.White)

		// Then
		require.True(t, ok)
		assert.Equal(t, "e4d5", move.String())
	})

	t.Run("Capture backs out when the piece returns home", func(t *testing.T) {
		// Given: The same capture, begun by removing the victim
		f := newResolverFixture(t)
		require.NoError(t, f.resolver.SetBoardFromFEN("8/8/8/3p4/4P3/8/8/K6k w - - 0 1"))
		f.syncSim()
		f.lift("e4")

		// When: The mover puts their pawn back instead
		f.script(
			func() { f.sim.Lift(3, 3) },
			func() { f.sim.Place(4, 4) },
		)
		_, ok := f.resolver.TryPlayerMove(chess.White)

		// Then
		assert.False(t, ok)
	})
}

func TestResolver_ApplyMove(t *testing.T) {
	t.Run("Double pawn push opens the en passant window", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		move, err := chess.ParseMove("e2e4")
		require.NoError(t, err)

		// When
		f.resolver.ApplyMove(move, false)

		// Then: The skipped square is the target
		target := f.resolver.rules.EnPassantTarget()
		require.NotNil(t, target)
		assert.Equal(t, chess.Square{Row: 5, Col: 4}, *target)
		assert.Equal(t, byte('P'), f.resolver.Board()[4][4])
		assert.Equal(t, chess.Empty, f.resolver.Board()[6][4])
	})

	t.Run("En passant removes the bypassed pawn", func(t *testing.T) {
		// Given: White to capture d5 en passant
		f := newResolverFixture(t)
		require.NoError(t, f.resolver.SetBoardFromFEN("8/8/8/3pP3/8/8/8/K6k w - d6 0 1"))
		f.resolver.SetReplaying(true)
		move, err := chess.ParseMove("e5d6")
		require.NoError(t, err)

		// When
		f.resolver.ApplyMove(move, false)

		// Then
		b := f.resolver.Board()
		assert.Equal(t, byte('P'), b[2][3])
		assert.Equal(t, chess.Empty, b[3][3])
		assert.Equal(t, chess.Empty, b[3][4])
	})

	t.Run("Kingside castling slides the rook too", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		require.NoError(t, f.resolver.SetBoardFromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"))
		f.resolver.SetReplaying(true)
		move, err := chess.ParseMove("e1g1")
		require.NoError(t, err)

		// When
		f.resolver.ApplyMove(move, false)

		// Then: King on g1, rook on f1, white's rights gone
		b := f.resolver.Board()
		assert.Equal(t, byte('K'), b[7][6])
		assert.Equal(t, byte('R'), b[7][5])
		assert.Equal(t, chess.Empty, b[7][7])
		assert.Equal(t, chess.Empty, b[7][4])
		rights := f.resolver.rules.CastlingRights()
		assert.Zero(t, rights&(chess.CastleWhiteKingside|chess.CastleWhiteQueenside))
		assert.NotZero(t, rights&chess.CastleBlackKingside)
	})

	t.Run("A pawn reaching the back rank becomes a queen", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		require.NoError(t, f.resolver.SetBoardFromFEN("8/4P3/8/8/8/8/8/K6k w - - 0 1"))
		f.resolver.SetReplaying(true)
		move, err := chess.ParseMove("e7e8")
		require.NoError(t, err)

		// When
		f.resolver.ApplyMove(move, false)

		// Then
		assert.Equal(t, byte('Q'), f.resolver.Board()[0][4])
	})

	t.Run("AdvanceTurn flips the side and ticks the clock after black", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		require.Equal(t, chess.White, f.resolver.Turn())
		require.Equal(t, 1, f.resolver.rules.FullmoveNumber())

		// When
		f.resolver.AdvanceTurn()
		assert.Equal(t, chess.Black, f.resolver.Turn())
		assert.Equal(t, 1, f.resolver.rules.FullmoveNumber())
		f.resolver.AdvanceTurn()

		// Then
		assert.Equal(t, chess.White, f.resolver.Turn())
		assert.Equal(t, 2, f.resolver.rules.FullmoveNumber())
	})
}

func TestResolver_UpdateGameStatus(t *testing.T) {
	t.Run("Checkmate ends the game for the mated side", func(t *testing.T) {
		// Given: The fool's mate, white to move
		f := newResolverFixture(t)
		require.NoError(t, f.resolver.SetBoardFromFEN(
			"rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"))

		// When
		f.resolver.UpdateGameStatus()

		// Then
		assert.True(t, f.resolver.GameOver())
		assert.Equal(t, chess.Black, f.resolver.Winner())
	})

	t.Run("Stalemate ends the game with no winner", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		require.NoError(t, f.resolver.SetBoardFromFEN("k7/2Q5/1K6/8/8/8/8/8 b - - 0 1"))

		// When
		f.resolver.UpdateGameStatus()

		// Then
		assert.True(t, f.resolver.GameOver())
		assert.Zero(t, f.resolver.Winner())
	})

	t.Run("An ordinary position stays live", func(t *testing.T) {
		f := newResolverFixture(t)
		f.resolver.UpdateGameStatus()
		assert.False(t, f.resolver.GameOver())
	})
}

func TestResolver_WebResign(t *testing.T) {
	t.Run("A latched request resigns the side to move", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		f.syncSim()
		f.latches.RequestResign()

		// When
		done := f.resolver.ProcessResign()

		// Then: White resigned, black wins
		assert.True(t, done)
		assert.True(t, f.resolver.GameOver())
		assert.Equal(t, chess.Black, f.resolver.Winner())
	})

	t.Run("A game mode can reject the resignation", func(t *testing.T) {
		// Given: Hooks that refuse to forward the resignation
		f := newResolverFixture(t)
		f.syncSim()
		hooks := &vetoHooks{}
		f.resolver.SetHooks(hooks)
		f.latches.RequestResign()

		// When
		done := f.resolver.ProcessResign()

		// Then: The hook was consulted and the game continues
		assert.True(t, hooks.called)
		assert.False(t, done)
		assert.False(t, f.resolver.GameOver())
	})

	t.Run("Declining the dialog keeps the game alive", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		f.syncSim()
		f.confirmAnswer = false
		f.latches.RequestResign()

		// When
		done := f.resolver.ProcessResign()

		// Then: Nothing ends, and the latch was consumed
		assert.False(t, done)
		assert.False(t, f.resolver.GameOver())
		assert.False(t, f.resolver.ProcessResign())
	})
}

func TestResolver_ResignGesture(t *testing.T) {
	// armGesture lifts the king, holds it off the board past the
	// threshold, and returns it, leaving the gesture armed.
	armGesture := func(t *testing.T, f *resolverFixture) {
		t.Helper()

		f.lift("e1")
		f.script(
			func() { f.clock = f.clock.Add(resignHoldDuration) },
			func() { f.sim.Place(7, 4) },
		)
		_, ok := f.resolver.TryPlayerMove(chess.White)
		require.False(t, ok)
		require.Equal(t, resignGesturing, f.resolver.resignPhase)
		f.sensors.Commit()
	}

	t.Run("Three lifts complete the resignation", func(t *testing.T) {
		// Given: The gesture armed by the long hold
		f := newResolverFixture(t)
		f.syncSim()
		armGesture(t, f)

		// When: Two more quick lifts, each returning in time
		f.lift("e1")
		f.script(func() { f.sim.Place(7, 4) })
		assert.False(t, f.resolver.ProcessResign())

		f.lift("e1")
		f.script(func() { f.sim.Place(7, 4) })
		done := f.resolver.ProcessResign()

		// Then: White resigned
		assert.True(t, done)
		assert.True(t, f.resolver.GameOver())
		assert.Equal(t, chess.Black, f.resolver.Winner())
	})

	t.Run("A lift overstaying its window aborts the gesture", func(t *testing.T) {
		// Given: The gesture armed
		f := newResolverFixture(t)
		f.syncSim()
		armGesture(t, f)

		// When: The next lift never returns in time
		f.lift("e1")
		f.script(func() { f.clock = f.clock.Add(2 * resignLiftWindow) })
		done := f.resolver.ProcessResign()

		// Then: The gesture resets without resigning
		assert.False(t, done)
		assert.False(t, f.resolver.GameOver())
		assert.Equal(t, resignIdle, f.resolver.resignPhase)
	})

	t.Run("A resting king times the gesture out", func(t *testing.T) {
		// Given: The gesture armed, the king back on its square
		f := newResolverFixture(t)
		f.syncSim()
		armGesture(t, f)

		// When: Ticks pass with no further lift
		for i := 0; i < 5; i++ {
			f.clock = f.clock.Add(2 * resignLiftWindow)
			f.resolver.ProcessResign()
		}

		// Then: The gesture resets without resigning
		assert.False(t, f.resolver.GameOver())
		assert.Equal(t, resignIdle, f.resolver.resignPhase)
	})

	t.Run("A settled game ignores resign input", func(t *testing.T) {
		f := newResolverFixture(t)
		f.syncSim()
		require.NoError(t, f.resolver.SetBoardFromFEN("k7/2Q5/1K6/8/8/8/8/8 b - - 0 1"))
		f.resolver.UpdateGameStatus()
		require.True(t, f.resolver.GameOver())

		f.latches.RequestResign()
		assert.False(t, f.resolver.ProcessResign())
	})
}

func TestResolver_SetPollInterval(t *testing.T) {
	t.Run("Overrides the default cadence", func(t *testing.T) {
		f := newResolverFixture(t)

		f.resolver.SetPollInterval(75 * time.Millisecond)

		assert.Equal(t, 75*time.Millisecond, f.resolver.pollInterval)
	})

	t.Run("Ignores a non-positive interval", func(t *testing.T) {
		f := newResolverFixture(t)
		before := f.resolver.pollInterval

		f.resolver.SetPollInterval(0)

		assert.Equal(t, before, f.resolver.pollInterval)
	})
}

// vetoHooks rejects every resignation and remembers being asked.
type vetoHooks struct{ called bool }

func (that *vetoHooks) OnResignConfirmed(byte) bool {
	that.called = true
	return false
}

func TestResolver_RestoreGame(t *testing.T) {
	t.Run("The recorded position wins over the move list", func(t *testing.T) {
		// Given: A record whose position was edited after its moves
		f := newResolverFixture(t)
		edited := "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 3 20"
		move, err := chess.ParseMove("e2e4")
		require.NoError(t, err)

		// When
		f.resolver.RestoreGame(&ResumeState{
			Moves:       []chess.Move{move},
			BaselineFEN: edited,
		})

		// Then: The edited position is live, the move list untouched
		assert.Equal(t, edited, f.resolver.CurrentFEN())
		assert.Equal(t, chess.Black, f.resolver.Turn())
	})

	t.Run("Falls back to a replay without a recorded position", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		move, err := chess.ParseMove("e2e4")
		require.NoError(t, err)

		// When
		f.resolver.RestoreGame(&ResumeState{Moves: []chess.Move{move}})

		// Then: The replay restored the position and the turn
		assert.Equal(t, byte('P'), f.resolver.Board()[4][4])
		assert.Equal(t, chess.Black, f.resolver.Turn())
	})

	t.Run("A bad recorded position falls back to the replay", func(t *testing.T) {
		// Given
		f := newResolverFixture(t)
		move, err := chess.ParseMove("e2e4")
		require.NoError(t, err)

		// When
		f.resolver.RestoreGame(&ResumeState{
			Moves:       []chess.Move{move},
			BaselineFEN: "not a position",
		})

		// Then
		assert.Equal(t, byte('P'), f.resolver.Board()[4][4])
		assert.Equal(t, chess.Black, f.resolver.Turn())
	})
}

func TestResolver_WaitForBoardSetup(t *testing.T) {
	t.Run("Returns once the physical board matches", func(t *testing.T) {
		// Given: An empty physical board
		f := newResolverFixture(t)

		// When: The pieces appear between polls
		f.script(func() { f.sim.SetAll(occupancy(chess.Initial())) })
		f.resolver.WaitForBoardSetup(f.resolver.Board())

		// Then: The edge baseline is committed to the full position
		assert.True(t, f.sensors.PreviousOccupied(6, 4))
		assert.False(t, f.sensors.PreviousOccupied(4, 4))
	})
}

func TestResolver_SetBoardFromFEN(t *testing.T) {
	t.Run("Imposes the position and the side to move", func(t *testing.T) {
		f := newResolverFixture(t)

		err := f.resolver.SetBoardFromFEN("8/8/8/8/8/8/8/K6k b - - 5 40")
		require.NoError(t, err)

		assert.Equal(t, chess.Black, f.resolver.Turn())
		assert.Equal(t, byte('K'), f.resolver.Board()[7][0])
		assert.Equal(t, 5, f.resolver.rules.HalfmoveClock())
		assert.Equal(t, 40, f.resolver.rules.FullmoveNumber())
	})

	t.Run("Rejects garbage and leaves the board alone", func(t *testing.T) {
		f := newResolverFixture(t)

		err := f.resolver.SetBoardFromFEN("not a position")

		assert.Error(t, err)
		assert.Equal(t, chess.Initial(), f.resolver.Board())
	})
}

func TestResolver_CurrentFEN(t *testing.T) {
	t.Run("Serializes the live position round-trip", func(t *testing.T) {
		f := newResolverFixture(t)
		fen := "r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 3 20"

		require.NoError(t, f.resolver.SetBoardFromFEN(fen))

		assert.Equal(t, fen, f.resolver.CurrentFEN())
	})
}
