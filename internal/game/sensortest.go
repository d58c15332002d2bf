package game

import (
	"log/slog"

	"github.com/openchess/chessboard-backend/internal/board"
)

// SensorTestMode verifies the hall-sensor grid square by square. Every
// occupied square lights lime; a square that has tripped at least once
// stays dimly lit. The test completes when all 64 squares have
// registered a piece.
type SensorTestMode struct {
	logger   *slog.Logger
	resolver *Resolver

	seen     [board.NumRows][board.NumCols]bool
	seenHint board.Color
	done     bool
}

func NewSensorTestMode(logger *slog.Logger, resolver *Resolver) *SensorTestMode {
	return &SensorTestMode{
		logger:   logger.With("component", "sensor-test"),
		resolver: resolver,
		seenHint: board.Scale(board.ColorLime, 0.15),
	}
}

func (that *SensorTestMode) Name() string { return ModeNameSensorTest }

func (that *SensorTestMode) Begin() error {
	that.logger.Info("sensor test: trip every square once")
	that.resolver.driver.Drain()
	that.resolver.driver.Acquire()
	that.resolver.driver.Clear(true)
	that.resolver.driver.Release()
	return nil
}

func (that *SensorTestMode) Update() {
	that.resolver.sensors.Poll()

	remaining := 0
	that.resolver.driver.Acquire()
	for row := 0; row < board.NumRows; row++ {
		for col := 0; col < board.NumCols; col++ {
			occupied := that.resolver.sensors.Occupied(row, col)
			if occupied && !that.seen[row][col] {
				that.seen[row][col] = true
				that.logger.Info("sensor verified", "row", row, "col", col)
			}

			switch {
			case occupied:
				that.resolver.driver.SetSquare(row, col, board.ColorLime)
			case that.seen[row][col]:
				that.resolver.driver.SetSquare(row, col, that.seenHint)
			default:
				that.resolver.driver.SetSquare(row, col, board.ColorOff)
				remaining++
			}
		}
	}
	that.resolver.driver.Present()
	that.resolver.driver.Release()

	if remaining == 0 {
		that.logger.Info("sensor test complete")
		that.resolver.driver.FireworkAnimation(board.ColorLime)
		that.done = true
	}

	that.resolver.sensors.Commit()
	that.resolver.sleep(that.resolver.pollInterval)
}

func (that *SensorTestMode) Over() bool {
	return that.done
}
