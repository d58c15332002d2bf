package game

import (
	"time"

	"github.com/openchess/chessboard-backend/internal/board"
	"github.com/openchess/chessboard-backend/internal/chess"
)

type resignPhase uint8

const (
	resignIdle resignPhase = iota
	resignGesturing
)

const (
	// resignHoldDuration is how long a lifted king must stay off its
	// square before the lift stops being a move attempt.
	resignHoldDuration = 3 * time.Second
	// resignLiftWindow bounds each follow-up quick lift and its return.
	resignLiftWindow = time.Second
	// resignLiftTarget is the total lifts (initial hold included) that
	// complete the gesture.
	resignLiftTarget = 3
)

// resignLevels dims the king-square indicator by gesture progress.
var resignLevels = [resignLiftTarget]float64{0.33, 0.66, 1.0}

func (that *Resolver) armResignGesture(kingRow, kingCol int, color byte) {
	that.resignPhase = resignGesturing
	that.resignLiftCount = 1
	that.resigningColor = color
	that.resignKingRow = kingRow
	that.resignKingCol = kingCol
	that.resignLastEvent = that.now()
	that.logger.Info("resign gesture armed",
		"color", chess.ColorName(color), "square", chess.SquareName(kingRow, kingCol))
}

// abortResignGesture resets to idle with the red error blink on the
// king square.
func (that *Resolver) abortResignGesture() {
	row, col := that.resignKingRow, that.resignKingCol
	that.resignPhase = resignIdle
	that.resignLiftCount = 0
	that.resigningColor = 0
	that.showIllegalMoveFeedback(row, col)
}

func (that *Resolver) resetResignGesture() {
	if that.resignPhase == resignGesturing {
		that.clearResignFeedback()
	}
	that.resignPhase = resignIdle
	that.resignLiftCount = 0
	that.resigningColor = 0
}

// ProcessResign services both resign paths: a request latched from the
// web interface, and the physical king gesture in progress. Returns
// true when a resignation was completed this tick.
func (that *Resolver) ProcessResign() bool {
	if that.gameOver {
		return false
	}

	if that.latches != nil && that.latches.TakeResign() {
		that.logger.Info("resign requested via web interface", "color", chess.ColorName(that.turn))
		return that.handleResign(that.turn)
	}

	if that.resignPhase != resignGesturing {
		return false
	}
	return that.continueResignGesture()
}

// continueResignGesture watches the king square for the remaining quick
// lifts. Each lift must begin and end inside its window or the whole
// gesture aborts.
func (that *Resolver) continueResignGesture() bool {
	row, col := that.resignKingRow, that.resignKingCol

	if that.sensors.Occupied(row, col) {
		// The next lift must begin inside the window of the last return.
		if that.now().Sub(that.resignLastEvent) > resignLiftWindow {
			that.logger.Info("resign gesture timed out", "lifts", that.resignLiftCount)
			that.abortResignGesture()
		}
		return false
	}

	// King lifted again: it must come back within the window.
	deadline := that.now().Add(resignLiftWindow)
	for !that.sensors.Occupied(row, col) {
		if that.now().After(deadline) {
			that.logger.Info("resign gesture timed out", "lifts", that.resignLiftCount)
			that.abortResignGesture()
			return false
		}
		that.sensors.Poll()
		that.sleep(that.pollInterval)
	}
	that.sensors.Commit()

	that.resignLastEvent = that.now()
	that.resignLiftCount++
	that.logger.Info("resign gesture lift", "lifts", that.resignLiftCount)

	if that.resignLiftCount >= resignLiftTarget {
		color := that.resigningColor
		that.resetResignGesture()
		return that.handleResign(color)
	}

	that.showResignProgress(row, col, that.resignLiftCount-1, false)
	return false
}

// showResignProgress marks the king square orange at the level's
// brightness. clearFirst wipes the move highlights the gesture grew out
// of.
func (that *Resolver) showResignProgress(row, col, level int, clearFirst bool) {
	if level < 0 || level >= resignLiftTarget {
		return
	}

	that.driver.Acquire()
	if clearFirst {
		that.driver.Clear(false)
	}
	that.driver.SetSquare(row, col, board.Scale(board.ColorOrange, resignLevels[level]))
	that.driver.Present()
	that.driver.Release()
}

func (that *Resolver) clearResignFeedback() {
	that.driver.Acquire()
	that.driver.SetSquare(that.resignKingRow, that.resignKingCol, board.ColorOff)
	that.driver.Present()
	that.driver.Release()
}

// handleResign confirms via the two-square dialog and, if confirmed,
// ends the game in the opponent's favor. Game modes get a chance to
// forward the resignation before the local finish.
func (that *Resolver) handleResign(color byte) bool {
	that.driver.Drain()
	that.driver.Acquire()
	that.driver.Clear(true)
	that.driver.Release()

	if !that.confirm(color == chess.Black) {
		that.logger.Info("resignation declined", "color", chess.ColorName(color))
		return false
	}

	that.logger.Info("resignation confirmed", "color", chess.ColorName(color))
	if !that.hooks.OnResignConfirmed(color) {
		that.logger.Info("resignation rejected by game mode", "color", chess.ColorName(color))
		return false
	}

	winner := chess.Opponent(color)
	that.finishGame(winner, ResultResignation)
	that.driver.FireworkAnimation(sideColor(winner))
	return true
}
