package game

import (
	"github.com/openchess/chessboard-backend/internal/chess"
)

// Mode names as recorded in the game archive and exposed over REST.
const (
	ModeNameTwoPlayer  = "two-player"
	ModeNameEngine     = "engine"
	ModeNameOnline     = "online"
	ModeNameSensorTest = "sensor-test"
)

// Mode is one selectable board activity. Begin blocks until the board
// is ready to play (setup, resume replay, remote pairing); Update is
// one tick of the activity's loop and is called until Over reports
// true.
type Mode interface {
	Name() string
	Begin() error
	Update()
	Over() bool
}

// ResumeState carries a recovered live game into the mode that will
// continue it. BaselineFEN is the last recorded position; it wins over
// a move replay because a web edit may have rebased the game mid-way.
type ResumeState struct {
	PlayerColor byte
	EngineDepth int
	Moves       []chess.Move
	BaselineFEN string
}

// RestoreGame brings a recovered live game back onto the board. The
// recorded position is authoritative when present; replaying the moves
// from the start is the fallback for records without one.
func (that *Resolver) RestoreGame(resume *ResumeState) {
	if resume.BaselineFEN != "" {
		that.SetReplaying(true)
		err := that.SetBoardFromFEN(resume.BaselineFEN)
		that.SetReplaying(false)
		if err == nil {
			that.logger.Info("restored recorded position", "fen", resume.BaselineFEN)
			return
		}
		that.logger.Error("bad recorded position, replaying moves instead",
			"fen", resume.BaselineFEN, "error", err)
	}
	that.ReplayMoves(resume.Moves)
}

// ReplayMoves re-applies recorded moves without LED feedback or
// physical waits, restoring the position a resumed game left off at.
func (that *Resolver) ReplayMoves(moves []chess.Move) {
	that.SetReplaying(true)
	for _, move := range moves {
		that.ApplyMove(move, false)
		that.AdvanceTurn()
	}
	that.SetReplaying(false)
	that.logger.Info("replayed recorded moves", "count", len(moves), "turn", chess.ColorName(that.turn))
}

// consumeBoardEdit applies a FEN latched by the web editor, if any.
func (that *Resolver) consumeBoardEdit() {
	if that.latches == nil {
		return
	}
	fen, ok := that.latches.TakeBoardEdit()
	if !ok {
		return
	}
	if err := that.SetBoardFromFEN(fen); err != nil {
		that.logger.Error("rejected board edit", "fen", fen, "error", err)
	}
}
