package game

import (
	"log/slog"

	"github.com/openchess/chessboard-backend/internal/chess"
)

// TwoPlayerMode is over-the-board play for two humans. The resolver
// does all the work; this mode just alternates turns.
type TwoPlayerMode struct {
	logger   *slog.Logger
	resolver *Resolver
	resume   *ResumeState
}

func NewTwoPlayerMode(logger *slog.Logger, resolver *Resolver, resume *ResumeState) *TwoPlayerMode {
	return &TwoPlayerMode{
		logger:   logger.With("component", "two-player"),
		resolver: resolver,
		resume:   resume,
	}
}

func (that *TwoPlayerMode) Name() string { return ModeNameTwoPlayer }

func (that *TwoPlayerMode) Begin() error {
	that.resolver.InitializeBoard()

	if that.resume != nil {
		that.resolver.RestoreGame(that.resume)
	} else if that.resolver.history != nil {
		if err := that.resolver.history.StartGame(that.resolver.ctx, ModeNameTwoPlayer, 0, 0); err != nil {
			that.logger.Error("failed to start game record", "error", err)
		}
	}

	that.resolver.WaitForBoardSetup(that.resolver.Board())
	return nil
}

func (that *TwoPlayerMode) Update() {
	that.resolver.sensors.Poll()

	if that.resolver.ProcessResign() {
		return
	}
	that.resolver.consumeBoardEdit()

	move, ok := that.resolver.TryPlayerMove(that.resolver.Turn())
	if ok {
		that.resolver.ApplyMove(move, false)
		that.resolver.AdvanceTurn()
		that.resolver.UpdateGameStatus()
		that.logger.Info("turn", "side", chess.ColorName(that.resolver.Turn()))
	}

	that.resolver.sensors.Commit()
	that.resolver.sleep(that.resolver.pollInterval)
}

func (that *TwoPlayerMode) Over() bool {
	return that.resolver.GameOver()
}
