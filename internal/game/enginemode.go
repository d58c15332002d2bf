package game

import (
	"log/slog"

	"github.com/openchess/chessboard-backend/internal/chess"
	"github.com/openchess/chessboard-backend/internal/engine"
)

// EngineMode plays the human against a remote best-move engine. The
// engine's replies are performed on the physical board by the human,
// guided by the LEDs.
type EngineMode struct {
	logger      *slog.Logger
	resolver    *Resolver
	client      *engine.Client
	playerColor byte
	resume      *ResumeState
}

func NewEngineMode(logger *slog.Logger, resolver *Resolver, client *engine.Client, conf ModeConfig, resume *ResumeState) *EngineMode {
	playerColor := chess.White
	if !conf.PlayWhite {
		playerColor = chess.Black
	}

	if resume != nil {
		playerColor = resume.PlayerColor
		client.SetSettings(engine.Settings{Depth: resume.EngineDepth, Retries: client.Settings().Retries})
	} else if conf.EngineLevel > 0 {
		client.SetSettings(engine.FromLevel(conf.EngineLevel))
	}

	return &EngineMode{
		logger:      logger.With("component", "engine-mode"),
		resolver:    resolver,
		client:      client,
		playerColor: playerColor,
		resume:      resume,
	}
}

func (that *EngineMode) Name() string { return ModeNameEngine }

func (that *EngineMode) Begin() error {
	that.resolver.InitializeBoard()

	if that.resume != nil {
		that.resolver.RestoreGame(that.resume)
	} else if that.resolver.history != nil {
		err := that.resolver.history.StartGame(
			that.resolver.ctx, ModeNameEngine, that.playerColor, that.client.Settings().Depth)
		if err != nil {
			that.logger.Error("failed to start game record", "error", err)
		}
	}

	that.logger.Info("engine game",
		"player", chess.ColorName(that.playerColor), "depth", that.client.Settings().Depth)
	that.resolver.WaitForBoardSetup(that.resolver.Board())
	return nil
}

func (that *EngineMode) Update() {
	that.resolver.sensors.Poll()

	if that.resolver.ProcessResign() {
		return
	}
	that.resolver.consumeBoardEdit()

	if that.resolver.Turn() == that.playerColor {
		move, ok := that.resolver.TryPlayerMove(that.playerColor)
		if ok {
			that.resolver.ApplyMove(move, false)
			that.resolver.AdvanceTurn()
			that.resolver.UpdateGameStatus()
		}
	} else {
		that.playEngineMove()
	}

	that.resolver.sensors.Commit()
	that.resolver.sleep(that.resolver.pollInterval)
}

// playEngineMove asks the engine for its move and walks the player
// through performing it. The center pulses while the request is out.
func (that *EngineMode) playEngineMove() {
	handle := that.resolver.driver.StartThinking()
	best, err := that.client.Suggest(that.resolver.ctx, that.resolver.CurrentFEN())
	that.resolver.driver.StopAndWait(handle)

	if err != nil {
		// Leave the turn as is; the next tick retries.
		that.logger.Error("engine move failed", "error", err)
		return
	}

	that.logger.Info("engine move", "move", best.Move.String(), "evaluation", best.Evaluation)
	that.resolver.ApplyMove(best.Move, true)
	that.resolver.AdvanceTurn()
	that.resolver.UpdateGameStatus()
}

func (that *EngineMode) Over() bool {
	return that.resolver.GameOver()
}
