package game

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openchess/chessboard-backend/internal/chess"
	"github.com/openchess/chessboard-backend/internal/entity"
	"github.com/openchess/chessboard-backend/internal/repository"
)

// remotePollInterval throttles how often the shared game state is
// fetched while waiting on the opponent.
const remotePollInterval = 500 * time.Millisecond

// OnlineMode plays against a remote opponent through a shared game
// record. The first board to reference a game ID creates it and plays
// white; the second joins as black. Each side pushes its own moves and
// polls for the opponent's.
type OnlineMode struct {
	logger   *slog.Logger
	resolver *Resolver
	games    repository.GameRepository

	gameID   string
	myColor  byte
	shared   *entity.SharedGame
	lastSeen string
	lastPoll time.Time
}

func NewOnlineMode(logger *slog.Logger, resolver *Resolver, games repository.GameRepository, conf ModeConfig) *OnlineMode {
	return &OnlineMode{
		logger:   logger.With("component", "online-mode"),
		resolver: resolver,
		games:    games,
		gameID:   conf.OnlineID,
	}
}

func (that *OnlineMode) Name() string { return ModeNameOnline }

// Begin creates or joins the shared game, then waits for both the
// physical setup and the opponent.
func (that *OnlineMode) Begin() error {
	if that.games == nil {
		return fmt.Errorf("online play requires a shared game store")
	}
	if that.gameID == "" {
		that.gameID = fmt.Sprintf("board-%d", that.resolver.now().UnixNano())
	}

	existing, err := that.games.GetByID(that.resolver.ctx, that.gameID)
	switch {
	case errors.Is(err, repository.ErrGameNotFound):
		that.myColor = chess.White
		that.shared = entity.NewSharedGame(that.gameID)
		if err = that.games.CreateOrUpdate(that.resolver.ctx, that.shared); err != nil {
			return fmt.Errorf("failed to create shared game: %w", err)
		}
		that.logger.Info("created shared game", "game_id", that.gameID, "side", "white")

	case err != nil:
		return fmt.Errorf("failed to look up shared game: %w", err)

	case existing.IsWaiting():
		that.myColor = chess.Black
		that.shared = existing
		that.shared.Status = entity.StatusOngoing
		if err = that.games.CreateOrUpdate(that.resolver.ctx, that.shared); err != nil {
			return fmt.Errorf("failed to join shared game: %w", err)
		}
		that.logger.Info("joined shared game", "game_id", that.gameID, "side", "black")

	default:
		return fmt.Errorf("shared game %q is not joinable", that.gameID)
	}

	that.resolver.SetHooks(that)
	that.resolver.InitializeBoard()
	that.resolver.WaitForBoardSetup(that.resolver.Board())

	if that.myColor == chess.White {
		return that.waitForOpponent()
	}
	return nil
}

// waitForOpponent runs the connecting sweep until the second board
// joins.
func (that *OnlineMode) waitForOpponent() error {
	that.logger.Info("waiting for opponent", "game_id", that.gameID)
	handle := that.resolver.driver.StartConnecting()
	defer that.resolver.driver.StopAndWait(handle)

	for {
		select {
		case <-that.resolver.ctx.Done():
			return that.resolver.ctx.Err()
		default:
		}

		current, err := that.games.GetByID(that.resolver.ctx, that.gameID)
		if err == nil && current.IsOngoing() {
			that.shared = current
			that.logger.Info("opponent joined", "game_id", that.gameID)
			return nil
		}
		that.resolver.sleep(remotePollInterval)
	}
}

func (that *OnlineMode) Update() {
	that.resolver.sensors.Poll()

	if that.resolver.ProcessResign() {
		return
	}

	if that.resolver.Turn() == that.myColor {
		that.playLocalTurn()
	} else {
		that.pollRemoteTurn()
	}

	that.resolver.sensors.Commit()
	that.resolver.sleep(that.resolver.pollInterval)
}

func (that *OnlineMode) playLocalTurn() {
	move, ok := that.resolver.TryPlayerMove(that.myColor)
	if !ok {
		return
	}

	that.resolver.ApplyMove(move, false)
	that.resolver.AdvanceTurn()
	that.resolver.UpdateGameStatus()

	that.shared.RecordMove(move, that.resolver.CurrentFEN(), that.resolver.Turn())
	if that.resolver.GameOver() {
		that.shared.Finish(winnerLabel(that.resolver.Winner()))
	}
	if err := that.games.CreateOrUpdate(that.resolver.ctx, that.shared); err != nil {
		that.logger.Error("failed to push move", "move", move.String(), "error", err)
	}
	that.lastSeen = move.String()
}

func (that *OnlineMode) pollRemoteTurn() {
	if that.resolver.now().Sub(that.lastPoll) < remotePollInterval {
		return
	}
	that.lastPoll = that.resolver.now()

	current, err := that.games.GetByID(that.resolver.ctx, that.gameID)
	if err != nil {
		that.logger.Error("failed to poll shared game", "error", err)
		return
	}

	if current.IsFinished() && !that.resolver.GameOver() {
		that.logger.Info("opponent ended the game", "winner", current.Winner)
		that.resolver.finishGame(winnerFromLabel(current.Winner), ResultResignation)
		that.resolver.driver.FireworkAnimation(sideColor(that.myColor))
		return
	}

	if current.LastMove == "" || current.LastMove == that.lastSeen {
		return
	}

	move, err := chess.ParseMove(current.LastMove)
	if err != nil {
		that.logger.Error("bad remote move", "move", current.LastMove, "error", err)
		return
	}

	that.shared = current
	that.lastSeen = current.LastMove
	that.resolver.ApplyMove(move, true)
	that.resolver.AdvanceTurn()
	that.resolver.UpdateGameStatus()
}

// OnResignConfirmed pushes the resignation to the shared record before
// the local game ends.
func (that *OnlineMode) OnResignConfirmed(color byte) bool {
	that.shared.Finish(winnerLabel(chess.Opponent(color)))
	if err := that.games.CreateOrUpdate(that.resolver.ctx, that.shared); err != nil {
		that.logger.Error("failed to push resignation", "error", err)
	}
	return true
}

func (that *OnlineMode) Over() bool {
	return that.resolver.GameOver()
}

func winnerLabel(winner byte) string {
	if winner == 0 {
		return ""
	}
	return string(winner)
}

func winnerFromLabel(label string) byte {
	if label == "" {
		return 0
	}
	return label[0]
}
