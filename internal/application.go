package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openchess/chessboard-backend/internal/apperror"
	"github.com/openchess/chessboard-backend/internal/board"
	"github.com/openchess/chessboard-backend/internal/chess"
	"github.com/openchess/chessboard-backend/internal/config"
	"github.com/openchess/chessboard-backend/internal/engine"
	"github.com/openchess/chessboard-backend/internal/game"
	"github.com/openchess/chessboard-backend/internal/hardware"
	"github.com/openchess/chessboard-backend/internal/history"
	"github.com/openchess/chessboard-backend/internal/menu"
	"github.com/openchess/chessboard-backend/internal/repository"
	"github.com/openchess/chessboard-backend/internal/repository/storage"
	"github.com/openchess/chessboard-backend/transport/rest"
)

// ErrNoHardware is returned when the config asks for real GPIO but this
// build only carries the simulator backend.
var ErrNoHardware = errors.New("real GPIO backend is not built in; set hardware.simulated")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	store, err := history.New(logger, conf.SQLiteStoragePath)
	if err != nil {
		return fmt.Errorf("could not open game archive: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Error("could not close game archive", "error", closeErr)
		}
	}()
	if err = store.Init(ctx); err != nil {
		return fmt.Errorf("could not init game archive: %w", err)
	}

	var gameRepo repository.GameRepository
	if conf.Redis.Enabled {
		redisStorage, redisErr := storage.New(ctx, conf.Redis.GetRedisAddr())
		if redisErr != nil {
			return fmt.Errorf("could not connect to redis storage: %w", redisErr)
		}
		defer func() {
			if closeErr := redisStorage.Close(); closeErr != nil {
				log.Error("could not close redis storage", "error", closeErr)
			}
		}()
		gameRepo = repository.NewGameRepository(redisStorage)
	}

	if !conf.Hardware.Simulated {
		return ErrNoHardware
	}
	simBoard := hardware.NewSimBoard()
	simStrip := hardware.NewSimStrip()

	driver := board.NewDriver(logger, simStrip)
	defer driver.Close()
	driver.SetBrightness(conf.Board.Brightness)

	sensors := board.NewSensorGrid(simBoard, simBoard)

	latches := &game.Latches{}
	state := &game.State{}
	resolver := game.NewResolver(ctx, logger, driver, sensors, chess.NewEngine(), store, latches)
	resolver.SetPollInterval(conf.Board.PollInterval())

	engineClient := engine.NewClient(logger, conf.Engine.URL,
		&http.Client{Timeout: conf.Engine.Timeout()},
		engine.Settings{Depth: conf.Engine.Depth, Retries: conf.Engine.Retries})

	app := &boardApp{
		logger:       logger,
		log:          log,
		conf:         conf,
		store:        store,
		gameRepo:     gameRepo,
		driver:       driver,
		sensors:      sensors,
		resolver:     resolver,
		engineClient: engineClient,
		latches:      latches,
		state:        state,
		selector:     game.NewSelector(logger, game.BuildMenus(driver, sensors), latches),
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		handlers := rest.NewHandlers(logger, state, latches, driver, store)
		if httpErr := rest.Start(ctx, conf.HTTPPort, handlers); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run the game loop
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		app.runGameLoop(ctx)
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-loopDone:
		log.Info("Game loop finished, shutting down")
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// boardApp owns the long-lived collaborators of the game loop.
type boardApp struct {
	logger *slog.Logger
	log    *slog.Logger
	conf   *config.Config

	store        *history.Store
	gameRepo     repository.GameRepository
	driver       *board.Driver
	sensors      *board.SensorGrid
	resolver     *game.Resolver
	engineClient *engine.Client
	latches      *game.Latches
	state        *game.State
	selector     *game.Selector
}

// runGameLoop alternates between game selection and playing the chosen
// mode until the context ends.
func (that *boardApp) runGameLoop(ctx context.Context) {
	mode, resumed := that.checkForResumableGame(ctx)

	for ctx.Err() == nil {
		if mode == nil {
			mode = that.selectMode(ctx)
			if mode == nil {
				return
			}
		}

		if !resumed {
			// A live record that was neither finished nor resumed is stale.
			if err := that.store.DiscardLiveGame(ctx); err != nil {
				that.log.Error("could not discard stale live game", "error", err)
			}
		}
		resumed = false

		that.log.Info("Starting mode", "mode", mode.Name())
		if err := mode.Begin(); err != nil {
			that.log.Error("Mode failed to start", "mode", mode.Name(), "error", err)
			mode = nil
			continue
		}

		for ctx.Err() == nil && !mode.Over() {
			mode.Update()
			that.publishState(mode)
		}

		that.resolver.SetHooks(nil)
		mode = nil
	}
}

// selectMode runs the board menus (and watches the web latch) until a
// mode is chosen.
func (that *boardApp) selectMode(ctx context.Context) game.Mode {
	that.selector.Enter()
	that.state.Publish(game.Snapshot{Status: "selection"})

	for ctx.Err() == nil {
		that.sensors.Poll()
		modeID, conf := that.selector.Poll()
		that.sensors.Commit()

		if modeID != 0 {
			if mode := that.buildMode(modeID, conf, nil); mode != nil {
				return mode
			}
			that.selector.Enter()
		}

		time.Sleep(that.conf.Board.PollInterval())
	}
	return nil
}

func (that *boardApp) buildMode(modeID int, conf game.ModeConfig, resume *game.ResumeState) game.Mode {
	switch modeID {
	case game.ModeTwoPlayer:
		return game.NewTwoPlayerMode(that.logger, that.resolver, resume)
	case game.ModeEngine:
		return game.NewEngineMode(that.logger, that.resolver, that.engineClient, conf, resume)
	case game.ModeOnline:
		if that.gameRepo == nil {
			that.log.Error("Online mode requires redis", "error", apperror.ErrUnknownMode)
			return nil
		}
		return game.NewOnlineMode(that.logger, that.resolver, that.gameRepo, conf)
	case game.ModeSensorTest:
		return game.NewSensorTestMode(that.logger, that.resolver)
	default:
		that.log.Error("Unknown game mode", "mode", modeID)
		return nil
	}
}

// checkForResumableGame offers to continue a live game found in the
// archive. A blinking center square announces the find; the confirm
// dialog decides.
func (that *boardApp) checkForResumableGame(ctx context.Context) (game.Mode, bool) {
	live, err := that.store.LiveGame(ctx)
	if errors.Is(err, apperror.ErrNoActiveGame) {
		return nil, false
	}
	if err != nil {
		that.log.Error("could not check for live game", "error", err)
		return nil, false
	}

	var modeID int
	indicator := board.ColorWhite
	flipped := false
	switch live.Mode {
	case game.ModeNameTwoPlayer:
		modeID = game.ModeTwoPlayer
		indicator = board.ColorBlue
	case game.ModeNameEngine:
		modeID = game.ModeEngine
		indicator = board.ColorGreen
		flipped = live.PlayerColor == chess.Black
	default:
		that.log.Info("Unknown live game mode, discarding", "mode", live.Mode)
		if err = that.store.DiscardLiveGame(ctx); err != nil {
			that.log.Error("could not discard live game", "error", err)
		}
		return nil, false
	}

	that.log.Info("Live game found", "mode", live.Mode, "moves", len(live.Moves))
	that.driver.BlinkSquare(3, 3, indicator, 2, false, true)
	that.driver.Drain()

	if !menu.Confirm(that.driver, that.sensors, flipped) {
		that.log.Info("Live game discarded")
		if err = that.store.DiscardLiveGame(ctx); err != nil {
			that.log.Error("could not discard live game", "error", err)
		}
		return nil, false
	}

	that.store.ResumeGame(live.GameID)
	resume := &game.ResumeState{
		PlayerColor: live.PlayerColor,
		EngineDepth: live.EngineDepth,
		Moves:       live.Moves,
	}
	if n := len(live.FENs); n > 0 {
		resume.BaselineFEN = live.FENs[n-1]
	}
	conf := game.ModeConfig{PlayWhite: live.PlayerColor != chess.Black}
	return that.buildMode(modeID, conf, resume), true
}

func (that *boardApp) publishState(mode game.Mode) {
	status := "ongoing"
	winner := ""
	if that.resolver.GameOver() {
		status = "finished"
		if w := that.resolver.Winner(); w != 0 {
			winner = chess.ColorName(w)
		}
	}

	that.state.Publish(game.Snapshot{
		FEN:    that.resolver.CurrentFEN(),
		Turn:   chess.ColorName(that.resolver.Turn()),
		Mode:   mode.Name(),
		Status: status,
		Winner: winner,
	})
}
