package game

import (
	"log/slog"
	"math/rand"

	"github.com/openchess/chessboard-backend/internal/menu"
)

// Selector runs the game-selection flow: the root menu in the board's
// center, with the difficulty and side menus stacked on top of it for
// the engine path. A selection latched from the web UI wins over the
// physical menus.
type Selector struct {
	logger    *slog.Logger
	navigator *menu.Navigator
	menus     *Menus
	latches   *Latches

	pendingConf ModeConfig
}

func NewSelector(logger *slog.Logger, menus *Menus, latches *Latches) *Selector {
	return &Selector{
		logger:    logger.With("component", "selector"),
		navigator: menu.NewNavigator(logger),
		menus:     menus,
		latches:   latches,
	}
}

// Enter (re)starts the selection flow from the root menu.
func (that *Selector) Enter() {
	that.pendingConf = ModeConfig{}
	that.navigator.Clear()
	that.navigator.Push(that.menus.Game)
	that.logger.Info("game selection: place a piece on a lit square",
		"two_player", "blue", "engine", "green", "online", "yellow", "sensor_test", "red")
}

// Poll advances the selection flow one tick. Returns the chosen mode
// and its configuration once a leaf selection lands; mode 0 means no
// decision yet. The caller polls the sensors before each call.
func (that *Selector) Poll() (int, ModeConfig) {
	if mode, conf, ok := that.latches.TakeMode(); ok {
		that.logger.Info("game mode selected via web interface", "mode", mode)
		that.navigator.Clear()
		return mode, conf
	}

	result := that.navigator.Poll()
	if result == menu.ResultNone || result == menu.ResultBack {
		return 0, ModeConfig{}
	}
	return that.route(result)
}

func (that *Selector) route(result int) (int, ModeConfig) {
	switch {
	case result == MenuTwoPlayer:
		that.logger.Info("mode selected", "mode", "two-player")
		that.navigator.Clear()
		return ModeTwoPlayer, ModeConfig{}

	case result == MenuEngine:
		that.logger.Info("mode selected", "mode", "engine")
		that.navigator.Push(that.menus.Difficulty)

	case result == MenuOnline:
		that.logger.Info("mode selected", "mode", "online")
		that.navigator.Clear()
		return ModeOnline, ModeConfig{}

	case result == MenuSensorTest:
		that.logger.Info("mode selected", "mode", "sensor-test")
		that.navigator.Clear()
		return ModeSensorTest, ModeConfig{}

	case result >= menuDifficultyBase && result < menuDifficultyBase+8:
		level := result - menuDifficultyBase + 1
		that.pendingConf.EngineLevel = level
		that.logger.Info("difficulty selected", "level", level)
		that.navigator.Push(that.menus.Side)

	case result == MenuPlayWhite, result == MenuPlayBlack, result == MenuPlayRandom:
		playWhite := result == MenuPlayWhite
		if result == MenuPlayRandom {
			playWhite = rand.Intn(2) == 0
		}
		that.pendingConf.PlayWhite = playWhite
		that.logger.Info("side selected", "white", playWhite)
		that.navigator.Clear()
		return ModeEngine, that.pendingConf

	default:
		that.logger.Warn("unknown menu result", "result", result)
	}

	return 0, ModeConfig{}
}
