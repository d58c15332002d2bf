package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/openchess/chessboard-backend/internal/board"
	"github.com/openchess/chessboard-backend/internal/chess"
	"github.com/openchess/chessboard-backend/internal/game"
	"github.com/openchess/chessboard-backend/internal/history"
)

// archive is the slice of the game store the web surface needs.
type archive interface {
	ListGames(ctx context.Context) ([]history.GameSummary, error)
	DeleteGame(ctx context.Context, gameID int64) error
}

// Handlers is the board's control surface. Commands go through the
// game loop's latches; reads come from the published snapshot. No
// handler touches the board hardware directly except the brightness
// setting, which the LED driver accepts from any goroutine.
type Handlers struct {
	logger  *slog.Logger
	state   *game.State
	latches *game.Latches
	driver  *board.Driver
	games   archive
}

func NewHandlers(logger *slog.Logger, state *game.State, latches *game.Latches, driver *board.Driver, games archive) *Handlers {
	return &Handlers{
		logger:  logger.With("component", "rest"),
		state:   state,
		latches: latches,
		driver:  driver,
		games:   games,
	}
}

func (that *Handlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// BoardUpdate returns the live game snapshot.
func (that *Handlers) BoardUpdate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, that.state.Snapshot())
}

// BoardEdit latches a FEN for the game loop to impose.
func (that *Handlers) BoardEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FEN string `json:"fen"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FEN == "" {
		http.Error(w, "missing fen", http.StatusBadRequest)
		return
	}
	if _, err := chess.ParseFEN(req.FEN); err != nil {
		http.Error(w, "invalid fen", http.StatusBadRequest)
		return
	}

	that.latches.RequestBoardEdit(req.FEN)
	that.logger.Info("board edit queued", "fen", req.FEN)
	w.WriteHeader(http.StatusAccepted)
}

// GameSelect latches a game mode selection.
func (that *Handlers) GameSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode        string `json:"mode"`
		EngineLevel int    `json:"engine_level,omitempty"`
		PlayWhite   *bool  `json:"play_white,omitempty"`
		OnlineID    string `json:"online_id,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	mode, ok := modeFromName(req.Mode)
	if !ok {
		http.Error(w, "unknown mode", http.StatusBadRequest)
		return
	}

	conf := game.ModeConfig{
		EngineLevel: req.EngineLevel,
		PlayWhite:   req.PlayWhite == nil || *req.PlayWhite,
		OnlineID:    req.OnlineID,
	}
	that.latches.RequestMode(mode, conf)
	that.logger.Info("game mode queued", "mode", req.Mode)
	w.WriteHeader(http.StatusAccepted)
}

// Resign latches a resignation for the side to move.
func (that *Handlers) Resign(w http.ResponseWriter, _ *http.Request) {
	that.latches.RequestResign()
	that.logger.Info("resign queued")
	w.WriteHeader(http.StatusAccepted)
}

func (that *Handlers) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"brightness": int(that.driver.GetBrightness())})
}

func (that *Handlers) SetSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Brightness *int `json:"brightness"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Brightness == nil {
		http.Error(w, "missing brightness", http.StatusBadRequest)
		return
	}
	if *req.Brightness < 0 || *req.Brightness > 255 {
		http.Error(w, "brightness out of range", http.StatusBadRequest)
		return
	}

	that.driver.SetBrightness(uint8(*req.Brightness))
	that.logger.Info("brightness set", "brightness", *req.Brightness)
	w.WriteHeader(http.StatusOK)
}

func (that *Handlers) ListGames(w http.ResponseWriter, r *http.Request) {
	if that.games == nil {
		writeJSON(w, http.StatusOK, []history.GameSummary{})
		return
	}

	games, err := that.games.ListGames(r.Context())
	if err != nil {
		that.logger.Error("failed to list games", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if games == nil {
		games = []history.GameSummary{}
	}
	writeJSON(w, http.StatusOK, games)
}

func (that *Handlers) DeleteGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "bad game id", http.StatusBadRequest)
		return
	}
	if that.games == nil {
		http.Error(w, "no archive", http.StatusNotFound)
		return
	}

	if err = that.games.DeleteGame(r.Context(), gameID); err != nil {
		that.logger.Error("failed to delete game", "game_id", gameID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func modeFromName(name string) (int, bool) {
	switch name {
	case game.ModeNameTwoPlayer:
		return game.ModeTwoPlayer, true
	case game.ModeNameEngine:
		return game.ModeEngine, true
	case game.ModeNameOnline:
		return game.ModeOnline, true
	case game.ModeNameSensorTest:
		return game.ModeSensorTest, true
	}
	return 0, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
