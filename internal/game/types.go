package game

import (
	"context"
	"sync"

	"github.com/openchess/chessboard-backend/internal/chess"
)

// Game result labels passed to the move history.
const (
	ResultCheckmate   = "checkmate"
	ResultStalemate   = "stalemate"
	ResultResignation = "resignation"
	ResultFiftyMove   = "fifty-move"
	ResultThreefold   = "threefold"
)

// RuleEngine is the chess rule oracle the resolver consults. It is a
// black box: the resolver assumes the calls are queries with no side
// effects beyond the bookkeeping the engine itself owns (position
// history, clocks, castling rights, en passant target).
type RuleEngine interface {
	Reset()
	LegalMoves(b chess.Board, row, col int) []chess.Square
	IsCheckmate(b chess.Board, turn byte) bool
	IsStalemate(b chess.Board, turn byte) bool
	IsKingInCheck(b chess.Board, turn byte) bool
	IsFiftyMoveRule() bool
	IsThreefoldRepetition() bool
	IsPawnPromotion(piece byte, toRow int) bool
	FindKing(b chess.Board, turn byte) (row, col int, ok bool)

	RecordPosition(b chess.Board, turn byte)
	CastlingRights() uint8
	SetCastlingRights(rights uint8)
	SetEnPassantTarget(row, col int)
	ClearEnPassantTarget()
	EnPassantTarget() *chess.Square
	UpdateHalfmoveClock(movedPiece, capturedPiece byte)
	HalfmoveClock() int
	IncrementFullmoveClock(turn byte)
	FullmoveNumber() int
	LoadPosition(pos chess.Position)
}

// History archives committed moves and game results. Failures are
// logged, never propagated; persistence is best-effort.
type History interface {
	StartGame(ctx context.Context, mode string, playerColor byte, engineDepth int) error
	IsRecording() bool
	AddMove(ctx context.Context, move chess.Move) error
	AddFEN(ctx context.Context, fen string) error
	FinishGame(ctx context.Context, result string, winner byte) error
}

// GameModeHooks lets a mode extend resign handling. The online mode
// notifies the remote side before the local commit; other modes use
// NopHooks. Returning false aborts the resignation.
type GameModeHooks interface {
	OnResignConfirmed(color byte) bool
}

// NopHooks accepts every resignation without side effects.
type NopHooks struct{}

func (NopHooks) OnResignConfirmed(byte) bool { return true }

// Snapshot is the game state published to the web layer after each
// tick of the game loop.
type Snapshot struct {
	FEN    string `json:"fen"`
	Turn   string `json:"turn"`
	Mode   string `json:"mode"`
	Status string `json:"status"`
	Winner string `json:"winner,omitempty"`
}

// State hands the loop's latest snapshot to concurrent readers.
type State struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

func (that *State) Publish(snapshot Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.snapshot = snapshot
}

func (that *State) Snapshot() Snapshot {
	that.mu.RLock()
	defer that.mu.RUnlock()
	return that.snapshot
}

// Latches is the handoff point between the web layer and the game loop.
// Producers set a value at any time; the loop consumes it at the top of
// a tick and clears it. There is no acknowledgment beyond the clear.
type Latches struct {
	mu sync.Mutex

	resign   bool
	editFEN  string
	hasEdit  bool
	mode     int
	hasMode  bool
	modeConf ModeConfig
}

// ModeConfig carries the parameters of a web-originated mode selection.
type ModeConfig struct {
	EngineLevel int
	PlayWhite   bool
	OnlineID    string
}

// RequestResign latches a resignation request for the side to move.
func (that *Latches) RequestResign() {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.resign = true
}

// TakeResign consumes a pending resignation request.
func (that *Latches) TakeResign() bool {
	that.mu.Lock()
	defer that.mu.Unlock()
	pending := that.resign
	that.resign = false
	return pending
}

// RequestBoardEdit latches a FEN to impose on the active game.
func (that *Latches) RequestBoardEdit(fen string) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.editFEN = fen
	that.hasEdit = true
}

// TakeBoardEdit consumes a pending board edit.
func (that *Latches) TakeBoardEdit() (string, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()
	if !that.hasEdit {
		return "", false
	}
	fen := that.editFEN
	that.editFEN = ""
	that.hasEdit = false
	return fen, true
}

// RequestMode latches a game mode selection made from the web UI.
func (that *Latches) RequestMode(mode int, conf ModeConfig) {
	that.mu.Lock()
	defer that.mu.Unlock()
	that.mode = mode
	that.modeConf = conf
	that.hasMode = true
}

// TakeMode consumes a pending mode selection.
func (that *Latches) TakeMode() (int, ModeConfig, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()
	if !that.hasMode {
		return 0, ModeConfig{}, false
	}
	mode := that.mode
	conf := that.modeConf
	that.hasMode = false
	return mode, conf, true
}
