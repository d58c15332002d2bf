package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/openchess/chessboard-backend/internal/board"
	"github.com/openchess/chessboard-backend/internal/chess"
	"github.com/openchess/chessboard-backend/internal/menu"
)

// Resolver turns raw occupancy edges into committed chess moves. It owns
// the authoritative board array and the side to move; the board mutates
// only through a validated, committed move (or an explicit FEN edit).
//
// All blocking waits are poll-and-sleep loops on the single game-logic
// goroutine. Waits for human action have no overall timeout (the board
// waits for its player), except the resign quick-lift windows, which
// fail closed.
type Resolver struct {
	logger  *slog.Logger
	driver  *board.Driver
	sensors *board.SensorGrid
	rules   RuleEngine
	history History
	latches *Latches
	hooks   GameModeHooks

	ctx          context.Context
	confirm      func(flipped bool) bool
	now          func() time.Time
	sleep        func(time.Duration)
	pollInterval time.Duration

	board     chess.Board
	turn      byte
	gameOver  bool
	winner    byte
	replaying bool

	resignPhase     resignPhase
	resignLiftCount int
	resigningColor  byte
	resignKingRow   int
	resignKingCol   int
	resignLastEvent time.Time
}

func NewResolver(ctx context.Context, logger *slog.Logger, driver *board.Driver, sensors *board.SensorGrid, rules RuleEngine, history History, latches *Latches) *Resolver {
	that := &Resolver{
		logger:       logger.With("component", "resolver"),
		driver:       driver,
		sensors:      sensors,
		rules:        rules,
		history:      history,
		latches:      latches,
		hooks:        NopHooks{},
		ctx:          ctx,
		now:          time.Now,
		sleep:        time.Sleep,
		pollInterval: menu.DefaultPollInterval,
	}
	that.confirm = func(flipped bool) bool {
		return menu.Confirm(driver, sensors, flipped)
	}
	that.InitializeBoard()
	return that
}

// SetPollInterval overrides the sensor poll cadence from configuration.
func (that *Resolver) SetPollInterval(interval time.Duration) {
	if interval > 0 {
		that.pollInterval = interval
	}
}

// SetHooks installs the mode's resign extension.
func (that *Resolver) SetHooks(hooks GameModeHooks) {
	if hooks == nil {
		hooks = NopHooks{}
	}
	that.hooks = hooks
}

// InitializeBoard resets to the starting position, white to move.
func (that *Resolver) InitializeBoard() {
	that.board = chess.Initial()
	that.turn = chess.White
	that.gameOver = false
	that.winner = 0
	that.resetResignGesture()
	that.rules.Reset()
	that.rules.RecordPosition(that.board, that.turn)
}

// Board returns a copy of the authoritative position.
func (that *Resolver) Board() chess.Board {
	return that.board
}

// Turn returns the side to move.
func (that *Resolver) Turn() byte {
	return that.turn
}

// GameOver reports whether the game has ended.
func (that *Resolver) GameOver() bool {
	return that.gameOver
}

// Winner returns the winning side, or 0 for a draw or unfinished game.
func (that *Resolver) Winner() byte {
	return that.winner
}

// CurrentFEN serializes the live position with the engine's bookkeeping.
func (that *Resolver) CurrentFEN() string {
	return chess.ToFEN(chess.Position{
		Board:          that.board,
		Turn:           that.turn,
		CastlingRights: that.rules.CastlingRights(),
		EnPassant:      that.rules.EnPassantTarget(),
		HalfmoveClock:  that.rules.HalfmoveClock(),
		FullmoveNumber: that.rules.FullmoveNumber(),
	})
}

// SetBoardFromFEN imposes an externally supplied position (web editor).
func (that *Resolver) SetBoardFromFEN(fen string) error {
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		return err
	}

	that.board = pos.Board
	that.turn = pos.Turn
	that.rules.LoadPosition(pos)
	that.rules.RecordPosition(that.board, that.turn)

	if !that.replaying && that.history != nil && that.history.IsRecording() {
		if histErr := that.history.AddFEN(that.ctx, fen); histErr != nil {
			that.logger.Error("failed to record imposed position", "error", histErr)
		}
	}

	that.logger.Info("board state set from FEN", "fen", fen)
	return nil
}

// SetReplaying toggles replay mode: LED feedback and physical waits are
// suppressed while recorded moves are re-applied during resume.
func (that *Resolver) SetReplaying(replaying bool) {
	that.replaying = replaying
}

// WaitForBoardSetup blocks until the physical pieces match the target
// position, lighting missing squares in the side's color and stray
// pieces in red. Ends with a firework and a fresh edge baseline.
func (that *Resolver) WaitForBoardSetup(target chess.Board) {
	that.logger.Info("waiting for board setup")

	that.driver.Drain()
	that.driver.Acquire()
	that.driver.Clear(false)
	for {
		that.sensors.Poll()

		allCorrect := true
		for row := 0; row < board.NumRows; row++ {
			for col := 0; col < board.NumCols; col++ {
				shouldHave := target[row][col] != chess.Empty
				hasPiece := that.sensors.Occupied(row, col)

				switch {
				case shouldHave && !hasPiece:
					allCorrect = false
					that.driver.SetSquare(row, col, sideColor(chess.PieceColor(target[row][col])))
				case !shouldHave && hasPiece:
					allCorrect = false
					that.driver.SetSquare(row, col, board.ColorRed)
				default:
					that.driver.SetSquare(row, col, board.ColorOff)
				}
			}
		}
		that.driver.Present()

		if allCorrect {
			break
		}
		that.sleep(that.pollInterval)
	}
	that.driver.Release()

	that.logger.Info("board setup complete")
	that.driver.FireworkAnimation(board.ColorWhite)
	that.sensors.Poll()
	that.sensors.Commit()
}

// TryPlayerMove scans for a lift by the given side and resolves it into
// a move. Returns false with a zero move when the pickup was cancelled,
// the lift belonged to the wrong side, no lift happened this tick, or
// the lift turned into a resign gesture.
func (that *Resolver) TryPlayerMove(playerColor byte) (chess.Move, bool) {
	for idx := 0; idx < board.NumRows*board.NumCols; idx++ {
		row, col := idx/board.NumCols, idx%board.NumCols

		// A lift is: previously occupied, now empty.
		if !that.sensors.PreviousOccupied(row, col) || that.sensors.Occupied(row, col) {
			continue
		}

		piece := that.board[row][col]
		if piece == chess.Empty {
			continue
		}

		if chess.PieceColor(piece) != playerColor {
			that.logger.Info("wrong side's piece lifted",
				"square", chess.SquareName(row, col), "turn", chess.ColorName(playerColor))
			that.showIllegalMoveFeedback(row, col)
			continue
		}

		that.logger.Info("piece lifted", "piece", string(piece), "square", chess.SquareName(row, col))
		legalMoves := that.rules.LegalMoves(that.board, row, col)

		// Drain stale queued animations so the highlights land on a
		// clean strip.
		that.driver.Drain()
		that.showMoveHighlights(row, col, piece, legalMoves)

		targetRow, targetCol := that.waitForPlacement(row, col, piece, legalMoves)

		that.driver.Acquire()
		that.driver.Clear(true)
		that.driver.Release()

		if targetRow == row && targetCol == col {
			if that.resignPhase == resignGesturing {
				// Re-show the dim indicator the clear just wiped.
				that.showResignProgress(row, col, 0, false)
			} else {
				that.logger.Info("pickup cancelled", "square", chess.SquareName(row, col))
			}
			return chess.Move{}, false
		}

		// Defensive re-check against the legal-move list.
		if !containsSquare(legalMoves, targetRow, targetCol) {
			that.logger.Warn("illegal placement, reverting",
				"square", chess.SquareName(targetRow, targetCol))
			return chess.Move{}, false
		}

		return chess.Move{FromRow: row, FromCol: col, ToRow: targetRow, ToCol: targetCol}, true
	}

	return chess.Move{}, false
}

// showMoveHighlights lights the origin cyan, empty destinations white,
// capture destinations red, and the pawn actually captured en passant
// purple.
func (that *Resolver) showMoveHighlights(row, col int, piece byte, legalMoves []chess.Square) {
	that.driver.Acquire()
	defer that.driver.Release()

	that.driver.SetSquare(row, col, board.ColorCyan)
	for _, m := range legalMoves {
		isEnPassant := chess.IsEnPassantMove(row, col, m.Row, m.Col, piece, that.board[m.Row][m.Col])
		if that.board[m.Row][m.Col] == chess.Empty && !isEnPassant {
			that.driver.SetSquare(m.Row, m.Col, board.ColorWhite)
		} else {
			that.driver.SetSquare(m.Row, m.Col, board.ColorRed)
			if isEnPassant {
				that.driver.SetSquare(chess.EnPassantCapturedPawnRow(m.Row, piece), m.Col, board.ColorPurple)
			}
		}
	}
	that.driver.Present()
}

// waitForPlacement blocks until the lifted piece lands somewhere
// decisive: back on its origin (cancel, or resign arm for a king held
// off the board long enough), on a legal empty destination, or on a
// capture target whose occupant has been removed.
func (that *Resolver) waitForPlacement(row, col int, piece byte, legalMoves []chess.Square) (int, int) {
	isKing := chess.IsKing(piece)
	liftStart := that.now()
	resignTransitioned := false

	for {
		that.sensors.Poll()

		// A king held off its square long enough arms the resign
		// gesture: the move highlights give way to a dim indicator.
		if isKing && !resignTransitioned && that.now().Sub(liftStart) >= resignHoldDuration {
			resignTransitioned = true
			that.logger.Info("king held off square, resign gesture initiated",
				"square", chess.SquareName(row, col))
			that.showResignProgress(row, col, 0, true)
		}

		// Origin reoccupied: cancel (or enter the gesture phase).
		if that.sensors.Occupied(row, col) {
			if resignTransitioned {
				that.armResignGesture(row, col, chess.PieceColor(piece))
			}
			return row, col
		}

		if toRow, toCol, placed := that.checkDestinations(row, col, piece, legalMoves); placed {
			return toRow, toCol
		}

		that.sleep(that.pollInterval)
	}
}

// checkDestinations makes one pass over the legal destinations looking
// for a placement or a capture initiation.
func (that *Resolver) checkDestinations(row, col int, piece byte, legalMoves []chess.Square) (int, int, bool) {
	for _, m := range legalMoves {
		if m.Row == row && m.Col == col {
			continue
		}

		isEnPassant := chess.IsEnPassantMove(row, col, m.Row, m.Col, piece, that.board[m.Row][m.Col])
		capturedPawnRow := chess.EnPassantCapturedPawnRow(m.Row, piece)

		// Capture: the occupied target square (or the en passant pawn's
		// square) reads newly empty. This may happen before or after the
		// capturing piece lands; both orders are accepted.
		if that.board[m.Row][m.Col] != chess.Empty || isEnPassant {
			capturedGone := !that.sensors.Occupied(m.Row, m.Col)
			if isEnPassant {
				capturedGone = !that.sensors.Occupied(capturedPawnRow, m.Col)
			}
			if capturedGone {
				that.logger.Info("capture initiated", "square", chess.SquareName(m.Row, m.Col))
				if isEnPassant {
					that.driver.Acquire()
					that.driver.SetSquare(capturedPawnRow, m.Col, board.ColorOff)
					that.driver.Present()
					that.driver.Release()
				}
				settledRow, settledCol := that.waitForCaptureCompletion(row, col, m.Row, m.Col)
				return settledRow, settledCol, true
			}
			continue
		}

		// Non-capture: a piece lands on a legal empty destination.
		if that.sensors.Occupied(m.Row, m.Col) {
			return m.Row, m.Col, true
		}
	}
	return 0, 0, false
}

// waitForCaptureCompletion blinks the capture square and blocks until
// the capturing piece is placed there, or the mover backs out by
// returning the piece to its origin. Returns the square the piece
// settled on (the capture square, or the origin on cancel).
func (that *Resolver) waitForCaptureCompletion(fromRow, fromCol, toRow, toCol int) (int, int) {
	that.driver.BlinkSquare(toRow, toCol, board.ColorRed, 1, false, false)

	for !that.sensors.Occupied(toRow, toCol) {
		that.sensors.Poll()
		if that.sensors.Occupied(fromRow, fromCol) {
			that.logger.Info("capture cancelled")
			return fromRow, fromCol
		}
		that.sleep(that.pollInterval)
	}
	return toRow, toCol
}

func (that *Resolver) showIllegalMoveFeedback(row, col int) {
	that.driver.BlinkSquare(row, col, board.ColorRed, 2, false, true)
}

func containsSquare(squares []chess.Square, row, col int) bool {
	for _, sq := range squares {
		if sq.Row == row && sq.Col == col {
			return true
		}
	}
	return false
}

// sideColor maps a side to its indicator color: bright white for white,
// dim white for black.
func sideColor(color byte) board.Color {
	if color == chess.White {
		return board.ColorWhite
	}
	return board.ColorDimWhite
}
