package game

import (
	"github.com/openchess/chessboard-backend/internal/board"
	"github.com/openchess/chessboard-backend/internal/chess"
)

// ApplyMove commits a resolved (or remote) move to the board and plays
// its feedback. The move is assumed legal; validation happens upstream.
// Remote moves additionally walk the player through performing them on
// the physical board.
func (that *Resolver) ApplyMove(move chess.Move, isRemote bool) {
	piece := that.board[move.FromRow][move.FromCol]
	captured := that.board[move.ToRow][move.ToCol]
	isCastling := chess.IsCastlingMove(move.FromRow, move.FromCol, move.ToRow, move.ToCol, piece)
	isEnPassant := chess.IsEnPassantMove(move.FromRow, move.FromCol, move.ToRow, move.ToCol, piece, captured)
	capturedPawnRow := chess.EnPassantCapturedPawnRow(move.ToRow, piece)

	// A double pawn push exposes the skipped square to en passant for
	// exactly one reply; anything else clears the target.
	if chess.IsPawn(piece) && abs(move.ToRow-move.FromRow) == 2 {
		that.rules.SetEnPassantTarget((move.FromRow+move.ToRow)/2, move.FromCol)
	} else {
		that.rules.ClearEnPassantTarget()
	}

	if isEnPassant {
		captured = that.board[capturedPawnRow][move.ToCol]
		that.board[capturedPawnRow][move.ToCol] = chess.Empty
	}

	that.rules.UpdateHalfmoveClock(piece, captured)

	that.board[move.ToRow][move.ToCol] = piece
	that.board[move.FromRow][move.FromCol] = chess.Empty

	that.logger.Info("move applied",
		"move", move.String(), "piece", string(piece), "remote", isRemote)

	if isRemote && !isCastling && !that.replaying {
		that.guideRemoteMove(move, captured != chess.Empty, isEnPassant, capturedPawnRow)
	}

	if isCastling {
		that.applyCastling(move, piece, isRemote)
	}

	that.rules.SetCastlingRights(chess.UpdateCastlingRights(
		that.rules.CastlingRights(),
		move.FromRow, move.FromCol, move.ToRow, move.ToCol,
		piece, captured))

	if !that.replaying {
		if captured != chess.Empty {
			that.driver.CaptureAnimation(move.ToRow, move.ToCol)
		} else {
			that.driver.BlinkSquare(move.ToRow, move.ToCol, board.ColorGreen, 1, false, true)
		}
	}

	if that.rules.IsPawnPromotion(piece, move.ToRow) {
		move.Promotion = that.promotePawn(move, piece)
	}

	that.recordMove(move)
}

// promotePawn replaces the pawn on its back rank. An explicit promotion
// byte (from a remote/UCI move) wins; the physical board defaults to a
// queen since the sensors cannot tell piece types apart.
func (that *Resolver) promotePawn(move chess.Move, pawn byte) byte {
	promoted := move.Promotion
	if promoted == 0 {
		promoted = 'Q'
	}
	if chess.PieceColor(pawn) == chess.Black {
		promoted = promoted | 0x20
	} else {
		promoted = promoted &^ 0x20
	}

	that.board[move.ToRow][move.ToCol] = promoted
	that.logger.Info("pawn promoted",
		"square", chess.SquareName(move.ToRow, move.ToCol), "piece", string(promoted))

	if !that.replaying {
		that.driver.PromotionAnimation(move.ToCol)
	}
	return promoted
}

// applyCastling moves the rook, then prompts the player to slide it on
// the physical board. For a remote castling move the king relocation is
// prompted first, since the player has not touched either piece yet.
func (that *Resolver) applyCastling(move chess.Move, king byte, promptKing bool) {
	rookFromCol, rookToCol := chess.CastlingRookMove(move.ToCol)
	row := move.ToRow

	rook := that.board[row][rookFromCol]
	that.board[row][rookToCol] = rook
	that.board[row][rookFromCol] = chess.Empty

	that.logger.Info("castling",
		"king", chess.SquareName(row, move.ToCol),
		"rook", chess.SquareName(row, rookToCol))

	if that.replaying {
		return
	}

	if promptKing {
		that.promptPieceSlide(move.FromRow, move.FromCol, move.ToRow, move.ToCol)
	}
	that.promptPieceSlide(row, rookFromCol, row, rookToCol)
}

// promptPieceSlide lights a from/to pair and waits for the physical
// piece to make the trip.
func (that *Resolver) promptPieceSlide(fromRow, fromCol, toRow, toCol int) {
	that.driver.Acquire()
	that.driver.SetSquare(fromRow, fromCol, board.ColorCyan)
	that.driver.SetSquare(toRow, toCol, board.ColorWhite)
	that.driver.Present()
	that.driver.Release()

	for {
		that.sensors.Poll()
		if !that.sensors.Occupied(fromRow, fromCol) && that.sensors.Occupied(toRow, toCol) {
			break
		}
		that.sleep(that.pollInterval)
	}

	that.driver.Acquire()
	that.driver.SetSquare(fromRow, fromCol, board.ColorOff)
	that.driver.SetSquare(toRow, toCol, board.ColorOff)
	that.driver.Present()
	that.driver.Release()
	that.sensors.Commit()
}

// guideRemoteMove walks the player through executing an opponent's move
// delivered over the wire. For captures the victim square blinks red
// until the piece is taken off.
func (that *Resolver) guideRemoteMove(move chess.Move, isCapture, isEnPassant bool, capturedPawnRow int) {
	that.logger.Info("guiding remote move", "move", move.String())

	that.driver.Drain()

	capRow, capCol := move.ToRow, move.ToCol
	if isEnPassant {
		capRow = capturedPawnRow
	}

	if isCapture {
		that.driver.BlinkSquare(capRow, capCol, board.ColorRed, 2, false, false)
		for that.sensors.Occupied(capRow, capCol) {
			that.sensors.Poll()
			that.sleep(that.pollInterval)
		}
	}

	that.promptPieceSlide(move.FromRow, move.FromCol, move.ToRow, move.ToCol)
}

func (that *Resolver) recordMove(move chess.Move) {
	// Replayed moves are already on disk.
	if that.replaying || that.history == nil || !that.history.IsRecording() {
		return
	}
	if err := that.history.AddMove(that.ctx, move); err != nil {
		that.logger.Error("failed to record move", "move", move.String(), "error", err)
	}
	if err := that.history.AddFEN(that.ctx, that.CurrentFEN()); err != nil {
		that.logger.Error("failed to record position", "error", err)
	}
}

// AdvanceTurn passes the move to the other side and records the new
// position for repetition tracking.
func (that *Resolver) AdvanceTurn() {
	that.rules.IncrementFullmoveClock(that.turn)
	that.turn = chess.Opponent(that.turn)
	that.rules.RecordPosition(that.board, that.turn)
}

// UpdateGameStatus evaluates the position for the side to move and ends
// the game on checkmate, stalemate, the fifty-move rule, or threefold
// repetition. A non-terminal check blinks the checked king.
func (that *Resolver) UpdateGameStatus() {
	switch {
	case that.rules.IsCheckmate(that.board, that.turn):
		winner := chess.Opponent(that.turn)
		that.logger.Info("checkmate", "winner", chess.ColorName(winner))
		that.finishGame(winner, ResultCheckmate)
		that.driver.FireworkAnimation(sideColor(winner))

	case that.rules.IsStalemate(that.board, that.turn):
		that.logger.Info("stalemate")
		that.finishGame(0, ResultStalemate)
		that.driver.FireworkAnimation(board.ColorCyan)

	case that.rules.IsFiftyMoveRule():
		that.logger.Info("draw by fifty-move rule")
		that.finishGame(0, ResultFiftyMove)
		that.driver.FireworkAnimation(board.ColorCyan)

	case that.rules.IsThreefoldRepetition():
		that.logger.Info("draw by threefold repetition")
		that.finishGame(0, ResultThreefold)
		that.driver.FireworkAnimation(board.ColorCyan)

	case that.rules.IsKingInCheck(that.board, that.turn):
		if row, col, ok := that.rules.FindKing(that.board, that.turn); ok {
			that.logger.Info("check", "king", chess.SquareName(row, col))
			that.driver.BlinkSquare(row, col, board.ColorYellow, 3, false, true)
		}
	}
}

func (that *Resolver) finishGame(winner byte, result string) {
	that.gameOver = true
	that.winner = winner

	if that.history != nil && that.history.IsRecording() {
		if err := that.history.FinishGame(that.ctx, result, winner); err != nil {
			that.logger.Error("failed to finish recorded game", "error", err)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
