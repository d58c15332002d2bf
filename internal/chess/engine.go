package chess

import "strings"

const (
	startFullmove = 1
	// A halfmove clock of 100 means fifty full moves without a pawn
	// move or capture.
	fiftyMovePlies = 100
	// threefoldCount is how often a position must recur to claim a draw.
	threefoldCount = 3
)

var (
	knightOffsets = [8][2]int{{-2, -1}, {-2, 1}, {-1, -2}, {-1, 2}, {1, -2}, {1, 2}, {2, -1}, {2, 1}}
	kingOffsets   = [8][2]int{{-1, -1}, {-1, 0}, {-1, 1}, {0, -1}, {0, 1}, {1, -1}, {1, 0}, {1, 1}}
	diagonalDirs  = [4][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	straightDirs  = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
)

// Engine is the rule oracle: legal move generation, check and mate
// detection, and the draw bookkeeping (halfmove clock, repetition
// table). It holds no board of its own; callers pass the position in
// and the engine keeps only the state the board array cannot express.
type Engine struct {
	castlingRights uint8
	enPassant      *Square
	halfmoveClock  int
	fullmoveNumber int
	positions      map[string]int
	lastPosition   string
}

func NewEngine() *Engine {
	that := &Engine{}
	that.Reset()
	return that
}

// Reset restores the bookkeeping for a fresh game from the starting
// position.
func (that *Engine) Reset() {
	that.castlingRights = CastleWhiteKingside | CastleWhiteQueenside | CastleBlackKingside | CastleBlackQueenside
	that.enPassant = nil
	that.halfmoveClock = 0
	that.fullmoveNumber = startFullmove
	that.positions = make(map[string]int)
	that.lastPosition = ""
}

// LoadPosition adopts an externally supplied position's bookkeeping.
// The repetition table restarts; positions before the import cannot
// recur.
func (that *Engine) LoadPosition(pos Position) {
	that.castlingRights = pos.CastlingRights
	that.enPassant = pos.EnPassant
	that.halfmoveClock = pos.HalfmoveClock
	that.fullmoveNumber = pos.FullmoveNumber
	that.positions = make(map[string]int)
	that.lastPosition = ""
}

func (that *Engine) CastlingRights() uint8     { return that.castlingRights }
func (that *Engine) SetCastlingRights(r uint8) { that.castlingRights = r }
func (that *Engine) EnPassantTarget() *Square  { return that.enPassant }
func (that *Engine) ClearEnPassantTarget()     { that.enPassant = nil }
func (that *Engine) HalfmoveClock() int        { return that.halfmoveClock }
func (that *Engine) FullmoveNumber() int       { return that.fullmoveNumber }

func (that *Engine) SetEnPassantTarget(row, col int) {
	that.enPassant = &Square{Row: row, Col: col}
}

// UpdateHalfmoveClock resets the clock on a pawn move or capture and
// ticks it otherwise.
func (that *Engine) UpdateHalfmoveClock(movedPiece, capturedPiece byte) {
	if IsPawn(movedPiece) || capturedPiece != Empty {
		that.halfmoveClock = 0
		return
	}
	that.halfmoveClock++
}

// IncrementFullmoveClock ticks the move counter after black's move.
func (that *Engine) IncrementFullmoveClock(turn byte) {
	if turn == Black {
		that.fullmoveNumber++
	}
}

// RecordPosition adds the position to the repetition table. The key
// includes the side to move, castling rights, and en passant file, per
// the repetition rule's definition of "same position".
func (that *Engine) RecordPosition(b Board, turn byte) {
	key := that.positionKey(b, turn)
	that.positions[key]++
	that.lastPosition = key
}

func (that *Engine) positionKey(b Board, turn byte) string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		sb.Write(b[row][:])
	}
	sb.WriteByte(turn)
	sb.WriteByte(that.castlingRights)
	if that.enPassant != nil {
		sb.WriteString(SquareName(that.enPassant.Row, that.enPassant.Col))
	}
	return sb.String()
}

func (that *Engine) IsFiftyMoveRule() bool {
	return that.halfmoveClock >= fiftyMovePlies
}

func (that *Engine) IsThreefoldRepetition() bool {
	return that.positions[that.lastPosition] >= threefoldCount
}

// IsPawnPromotion reports whether the piece just arriving on toRow is a
// pawn reaching its back rank.
func (that *Engine) IsPawnPromotion(piece byte, toRow int) bool {
	if !IsPawn(piece) {
		return false
	}
	if PieceColor(piece) == White {
		return toRow == 0
	}
	return toRow == 7
}

// FindKing locates the king of the given side.
func (that *Engine) FindKing(b Board, turn byte) (int, int, bool) {
	king := byte('K')
	if turn == Black {
		king = 'k'
	}
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if b[row][col] == king {
				return row, col, true
			}
		}
	}
	return 0, 0, false
}

// IsKingInCheck reports whether the given side's king is attacked.
func (that *Engine) IsKingInCheck(b Board, turn byte) bool {
	row, col, ok := that.FindKing(b, turn)
	if !ok {
		return false
	}
	return squareAttacked(b, row, col, Opponent(turn))
}

func (that *Engine) IsCheckmate(b Board, turn byte) bool {
	return that.IsKingInCheck(b, turn) && !that.hasLegalMoves(b, turn)
}

func (that *Engine) IsStalemate(b Board, turn byte) bool {
	return !that.IsKingInCheck(b, turn) && !that.hasLegalMoves(b, turn)
}

func (that *Engine) hasLegalMoves(b Board, turn byte) bool {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if PieceColor(b[row][col]) != turn {
				continue
			}
			if len(that.LegalMoves(b, row, col)) > 0 {
				return true
			}
		}
	}
	return false
}

// LegalMoves lists the destinations the piece on (row, col) may move
// to. Moves that would leave the mover's own king attacked are
// filtered out.
func (that *Engine) LegalMoves(b Board, row, col int) []Square {
	piece := b[row][col]
	if piece == Empty {
		return nil
	}
	color := PieceColor(piece)

	var pseudo []Square
	switch upper(piece) {
	case 'P':
		pseudo = that.pawnMoves(b, row, col, color)
	case 'N':
		pseudo = offsetMoves(b, row, col, color, knightOffsets[:])
	case 'B':
		pseudo = slidingMoves(b, row, col, color, diagonalDirs[:])
	case 'R':
		pseudo = slidingMoves(b, row, col, color, straightDirs[:])
	case 'Q':
		pseudo = slidingMoves(b, row, col, color, diagonalDirs[:])
		pseudo = append(pseudo, slidingMoves(b, row, col, color, straightDirs[:])...)
	case 'K':
		pseudo = offsetMoves(b, row, col, color, kingOffsets[:])
		pseudo = append(pseudo, that.castlingMoves(b, row, col, color)...)
	}

	legal := pseudo[:0]
	for _, sq := range pseudo {
		if that.moveLeavesKingSafe(b, row, col, sq.Row, sq.Col, color) {
			legal = append(legal, sq)
		}
	}
	return legal
}

func (that *Engine) pawnMoves(b Board, row, col int, color byte) []Square {
	dir, startRow := -1, 6
	if color == Black {
		dir, startRow = 1, 1
	}

	var moves []Square

	forward := row + dir
	if onBoard(forward, col) && b[forward][col] == Empty {
		moves = append(moves, Square{Row: forward, Col: col})
		if row == startRow && b[row+2*dir][col] == Empty {
			moves = append(moves, Square{Row: row + 2*dir, Col: col})
		}
	}

	for _, dc := range [2]int{-1, 1} {
		toCol := col + dc
		if !onBoard(forward, toCol) {
			continue
		}
		target := b[forward][toCol]
		if target != Empty && PieceColor(target) != color {
			moves = append(moves, Square{Row: forward, Col: toCol})
			continue
		}
		if that.enPassant != nil && that.enPassant.Row == forward && that.enPassant.Col == toCol {
			moves = append(moves, Square{Row: forward, Col: toCol})
		}
	}

	return moves
}

// castlingMoves yields the king's two-square hops when the rights
// remain, the path is clear, and neither the king's square nor the
// square it crosses is attacked.
func (that *Engine) castlingMoves(b Board, row, col int, color byte) []Square {
	if col != 4 {
		return nil
	}
	homeRow := 7
	kingside, queenside := CastleWhiteKingside, CastleWhiteQueenside
	if color == Black {
		homeRow = 0
		kingside, queenside = CastleBlackKingside, CastleBlackQueenside
	}
	if row != homeRow {
		return nil
	}

	enemy := Opponent(color)
	if squareAttacked(b, row, col, enemy) {
		return nil
	}

	var moves []Square
	if that.castlingRights&kingside != 0 &&
		b[row][5] == Empty && b[row][6] == Empty &&
		!squareAttacked(b, row, 5, enemy) {
		moves = append(moves, Square{Row: row, Col: 6})
	}
	if that.castlingRights&queenside != 0 &&
		b[row][1] == Empty && b[row][2] == Empty && b[row][3] == Empty &&
		!squareAttacked(b, row, 3, enemy) {
		moves = append(moves, Square{Row: row, Col: 2})
	}
	return moves
}

// moveLeavesKingSafe plays the move on a copy, removing the en passant
// victim when applicable, and checks the mover's king.
func (that *Engine) moveLeavesKingSafe(b Board, fromRow, fromCol, toRow, toCol int, color byte) bool {
	piece := b[fromRow][fromCol]
	if IsEnPassantMove(fromRow, fromCol, toRow, toCol, piece, b[toRow][toCol]) {
		b[EnPassantCapturedPawnRow(toRow, piece)][toCol] = Empty
	}
	b[toRow][toCol] = piece
	b[fromRow][fromCol] = Empty
	return !that.IsKingInCheck(b, color)
}

func offsetMoves(b Board, row, col int, color byte, offsets [][2]int) []Square {
	var moves []Square
	for _, off := range offsets {
		toRow, toCol := row+off[0], col+off[1]
		if !onBoard(toRow, toCol) {
			continue
		}
		if target := b[toRow][toCol]; target == Empty || PieceColor(target) != color {
			moves = append(moves, Square{Row: toRow, Col: toCol})
		}
	}
	return moves
}

func slidingMoves(b Board, row, col int, color byte, dirs [][2]int) []Square {
	var moves []Square
	for _, dir := range dirs {
		toRow, toCol := row+dir[0], col+dir[1]
		for onBoard(toRow, toCol) {
			target := b[toRow][toCol]
			if target != Empty {
				if PieceColor(target) != color {
					moves = append(moves, Square{Row: toRow, Col: toCol})
				}
				break
			}
			moves = append(moves, Square{Row: toRow, Col: toCol})
			toRow, toCol = toRow+dir[0], toCol+dir[1]
		}
	}
	return moves
}

// squareAttacked reports whether the given side attacks the square.
func squareAttacked(b Board, row, col int, byColor byte) bool {
	pawn, knight, bishop, rook, queen, king := byte('P'), byte('N'), byte('B'), byte('R'), byte('Q'), byte('K')
	pawnDir := 1
	if byColor == Black {
		pawn, knight, bishop, rook, queen, king = 'p', 'n', 'b', 'r', 'q', 'k'
		pawnDir = -1
	}

	// White pawns attack upward (toward row 0), so they sit one row
	// below their target; black pawns one row above.
	pawnRow := row + pawnDir
	if pawnRow >= 0 && pawnRow < 8 {
		if col > 0 && b[pawnRow][col-1] == pawn {
			return true
		}
		if col < 7 && b[pawnRow][col+1] == pawn {
			return true
		}
	}

	for _, off := range knightOffsets {
		r, c := row+off[0], col+off[1]
		if onBoard(r, c) && b[r][c] == knight {
			return true
		}
	}

	for _, off := range kingOffsets {
		r, c := row+off[0], col+off[1]
		if onBoard(r, c) && b[r][c] == king {
			return true
		}
	}

	for _, dir := range diagonalDirs {
		r, c := row+dir[0], col+dir[1]
		for onBoard(r, c) {
			if piece := b[r][c]; piece != Empty {
				if piece == bishop || piece == queen {
					return true
				}
				break
			}
			r, c = r+dir[0], c+dir[1]
		}
	}

	for _, dir := range straightDirs {
		r, c := row+dir[0], col+dir[1]
		for onBoard(r, c) {
			if piece := b[r][c]; piece != Empty {
				if piece == rook || piece == queen {
					return true
				}
				break
			}
			r, c = r+dir[0], c+dir[1]
		}
	}

	return false
}

func onBoard(row, col int) bool {
	return row >= 0 && row < 8 && col >= 0 && col < 8
}
