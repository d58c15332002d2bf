package chess

// Castling-rights bits, matching the FEN ordering KQkq.
const (
	CastleWhiteKingside  uint8 = 0x01
	CastleWhiteQueenside uint8 = 0x02
	CastleBlackKingside  uint8 = 0x04
	CastleBlackQueenside uint8 = 0x08
)

// IsCastlingMove reports whether a move is castling: a king shifting two
// files along its own rank.
func IsCastlingMove(fromRow, fromCol, toRow, toCol int, piece byte) bool {
	delta := toCol - fromCol
	return IsKing(piece) && fromRow == toRow && (delta == 2 || delta == -2)
}

// CastlingRookMove returns the rook's from/to columns for a castling
// move of the given king destination column.
func CastlingRookMove(kingToCol int) (rookFromCol, rookToCol int) {
	if kingToCol == 6 {
		return 7, 5
	}
	return 0, 3
}

// IsEnPassantMove reports whether a pawn move is an en passant capture:
// a diagonal step onto an empty square.
func IsEnPassantMove(fromRow, fromCol, toRow, toCol int, piece, targetPiece byte) bool {
	if !IsPawn(piece) || targetPiece != Empty {
		return false
	}
	return fromCol != toCol && (toRow-fromRow == 1 || toRow-fromRow == -1)
}

// EnPassantCapturedPawnRow gives the row of the pawn actually removed by
// an en passant capture landing on toRow: the captured pawn sits on the
// mover's starting rank, one row behind the landing square.
func EnPassantCapturedPawnRow(toRow int, piece byte) int {
	if IsWhitePiece(piece) {
		return toRow + 1
	}
	return toRow - 1
}

// UpdateCastlingRights clears the rights invalidated by a move, per the
// fixed corner-square and piece-identity rules.
func UpdateCastlingRights(rights uint8, fromRow, fromCol, toRow, toCol int, movedPiece, capturedPiece byte) uint8 {
	switch movedPiece {
	case 'K':
		rights &^= CastleWhiteKingside | CastleWhiteQueenside
	case 'k':
		rights &^= CastleBlackKingside | CastleBlackQueenside
	case 'R':
		if fromRow == 7 && fromCol == 7 {
			rights &^= CastleWhiteKingside
		}
		if fromRow == 7 && fromCol == 0 {
			rights &^= CastleWhiteQueenside
		}
	case 'r':
		if fromRow == 0 && fromCol == 7 {
			rights &^= CastleBlackKingside
		}
		if fromRow == 0 && fromCol == 0 {
			rights &^= CastleBlackQueenside
		}
	}

	switch capturedPiece {
	case 'R':
		if toRow == 7 && toCol == 7 {
			rights &^= CastleWhiteKingside
		}
		if toRow == 7 && toCol == 0 {
			rights &^= CastleWhiteQueenside
		}
	case 'r':
		if toRow == 0 && toCol == 7 {
			rights &^= CastleBlackKingside
		}
		if toRow == 0 && toCol == 0 {
			rights &^= CastleBlackQueenside
		}
	}

	return rights
}

// RecomputeCastlingRights derives the rights still plausible from piece
// placement alone. Used when a position arrives as a bare board edit.
func RecomputeCastlingRights(b Board) uint8 {
	var rights uint8
	if b[7][4] == 'K' {
		if b[7][7] == 'R' {
			rights |= CastleWhiteKingside
		}
		if b[7][0] == 'R' {
			rights |= CastleWhiteQueenside
		}
	}
	if b[0][4] == 'k' {
		if b[0][7] == 'r' {
			rights |= CastleBlackKingside
		}
		if b[0][0] == 'r' {
			rights |= CastleBlackQueenside
		}
	}
	return rights
}
