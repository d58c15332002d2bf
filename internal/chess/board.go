package chess

import "fmt"

// Board is the authoritative position: row 0 = rank 8 (black's back
// rank), col 0 = file a. Pieces use the usual FEN letters, uppercase
// for white; Empty marks a vacant square.
type Board [8][8]byte

const (
	Empty byte = ' '

	White byte = 'w'
	Black byte = 'b'
)

// Square is one board coordinate.
type Square struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Move is a resolved move in board coordinates. Promotion is the piece
// letter chosen on promotion, or 0 when not applicable.
type Move struct {
	FromRow   int  `json:"from_row"`
	FromCol   int  `json:"from_col"`
	ToRow     int  `json:"to_row"`
	ToCol     int  `json:"to_col"`
	Promotion byte `json:"promotion,omitempty"`
}

// String renders a move in long algebraic form, e.g. "e2e4".
func (that Move) String() string {
	return SquareName(that.FromRow, that.FromCol) + SquareName(that.ToRow, that.ToCol)
}

// SquareName converts board coordinates to algebraic notation.
func SquareName(row, col int) string {
	return fmt.Sprintf("%c%d", 'a'+col, 8-row)
}

// ParseMove parses a long-algebraic move ("e2e4", "e7e8q") into board
// coordinates.
func ParseMove(s string) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("bad move %q", s)
	}
	fromRow, fromCol, ok := ParseSquare(s[:2])
	if !ok {
		return Move{}, fmt.Errorf("bad origin in move %q", s)
	}
	toRow, toCol, ok := ParseSquare(s[2:4])
	if !ok {
		return Move{}, fmt.Errorf("bad destination in move %q", s)
	}
	move := Move{FromRow: fromRow, FromCol: fromCol, ToRow: toRow, ToCol: toCol}
	if len(s) == 5 {
		move.Promotion = s[4]
	}
	return move, nil
}

// ParseSquare converts algebraic notation ("e2") to board coordinates.
func ParseSquare(name string) (row, col int, ok bool) {
	if len(name) != 2 || name[0] < 'a' || name[0] > 'h' || name[1] < '1' || name[1] > '8' {
		return 0, 0, false
	}
	return 8 - int(name[1]-'0'), int(name[0] - 'a'), true
}

// Initial is the standard starting position.
func Initial() Board {
	return Board{
		{'r', 'n', 'b', 'q', 'k', 'b', 'n', 'r'},
		{'p', 'p', 'p', 'p', 'p', 'p', 'p', 'p'},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '},
		{'P', 'P', 'P', 'P', 'P', 'P', 'P', 'P'},
		{'R', 'N', 'B', 'Q', 'K', 'B', 'N', 'R'},
	}
}

// IsWhitePiece reports whether the letter denotes a white piece.
func IsWhitePiece(piece byte) bool {
	return piece >= 'A' && piece <= 'Z'
}

// IsBlackPiece reports whether the letter denotes a black piece.
func IsBlackPiece(piece byte) bool {
	return piece >= 'a' && piece <= 'z'
}

// PieceColor returns White, Black, or 0 for an empty square.
func PieceColor(piece byte) byte {
	switch {
	case IsWhitePiece(piece):
		return White
	case IsBlackPiece(piece):
		return Black
	default:
		return 0
	}
}

// Opponent returns the other side.
func Opponent(color byte) byte {
	if color == White {
		return Black
	}
	return White
}

// ColorName spells out a side for log output.
func ColorName(color byte) string {
	if color == White {
		return "white"
	}
	return "black"
}

// upper folds a piece letter to its uppercase identity.
func upper(piece byte) byte {
	if piece >= 'a' && piece <= 'z' {
		return piece - 32
	}
	return piece
}

// IsKing reports whether the piece is a king of either color.
func IsKing(piece byte) bool {
	return upper(piece) == 'K'
}

// IsPawn reports whether the piece is a pawn of either color.
func IsPawn(piece byte) bool {
	return upper(piece) == 'P'
}
