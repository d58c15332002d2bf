package chess

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidFEN = errors.New("invalid FEN")

// Position bundles everything a FEN record carries.
type Position struct {
	Board          Board
	Turn           byte
	CastlingRights uint8
	EnPassant      *Square
	HalfmoveClock  int
	FullmoveNumber int
}

// ToFEN serializes a position to Forsyth-Edwards notation.
func ToFEN(pos Position) string {
	var sb strings.Builder

	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			piece := pos.Board[row][col]
			if piece == Empty {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(piece)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if row < 7 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteByte(pos.Turn)

	sb.WriteByte(' ')
	sb.WriteString(castlingField(pos.CastlingRights))

	sb.WriteByte(' ')
	if pos.EnPassant != nil {
		sb.WriteString(SquareName(pos.EnPassant.Row, pos.EnPassant.Col))
	} else {
		sb.WriteByte('-')
	}

	fmt.Fprintf(&sb, " %d %d", pos.HalfmoveClock, pos.FullmoveNumber)
	return sb.String()
}

// ParseFEN parses a FEN record. The half/fullmove fields may be omitted
// (board editors often send only the first four fields).
func ParseFEN(fen string) (Position, error) {
	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) < 2 {
		return Position{}, fmt.Errorf("%w: expected at least board and turn fields", ErrInvalidFEN)
	}

	pos := Position{Turn: White, FullmoveNumber: 1}
	for row := range pos.Board {
		for col := range pos.Board[row] {
			pos.Board[row][col] = Empty
		}
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return Position{}, fmt.Errorf("%w: expected 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}
	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			c := rank[i]
			if c >= '1' && c <= '8' {
				col += int(c - '0')
				continue
			}
			if !strings.ContainsRune("pnbrqkPNBRQK", rune(c)) {
				return Position{}, fmt.Errorf("%w: bad piece %q", ErrInvalidFEN, c)
			}
			if col > 7 {
				return Position{}, fmt.Errorf("%w: rank %d overflows", ErrInvalidFEN, 8-row)
			}
			pos.Board[row][col] = c
			col++
		}
		if col != 8 {
			return Position{}, fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, 8-row, col)
		}
	}

	switch fields[1] {
	case "w":
		pos.Turn = White
	case "b":
		pos.Turn = Black
	default:
		return Position{}, fmt.Errorf("%w: bad turn field %q", ErrInvalidFEN, fields[1])
	}

	if len(fields) > 2 && fields[2] != "-" {
		for i := 0; i < len(fields[2]); i++ {
			switch fields[2][i] {
			case 'K':
				pos.CastlingRights |= CastleWhiteKingside
			case 'Q':
				pos.CastlingRights |= CastleWhiteQueenside
			case 'k':
				pos.CastlingRights |= CastleBlackKingside
			case 'q':
				pos.CastlingRights |= CastleBlackQueenside
			default:
				return Position{}, fmt.Errorf("%w: bad castling field %q", ErrInvalidFEN, fields[2])
			}
		}
	}

	if len(fields) > 3 && fields[3] != "-" {
		row, col, ok := ParseSquare(fields[3])
		if !ok {
			return Position{}, fmt.Errorf("%w: bad en passant field %q", ErrInvalidFEN, fields[3])
		}
		pos.EnPassant = &Square{Row: row, Col: col}
	}

	if len(fields) > 4 {
		n, err := strconv.Atoi(fields[4])
		if err != nil {
			return Position{}, fmt.Errorf("%w: bad halfmove clock %q", ErrInvalidFEN, fields[4])
		}
		pos.HalfmoveClock = n
	}
	if len(fields) > 5 {
		n, err := strconv.Atoi(fields[5])
		if err != nil {
			return Position{}, fmt.Errorf("%w: bad fullmove number %q", ErrInvalidFEN, fields[5])
		}
		pos.FullmoveNumber = n
	}

	return pos, nil
}

func castlingField(rights uint8) string {
	if rights == 0 {
		return "-"
	}
	var sb strings.Builder
	if rights&CastleWhiteKingside != 0 {
		sb.WriteByte('K')
	}
	if rights&CastleWhiteQueenside != 0 {
		sb.WriteByte('Q')
	}
	if rights&CastleBlackKingside != 0 {
		sb.WriteByte('k')
	}
	if rights&CastleBlackQueenside != 0 {
		sb.WriteByte('q')
	}
	return sb.String()
}
