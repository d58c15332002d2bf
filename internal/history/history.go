package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// import the SQLite driver to register it with the database/sql package.
	_ "github.com/mattn/go-sqlite3"

	"github.com/openchess/chessboard-backend/internal/apperror"
	"github.com/openchess/chessboard-backend/internal/chess"
)

// LiveGame describes an unfinished game that survived a restart.
type LiveGame struct {
	GameID      int64
	Mode        string
	PlayerColor byte
	EngineDepth int
	Moves       []chess.Move
	FENs        []string
}

// Store archives finished games and keeps a live record of the current
// one so it can be resumed after a power cycle.
type Store struct {
	logger    *slog.Logger
	db        *sql.DB
	gameID    int64
	recording bool
}

func New(logger *slog.Logger, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("can't open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("can't connect to database: %w", err)
	}

	return &Store{
		logger: logger.With("component", "history"),
		db:     db,
	}, nil
}

func (that *Store) Init(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			mode TEXT NOT NULL,
			player_color TEXT NOT NULL DEFAULT '',
			engine_depth INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP,
			result TEXT NOT NULL DEFAULT '',
			winner TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS moves (
			game_id INTEGER NOT NULL REFERENCES games(id),
			ply INTEGER NOT NULL,
			from_square TEXT NOT NULL,
			to_square TEXT NOT NULL,
			promotion TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (game_id, ply)
		)`,
		`CREATE TABLE IF NOT EXISTS fens (
			game_id INTEGER NOT NULL REFERENCES games(id),
			seq INTEGER NOT NULL,
			fen TEXT NOT NULL,
			PRIMARY KEY (game_id, seq)
		)`,
	}

	for _, query := range queries {
		if _, err := that.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("can't create table: %w", err)
		}
	}

	return nil
}

// StartGame opens a new live game record and begins recording moves.
func (that *Store) StartGame(ctx context.Context, mode string, playerColor byte, engineDepth int) error {
	result, err := that.db.ExecContext(ctx,
		`INSERT INTO games (mode, player_color, engine_depth, started_at) VALUES (?, ?, ?, ?)`,
		mode, string(playerColor), engineDepth, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to start game record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read game id: %w", err)
	}

	that.gameID = id
	that.recording = true
	return nil
}

// IsRecording reports whether moves are currently being archived.
func (that *Store) IsRecording() bool {
	return that.recording
}

// AddMove appends a move to the live game.
func (that *Store) AddMove(ctx context.Context, move chess.Move) error {
	if !that.recording {
		return nil
	}

	promotion := ""
	if move.Promotion != 0 {
		promotion = string(move.Promotion)
	}

	_, err := that.db.ExecContext(ctx,
		`INSERT INTO moves (game_id, ply, from_square, to_square, promotion)
		 VALUES (?, (SELECT COALESCE(MAX(ply), 0) + 1 FROM moves WHERE game_id = ?), ?, ?, ?)`,
		that.gameID, that.gameID,
		chess.SquareName(move.FromRow, move.FromCol),
		chess.SquareName(move.ToRow, move.ToCol),
		promotion)
	if err != nil {
		return fmt.Errorf("failed to record move: %w", err)
	}
	return nil
}

// AddFEN records an externally imposed position (web board edit) so a
// resumed game replays from the right baseline.
func (that *Store) AddFEN(ctx context.Context, fen string) error {
	if !that.recording {
		return nil
	}

	_, err := that.db.ExecContext(ctx,
		`INSERT INTO fens (game_id, seq, fen)
		 VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM fens WHERE game_id = ?), ?)`,
		that.gameID, that.gameID, fen)
	if err != nil {
		return fmt.Errorf("failed to record position: %w", err)
	}
	return nil
}

// FinishGame closes the live record with a result and stops recording.
func (that *Store) FinishGame(ctx context.Context, result string, winner byte) error {
	if !that.recording {
		return nil
	}
	that.recording = false

	winnerField := ""
	if winner != 0 {
		winnerField = string(winner)
	}

	_, err := that.db.ExecContext(ctx,
		`UPDATE games SET finished_at = ?, result = ?, winner = ? WHERE id = ?`,
		time.Now().UTC(), result, winnerField, that.gameID)
	if err != nil {
		return fmt.Errorf("failed to finish game record: %w", err)
	}
	return nil
}

// LiveGame returns the most recent unfinished game, with its recorded
// moves in order, or apperror.ErrNoActiveGame.
func (that *Store) LiveGame(ctx context.Context) (*LiveGame, error) {
	row := that.db.QueryRowContext(ctx,
		`SELECT id, mode, player_color, engine_depth FROM games
		 WHERE finished_at IS NULL ORDER BY id DESC LIMIT 1`)

	var live LiveGame
	var color string
	err := row.Scan(&live.GameID, &live.Mode, &color, &live.EngineDepth)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.ErrNoActiveGame
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query live game: %w", err)
	}
	if color != "" {
		live.PlayerColor = color[0]
	}

	live.Moves, err = that.movesFor(ctx, live.GameID)
	if err != nil {
		return nil, err
	}

	live.FENs, err = that.fensFor(ctx, live.GameID)
	if err != nil {
		return nil, err
	}

	return &live, nil
}

// ResumeGame re-attaches recording to an existing live game record.
func (that *Store) ResumeGame(gameID int64) {
	that.gameID = gameID
	that.recording = true
}

// DiscardLiveGame removes an unfinished game record that will not be
// resumed.
func (that *Store) DiscardLiveGame(ctx context.Context) error {
	live, err := that.LiveGame(ctx)
	if errors.Is(err, apperror.ErrNoActiveGame) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, query := range []string{
		`DELETE FROM moves WHERE game_id = ?`,
		`DELETE FROM fens WHERE game_id = ?`,
		`DELETE FROM games WHERE id = ?`,
	} {
		if _, err = that.db.ExecContext(ctx, query, live.GameID); err != nil {
			return fmt.Errorf("failed to discard live game: %w", err)
		}
	}
	return nil
}

// GameSummary is one row of the archive listing.
type GameSummary struct {
	ID         int64      `json:"id"`
	Mode       string     `json:"mode"`
	Result     string     `json:"result,omitempty"`
	Winner     string     `json:"winner,omitempty"`
	MoveCount  int        `json:"move_count"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// ListGames returns the archive, newest first.
func (that *Store) ListGames(ctx context.Context) ([]GameSummary, error) {
	rows, err := that.db.QueryContext(ctx,
		`SELECT g.id, g.mode, g.result, g.winner, g.started_at, g.finished_at,
		        (SELECT COUNT(*) FROM moves m WHERE m.game_id = g.id)
		 FROM games g ORDER BY g.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []GameSummary
	for rows.Next() {
		var g GameSummary
		var finished sql.NullTime
		if err = rows.Scan(&g.ID, &g.Mode, &g.Result, &g.Winner, &g.StartedAt, &finished, &g.MoveCount); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		if finished.Valid {
			g.FinishedAt = &finished.Time
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// DeleteGame removes an archived game and its moves.
func (that *Store) DeleteGame(ctx context.Context, gameID int64) error {
	for _, query := range []string{
		`DELETE FROM moves WHERE game_id = ?`,
		`DELETE FROM fens WHERE game_id = ?`,
		`DELETE FROM games WHERE id = ?`,
	} {
		if _, err := that.db.ExecContext(ctx, query, gameID); err != nil {
			return fmt.Errorf("failed to delete game %d: %w", gameID, err)
		}
	}
	return nil
}

func (that *Store) Close() error {
	return that.db.Close()
}

func (that *Store) movesFor(ctx context.Context, gameID int64) ([]chess.Move, error) {
	rows, err := that.db.QueryContext(ctx,
		`SELECT from_square, to_square, promotion FROM moves WHERE game_id = ? ORDER BY ply`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query moves: %w", err)
	}
	defer rows.Close()

	var moves []chess.Move
	for rows.Next() {
		var from, to, promotion string
		if err = rows.Scan(&from, &to, &promotion); err != nil {
			return nil, fmt.Errorf("failed to scan move: %w", err)
		}

		fromRow, fromCol, ok := chess.ParseSquare(from)
		if !ok {
			continue
		}
		toRow, toCol, ok := chess.ParseSquare(to)
		if !ok {
			continue
		}

		move := chess.Move{FromRow: fromRow, FromCol: fromCol, ToRow: toRow, ToCol: toCol}
		if promotion != "" {
			move.Promotion = promotion[0]
		}
		moves = append(moves, move)
	}
	return moves, rows.Err()
}

func (that *Store) fensFor(ctx context.Context, gameID int64) ([]string, error) {
	rows, err := that.db.QueryContext(ctx,
		`SELECT fen FROM fens WHERE game_id = ? ORDER BY seq`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var fens []string
	for rows.Next() {
		var fen string
		if err = rows.Scan(&fen); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		fens = append(fens, fen)
	}
	return fens, rows.Err()
}
