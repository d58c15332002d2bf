package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/openchess/chessboard-backend/internal/apperror"
	"github.com/openchess/chessboard-backend/internal/chess"
)

const (
	minDepth = 5
	maxDepth = 16
)

// Settings controls one engine request series.
type Settings struct {
	Depth   int
	Retries int
}

// FromLevel maps a 1-8 difficulty level onto a search depth preset.
func FromLevel(level int) Settings {
	if level < 1 {
		level = 1
	}
	if level > 8 {
		level = 8
	}
	return Settings{Depth: 4 + level, Retries: 3}
}

// BestMove is a parsed engine suggestion.
type BestMove struct {
	Move       chess.Move
	Evaluation float64
	MateIn     int
	HasMate    bool
}

// apiResponse mirrors the best-move service's JSON payload. The bestmove
// field carries a raw UCI line ("bestmove e2e4 ponder e7e5").
type apiResponse struct {
	Success      bool            `json:"success"`
	Evaluation   *float64        `json:"evaluation"`
	Mate         *int            `json:"mate"`
	BestMoveLine string          `json:"bestmove"`
	Continuation string          `json:"continuation"`
	Data         json.RawMessage `json:"data"`
}

// Client fetches move suggestions from the remote best-move service.
type Client struct {
	logger   *slog.Logger
	baseURL  string
	http     *http.Client
	settings Settings
}

func NewClient(logger *slog.Logger, baseURL string, httpClient *http.Client, settings Settings) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		logger:   logger.With("component", "engine-client"),
		baseURL:  baseURL,
		http:     httpClient,
		settings: settings,
	}
}

// Settings returns the client's current request settings.
func (that *Client) Settings() Settings {
	return that.settings
}

// SetSettings replaces the request settings (difficulty change).
func (that *Client) SetSettings(settings Settings) {
	that.settings = settings
}

// Suggest asks the service for the best move in a position. Failed
// requests are retried up to the configured count.
func (that *Client) Suggest(ctx context.Context, fen string) (BestMove, error) {
	var lastErr error
	attempts := that.settings.Retries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		best, err := that.request(ctx, fen)
		if err == nil {
			return best, nil
		}
		lastErr = err
		that.logger.Warn("engine request failed", "attempt", attempt, "error", err)
		if ctx.Err() != nil {
			break
		}
	}

	return BestMove{}, fmt.Errorf("%w: %w", apperror.ErrEngineFailed, lastErr)
}

func (that *Client) request(ctx context.Context, fen string) (BestMove, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, that.requestURL(fen), nil)
	if err != nil {
		return BestMove{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := that.http.Do(req)
	if err != nil {
		return BestMove{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return BestMove{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return BestMove{}, fmt.Errorf("failed to read response: %w", err)
	}

	return parseResponse(body)
}

func (that *Client) requestURL(fen string) string {
	depth := that.settings.Depth
	if depth < minDepth {
		depth = minDepth
	}
	if depth > maxDepth {
		depth = maxDepth
	}

	query := url.Values{}
	query.Set("fen", fen)
	query.Set("depth", strconv.Itoa(depth))
	return that.baseURL + "?" + query.Encode()
}

func parseResponse(body []byte) (BestMove, error) {
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return BestMove{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if !parsed.Success {
		return BestMove{}, fmt.Errorf("service reported failure: %s", string(parsed.Data))
	}

	moveStr, err := extractUCIMove(parsed.BestMoveLine)
	if err != nil {
		return BestMove{}, err
	}

	move, err := chess.ParseMove(moveStr)
	if err != nil {
		return BestMove{}, err
	}

	best := BestMove{Move: move}
	if parsed.Evaluation != nil {
		best.Evaluation = *parsed.Evaluation
	}
	if parsed.Mate != nil {
		best.MateIn = *parsed.Mate
		best.HasMate = true
	}
	return best, nil
}

// extractUCIMove pulls the move token out of a raw "bestmove e2e4
// ponder e7e5" line.
func extractUCIMove(line string) (string, error) {
	fields := strings.Fields(line)
	for i, field := range fields {
		if field == "bestmove" && i+1 < len(fields) {
			return fields[i+1], nil
		}
	}
	return "", fmt.Errorf("no bestmove token in %q", line)
}

