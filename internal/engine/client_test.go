package engine

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openchess/chessboard-backend/internal/apperror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestClient_Suggest(t *testing.T) {
	t.Run("Parses a successful suggestion", func(t *testing.T) {
		// Given: A service answering with a best-move line
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "8/8/8/8/8/8/8/K6k w - - 0 1", r.URL.Query().Get("fen"))
			assert.Equal(t, "12", r.URL.Query().Get("depth"))
			w.Write([]byte(`{"success":true,"evaluation":0.42,"bestmove":"bestmove e2e4 ponder e7e5"}`))
		}))
		defer srv.Close()
		client := NewClient(testLogger(), srv.URL, srv.Client(), Settings{Depth: 12, Retries: 1})

		// When
		best, err := client.Suggest(context.Background(), "8/8/8/8/8/8/8/K6k w - - 0 1")

		// Then
		require.NoError(t, err)
		assert.Equal(t, "e2e4", best.Move.String())
		assert.InDelta(t, 0.42, best.Evaluation, 1e-9)
		assert.False(t, best.HasMate)
	})

	t.Run("Surfaces a forced mate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"mate":3,"bestmove":"bestmove d8h4"}`))
		}))
		defer srv.Close()
		client := NewClient(testLogger(), srv.URL, srv.Client(), Settings{Depth: 10, Retries: 1})

		best, err := client.Suggest(context.Background(), "fen")

		require.NoError(t, err)
		assert.True(t, best.HasMate)
		assert.Equal(t, 3, best.MateIn)
	})

	t.Run("Retries transient failures before succeeding", func(t *testing.T) {
		// Given: A service failing twice, then answering
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Write([]byte(`{"success":true,"bestmove":"bestmove g1f3"}`))
		}))
		defer srv.Close()
		client := NewClient(testLogger(), srv.URL, srv.Client(), Settings{Depth: 10, Retries: 3})

		// When
		best, err := client.Suggest(context.Background(), "fen")

		// Then
		require.NoError(t, err)
		assert.Equal(t, "g1f3", best.Move.String())
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("Exhausted retries wrap the engine error", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		client := NewClient(testLogger(), srv.URL, srv.Client(), Settings{Depth: 10, Retries: 2})

		_, err := client.Suggest(context.Background(), "fen")

		assert.ErrorIs(t, err, apperror.ErrEngineFailed)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("A service-reported failure is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":false,"data":"invalid fen"}`))
		}))
		defer srv.Close()
		client := NewClient(testLogger(), srv.URL, srv.Client(), Settings{Depth: 10, Retries: 1})

		_, err := client.Suggest(context.Background(), "fen")

		assert.ErrorIs(t, err, apperror.ErrEngineFailed)
	})

	t.Run("A malformed best-move line is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"success":true,"bestmove":"ponder only"}`))
		}))
		defer srv.Close()
		client := NewClient(testLogger(), srv.URL, srv.Client(), Settings{Depth: 10, Retries: 1})

		_, err := client.Suggest(context.Background(), "fen")

		assert.Error(t, err)
	})

	t.Run("A cancelled context stops the retry loop", func(t *testing.T) {
		// Given: An already-cancelled context
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		client := NewClient(testLogger(), srv.URL, srv.Client(), Settings{Depth: 10, Retries: 5})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// When
		_, err := client.Suggest(ctx, "fen")

		// Then
		assert.Error(t, err)
	})
}

func TestClient_DepthClamping(t *testing.T) {
	t.Run("Out-of-range depths are clamped", func(t *testing.T) {
		var gotDepth string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotDepth = r.URL.Query().Get("depth")
			w.Write([]byte(`{"success":true,"bestmove":"bestmove e2e4"}`))
		}))
		defer srv.Close()

		client := NewClient(testLogger(), srv.URL, srv.Client(), Settings{Depth: 99, Retries: 1})
		_, err := client.Suggest(context.Background(), "fen")
		require.NoError(t, err)
		assert.Equal(t, "16", gotDepth)

		client.SetSettings(Settings{Depth: 1, Retries: 1})
		_, err = client.Suggest(context.Background(), "fen")
		require.NoError(t, err)
		assert.Equal(t, "5", gotDepth)
	})
}

func TestFromLevel(t *testing.T) {
	t.Run("Maps levels to depth presets and clamps the ends", func(t *testing.T) {
		assert.Equal(t, 5, FromLevel(1).Depth)
		assert.Equal(t, 12, FromLevel(8).Depth)
		assert.Equal(t, 5, FromLevel(-3).Depth)
		assert.Equal(t, 12, FromLevel(40).Depth)
	})
}
