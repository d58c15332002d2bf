package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func newRouter(handlers *Handlers) chi.Router {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(chimw.Timeout(10 * time.Second))

	router.Get("/ping", handlers.Ping)
	router.Get("/board-update", handlers.BoardUpdate)
	router.Post("/board-update", handlers.BoardEdit)
	router.Post("/gameselect", handlers.GameSelect)
	router.Post("/resign", handlers.Resign)
	router.Get("/board-settings", handlers.GetSettings)
	router.Post("/board-settings", handlers.SetSettings)
	router.Get("/games", handlers.ListGames)
	router.Delete("/games/{id}", handlers.DeleteGame)
	return router
}

// Start serves the control surface until the context is cancelled.
func Start(ctx context.Context, port string, handlers *Handlers) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      newRouter(handlers),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to start server: %w", err)
	}
}
