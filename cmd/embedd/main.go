package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"embed-service/internal/app"
	"embed-service/internal/embeddings"
	"embed-service/internal/httputil"
)

// embedRequest is the body of POST /embed. Text is a pointer so that an
// absent field and "" can be told apart: the empty string is valid input.
type embedRequest struct {
	Text *string `json:"text" validate:"required"`
}

type embedResponse struct {
	Embedding embeddings.Vector `json:"embedding"`
}

var errNonFinite = errors.New("embedding contains a non-finite value")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("embedding service listening", "addr", addr, "model", deps.Model.Name(), "dimensions", deps.Model.Dimensions())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.Config.ShutdownTimeout)
		defer cancel()
		deps.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newRouter(deps app.Deps) *chi.Mux {
	r := httputil.NewRouter(deps.Log, deps.Metrics, deps.Config.RequestTimeout)

	r.Post("/embed", embedHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))
	r.Method(http.MethodGet, "/metrics", httputil.MetricsHandler(deps.Metrics))

	return r
}

func embedHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := httputil.Bind(w, r, deps.Config.MaxBodyBytes, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		log := deps.Log.With("request_id", middleware.GetReqID(r.Context()))
		vec, err := deps.Model.Embed(r.Context(), *req.Text)
		if err != nil {
			httputil.Fail(log, w, http.StatusText(http.StatusInternalServerError), err, http.StatusInternalServerError)
			return
		}
		if !vec.Finite() {
			httputil.Fail(log, w, http.StatusText(http.StatusInternalServerError), errNonFinite, http.StatusInternalServerError)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, embedResponse{Embedding: vec})
	}
}
