// Package server assembles the echo application and its dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/pkg/errors"
	chromem "github.com/philippgille/chromem-go"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/lmangall/jot/plugin/mailbox"
	"github.com/lmangall/jot/plugin/ratelimiter"
	"github.com/lmangall/jot/plugin/vectorstore"
	"github.com/lmangall/jot/server/profile"
	apiv1 "github.com/lmangall/jot/server/router/api/v1"
	"github.com/lmangall/jot/store"
)

// Server owns the HTTP listener and the long-lived dependencies behind it.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	httpServer *http.Server
	limiter    *ratelimiter.Limiter
}

func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c *echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request", "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	e.GET("/healthz", func(c *echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	model, err := openai.New(
		openai.WithModel(prof.AIModel),
		openai.WithToken(prof.AIAPIKey),
		openai.WithBaseURL(prof.AIBaseURL),
	)
	if err != nil {
		return nil, errors.Wrap(err, "init chat model")
	}

	var vs *vectorstore.Store
	if prof.EmbeddingModel != "" && prof.AIAPIKey != "" {
		embedFn := chromem.NewEmbeddingFuncOpenAICompat(
			prof.AIBaseURL, prof.AIAPIKey, prof.EmbeddingModel, nil,
		)
		vs, err = vectorstore.New(prof.Data, embedFn)
		if err != nil {
			slog.Warn("vector store unavailable, semantic search disabled", "err", err)
			vs = nil
		}
	}

	var mb *mailbox.Client
	if prof.MailboxBaseURL != "" {
		mb = mailbox.NewClient(prof.MailboxBaseURL, prof.MailboxAPIKey)
	}

	limiter := ratelimiter.New()
	apiv1.NewAPIV1Service(st, prof, model, limiter, vs, mb).Register(e)

	s := &Server{
		Profile:    prof,
		Store:      st,
		limiter:    limiter,
		echoServer: e,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf("%s:%d", prof.Addr, prof.Port),
			Handler: e,
			// WriteTimeout stays zero: the chat channel holds SSE streams
			// open for the whole agent run.
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	go s.pruneLimiter(ctx)

	slog.Info("server started", "addr", s.httpServer.Addr, "mode", s.Profile.Mode)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// pruneLimiter drops expired rate-limit windows so idle users do not
// accumulate state for the lifetime of the process.
func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.limiter.Prune(time.Minute)
		}
	}
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server", "err", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "err", err)
	}
	slog.Info("server stopped")
}
