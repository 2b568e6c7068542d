package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/wiradal/deskmate/agent/llm"
	"github.com/wiradal/deskmate/agent/orchestrator"
	"github.com/wiradal/deskmate/agent/registry"
	"github.com/wiradal/deskmate/agent/router"
	"github.com/wiradal/deskmate/agent/tool"
	"github.com/wiradal/deskmate/conversation"
	configx "github.com/wiradal/deskmate/pkg/config"
	groqx "github.com/wiradal/deskmate/pkg/groq"
	logx "github.com/wiradal/deskmate/pkg/logger"
	"github.com/wiradal/deskmate/server"
)

type AppConfig struct {
	Port          int     `split_words:"true" default:"3000"`
	AllowedOrigin string  `split_words:"true" default:"*"`
	PostgresDSN   string  `split_words:"true"`
	RateLimit     float64 `split_words:"true" default:"10"`
	RateBurst     int     `split_words:"true" default:"50"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func run() error {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
	appCfg := configx.MustNew[AppConfig]("APP")
	groqCfg := configx.MustNew[groqx.Config]("GROQ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store conversation.Store
	if appCfg.PostgresDSN != "" {
		pg, err := conversation.NewPostgresStore(ctx, appCfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres store: %w", err)
		}
		defer func() { _ = pg.Close() }()
		store = pg
		log.Info().Msg("postgres store connected")
	} else {
		store = conversation.NewMemoryStore()
		log.Warn().Msg("no postgres dsn configured, using in-memory store")
	}

	client := groqx.NewClient(*groqCfg)
	if client == nil {
		return errors.New("groq api key is required")
	}
	gateway := llm.NewGateway(client, groqCfg.Model)

	catalog := registry.New()
	tools := tool.NewGateway(store)

	orc, err := orchestrator.New(store, gateway, router.New(), catalog, tools)
	if err != nil {
		return fmt.Errorf("orchestrator: %w", err)
	}

	limiter := server.NewRateLimiter(appCfg.RateLimit, appCfg.RateBurst)
	stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(server.CORS(appCfg.AllowedOrigin))
	r.Use(limiter.Handler)
	r.Use(server.RequestLogger)

	srv := server.New(orc, store, catalog)
	srv.MountRoutes(r)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", appCfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", appCfg.Port).Msg("server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
