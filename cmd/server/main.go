// Command server runs the wellness chat backend.
//
// @title                      Wellness Chat API
// @version                    1.0
// @description                Conversational message pipeline with crisis detection, tiered conversation storage, and a degraded-mode language-model gateway.
// @BasePath                   /api/v1
// @schemes                    http https
// @produce                    json
// @consumes                   json
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/tbourn/wellness-chat-backend/docs"
	"github.com/tbourn/wellness-chat-backend/internal/config"
	httpapi "github.com/tbourn/wellness-chat-backend/internal/http"
	"github.com/tbourn/wellness-chat-backend/internal/llm"
	"github.com/tbourn/wellness-chat-backend/internal/observability"
	"github.com/tbourn/wellness-chat-backend/internal/repo"
	"github.com/tbourn/wellness-chat-backend/internal/services"
	"github.com/tbourn/wellness-chat-backend/internal/store"
	"github.com/tbourn/wellness-chat-backend/internal/sysutil"
	"github.com/tbourn/wellness-chat-backend/internal/tier"
)

var version = "dev"

// purgeInterval is how often expired idempotency records are removed.
const purgeInterval = time.Hour

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := sysutil.SetupLogger(cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	// Fallback tier; the same file keeps idempotency records.
	if err := sysutil.EnsureDir(cfg.Storage.FallbackDBPath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.FallbackDBPath).Msg("create data dir")
	}
	local, err := repo.OpenSQLite(cfg.Storage.FallbackDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open fallback db")
	}
	if err := repo.AutoMigrate(local); err != nil {
		log.Fatal().Err(err).Msg("migrate fallback db")
	}

	primary := store.NewPrimary(cfg.Storage.PrimaryDSN)
	if cfg.Storage.PrimaryDSN == "" {
		log.Warn().Msg("PRIMARY_DSN not set; registered users are served from the fallback store")
	}
	selector := tier.NewSelector(primary, cfg.Storage.ProbeTTL, cfg.Storage.ProbeTimeout)

	model, err := llm.NewModel(ctx, cfg.LLM)
	if err != nil {
		log.Warn().Err(err).Str("provider", cfg.LLM.Provider).Msg("language model unavailable; replies use the fallback template")
		model = nil
	}
	gateway := llm.NewGateway(model, cfg.LLM)

	chat := &services.ChatService{
		Stores:          store.NewRegistry(store.NewMemoryStore(), store.NewGormStore(local), primary),
		Selector:        selector,
		Gateway:         gateway,
		Prompt:          llm.DefaultPrompt,
		DemoPrefix:      cfg.Storage.DemoUserPrefix,
		MaxMessageRunes: cfg.MaxMessageRunes,
		HistoryWindow:   gateway.Window(),
		Deadline:        gateway.Deadline(),
		SaveRetries:     cfg.Storage.SaveRetries,
	}
	idem := &services.IdempotencyService{DB: local, TTL: cfg.IdempotencyTTL}
	go purgeIdempotency(ctx, idem)

	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		Chat:        chat,
		Idempotency: idem,
		Readiness:   selector,
	}, cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Str("llm_provider", cfg.LLM.Provider).
			Bool("primary_configured", cfg.Storage.PrimaryDSN != "").
			Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := primary.Close(); err != nil {
		log.Error().Err(err).Msg("close primary store")
	}
	if sqlDB, err := local.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if err := shutdownOTel(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	log.Info().Msg("server exited")
}

// purgeIdempotency removes expired idempotency records until ctx is done.
func purgeIdempotency(ctx context.Context, idem *services.IdempotencyService) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := idem.Purge(ctx)
			if err != nil {
				observability.Logger(ctx).Warn().Err(err).Msg("purge idempotency records")
				continue
			}
			if n > 0 {
				observability.Logger(ctx).Debug().Int64("removed", n).Msg("purged idempotency records")
			}
		}
	}
}
