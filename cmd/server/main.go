package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/paulexconde/surveyengine/internal/config"
	"github.com/paulexconde/surveyengine/internal/pkg/logging"
	"github.com/paulexconde/surveyengine/internal/pkg/scratch"
	"github.com/paulexconde/surveyengine/internal/pkg/store"
	"github.com/paulexconde/surveyengine/internal/pkg/workerpool"
	"github.com/paulexconde/surveyengine/internal/services"
	"github.com/paulexconde/surveyengine/internal/transport/rest"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logging.Init(conf.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, conf.Database)
	if err != nil {
		slog.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		slog.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}

	var drafts, sessions services.ScratchStore
	if conf.Redis.URL != "" {
		rs, err := scratch.NewRedisStore(ctx, conf.Redis.URL, conf.Redis.DraftTTL)
		if err != nil {
			slog.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer rs.Close()
		drafts, sessions = rs, rs.WithPrefix(scratch.RespondentPrefix)
	} else {
		slog.Warn("redis url not set, drafts and sessions are kept in memory")
		drafts, sessions = scratch.NewMemoryStore(), scratch.NewMemoryStore()
	}

	pool := workerpool.NewWorkerPool(ctx, conf.Workers.Count, conf.Workers.QueueSize)

	repo := store.NewSurveyStore(db)
	catalog := services.NewSurveyCatalogService(repo, conf.Limits)
	responses := services.NewResponseService(repo, conf.Limits)
	resolver := services.NewSurveyService()

	router := rest.NewRouter(&rest.Container{
		Catalog:     catalog,
		Responses:   responses,
		Results:     services.NewResultsService(repo),
		Resolver:    resolver,
		Respondents: services.NewRespondentService(repo, resolver, responses, sessions, conf.Limits),
		Drafts: services.NewDraftRegistry(services.DraftConfig{
			Scratch: drafts,
			Gateway: catalog,
			Jobs:    pool,
			IdleTTL: conf.Redis.DraftTTL,
		}),
	})

	srv := &http.Server{
		Addr:    conf.HTTP.Addr,
		Handler: router,
	}

	go func() {
		slog.Info("server starting", slog.String("addr", conf.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.Any("error", err))
	}
	pool.Shutdown(shutdownCtx)

	slog.Info("server exited")
}
