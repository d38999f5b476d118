package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	httpapi "github.com/immxrtalbeast/canvas_sync/internal/api/http"
	"github.com/immxrtalbeast/canvas_sync/internal/config"
	"github.com/immxrtalbeast/canvas_sync/internal/repository"
	"github.com/immxrtalbeast/canvas_sync/internal/service"
	"github.com/immxrtalbeast/canvas_sync/lib/logger/sl"
	"github.com/immxrtalbeast/canvas_sync/lib/logger/slogpretty"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := repository.NewInMemoryRoomRegistry(nil)
	roomService := service.NewRoomService(registry, service.Options{
		DefaultRoom: cfg.Rooms.DefaultRoom,
		DrawRate:    rate.Limit(cfg.Limits.DrawPerSecond),
		DrawBurst:   cfg.Limits.DrawBurst,
		CursorRate:  rate.Limit(cfg.Limits.CursorPerSecond),
		CursorBurst: cfg.Limits.CursorBurst,
	}, log)

	roomController := httpapi.NewRoomController(roomService, cfg.WS, log)
	router := httpapi.SetupRouter(roomController, cfg.HTTP.AllowedOrigins, log)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting application",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("env", cfg.Env),
			slog.String("default_room", cfg.Rooms.DefaultRoom),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		// Hijacked WebSocket connections are not tracked by Shutdown.
		roomService.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("http server stopped", sl.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
