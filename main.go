package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/teki9ll/music-streaming/internal/catalog"
	"github.com/teki9ll/music-streaming/internal/config"
	"github.com/teki9ll/music-streaming/internal/http/http_server"
	"github.com/teki9ll/music-streaming/internal/http/roomhandler"
	"github.com/teki9ll/music-streaming/internal/session"
	"github.com/teki9ll/music-streaming/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)

	// 1. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Song catalog + background rescan
	songCatalog := catalog.New(cfg.MusicDir)
	go songCatalog.Run(ctx, time.Duration(cfg.CatalogRefreshSeconds)*time.Second)

	// 4. Connection tracker and session registry
	tracker := ws.NewTracker()
	registry := session.NewRegistry(songCatalog, tracker)

	// 5. WebSockets hub + event server
	hub := ws.NewHub()
	wsSrv := ws.NewWsServer(hub, tracker, registry)

	// 6. HTTP + WS server
	rh := roomhandler.New(registry, songCatalog)
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, wsSrv, rh, cfg.MusicDir, cfg.StaticDir)

	go func() {
		Log.Info("HTTP server starting", zap.Uint16("port", cfg.HttpServerPort))
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	Log.Info("Shutting down")
	if err := httpServer.Dispose(); err != nil {
		Log.Error("Shutdown error", zap.Error(err))
	}
}
