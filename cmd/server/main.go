package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fleet-dashboard/backend/internal/api"
	"github.com/fleet-dashboard/backend/internal/config"
	"github.com/fleet-dashboard/backend/internal/dispatch"
	"github.com/fleet-dashboard/backend/internal/history"
	"github.com/fleet-dashboard/backend/internal/poller"
	"github.com/fleet-dashboard/backend/internal/store"
	"github.com/fleet-dashboard/backend/internal/view"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Optional .env file; real env vars win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Color overrides, if a palette file is present.
	if err := view.LoadPalette(cfg.ColorsFile); err != nil {
		fmt.Printf("Failed to load palette: %v\n", err)
		os.Exit(1)
	}

	// Connect to the store. Unreachable at boot is fatal: with no store
	// and no cached state there is nothing to serve.
	kv, err := store.NewRedisStore(cfg.RedisHost, cfg.RedisPort, cfg.RedisDB, cfg.StoreTimeout)
	if err != nil {
		fmt.Printf("Failed to connect to store: %v\n", err)
		os.Exit(1)
	}
	defer kv.Close()

	// Optional status-transition archive.
	var archive *history.Archive
	if cfg.HistoryPath != "" {
		archive, err = history.Open(cfg.HistoryPath)
		if err != nil {
			fmt.Printf("Failed to open history archive: %v\n", err)
			os.Exit(1)
		}
		defer archive.Close()
	}

	// Start the polling loop.
	p := poller.New(kv, poller.Options{
		Interval:   cfg.PollInterval,
		StaleAfter: cfg.StaleAfter,
		LogTail:    cfg.LogTail,
		Archive:    archive,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Start(ctx)

	// Initialize API handlers.
	api.Debug = cfg.Debug
	var reader api.TransitionReader
	if archive != nil {
		reader = archive
	}
	h := api.NewHandler(p, dispatch.New(kv), kv, reader)
	wsHandler := api.NewWebSocketHandler(p)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Debug {
				return true
			}
			// The frontend hits these every couple of seconds.
			path := c.Request().URL.Path
			return path == "/api/health" || strings.HasPrefix(path, "/api/snapshot")
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/ws")
		},
	}))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{
			"http://localhost:5173", "http://127.0.0.1:5173",
			"http://localhost:3000", "http://127.0.0.1:3000",
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	// API Routes
	apiGroup := e.Group("/api")

	apiGroup.GET("/health", h.HandleHealth)
	apiGroup.GET("/ws", wsHandler.HandleWebSocket)

	apiGroup.GET("/snapshot", h.HandleSnapshot)
	apiGroup.GET("/snapshot/msgpack", h.HandleSnapshotMsgpack)
	apiGroup.GET("/devices", h.HandleDevices)
	apiGroup.GET("/devices/:device", h.HandleDevice)
	apiGroup.GET("/logs", h.HandleLogs)
	apiGroup.GET("/timeline", h.HandleTimeline)
	apiGroup.GET("/timeline/history", h.HandleTimelineHistory)

	apiGroup.POST("/commands", h.HandleCommand)

	s := &http.Server{
		Addr:         cfg.ListenAddr(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	historyState := "disabled"
	if archive != nil {
		historyState = cfg.HistoryPath
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Fleet Dashboard Server                          ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Listen:    http://localhost%-29s║\n", cfg.ListenAddr())
	fmt.Printf("║  Store:     %s:%-32d║\n", cfg.RedisHost, cfg.RedisPort)
	fmt.Printf("║  Poll:      every %-40s║\n", cfg.PollInterval)
	fmt.Printf("║  History:   %-46s║\n", historyState)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	e.Logger.Fatal(e.StartServer(s))
}
