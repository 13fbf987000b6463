package main

import (
	"context"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"fx-signal-bot/internal/app"
	"fx-signal-bot/internal/bot"
	"fx-signal-bot/internal/cache"
	"fx-signal-bot/internal/config"
	"fx-signal-bot/internal/db"
	"fx-signal-bot/internal/handler"
	"fx-signal-bot/internal/job"
	"fx-signal-bot/internal/metrics"
	"fx-signal-bot/internal/report"
	"fx-signal-bot/internal/session"
	"fx-signal-bot/internal/stream"
	"fx-signal-bot/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"

	_ "fx-signal-bot/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	buildPipelineFunc      = app.BuildPipeline
	newTelegramBotFunc     = bot.NewTelegramBot
	startBotFunc           = func(b *tele.Bot) { go b.Start() }
	stopBotFunc            = func(b *tele.Bot) { b.Stop() }
	startAutoRefreshFunc   = func(r *job.AutoRefresher, ctx context.Context) { go r.Start(ctx) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           FX Signal Bot API
// @version         1.0
// @description     RSI/MACD forex signals over HTTP, WebSocket and Telegram.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	pipeline, err := buildPipelineFunc(ctx, cfg, tracer, m)
	if err != nil {
		log.Fatalf("failed to build signal pipeline: %v", err)
	}
	defer pipeline.Close()

	hub := stream.NewHub()
	defer hub.Close()

	// Telegram bot and auto-refresh (stopped by ctx cancel)
	tg, err := startTelegram(ctx, cfg, tracer, pipeline, hub, m)
	if err != nil {
		log.Fatalf("failed to start telegram bot: %v", err)
	}

	h := newHandlerFunc(tracer, pipeline.Service, hub, registry)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("fx-signal-bot"))
	r.Use(handler.CORS(cfg.CORSOrigins))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              httpAddr(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("http server listening on %s", srv.Addr)
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()
	if tg != nil {
		stopBotFunc(tg)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}

// startTelegram wires the bot conversation and the auto-refresh job. It
// returns a nil bot when no token is configured.
func startTelegram(
	ctx context.Context,
	cfg *config.Config,
	tracer trace.Tracer,
	pipeline *app.Pipeline,
	hub *stream.Hub,
	m *metrics.Metrics,
) (*tele.Bot, error) {
	b, err := newTelegramBotFunc(bot.Settings{
		Token:         cfg.TelegramBotToken,
		Mode:          cfg.TelegramMode,
		WebhookURL:    cfg.TelegramWebhookURL,
		WebhookListen: cfg.TelegramWebhookListen,
	})
	if err != nil || b == nil {
		return nil, err
	}

	sender := bot.NewTelegramSender(b)
	reporter := report.NewReporter(tracer, sender, pipeline.Charts, pipeline.Signals, hub, m)

	var sessions session.Store = session.NewMemoryStore()
	if cache.Client != nil {
		sessions = session.NewRedisStore(cache.Client, session.DefaultTTL)
		log.Println("telegram sessions: redis")
	}
	locks := session.NewLocks()

	refresher, err := job.NewAutoRefresher(tracer, pipeline.Service, reporter, locks, job.AutoRefreshOptions{
		Spec:    cfg.AutoRefreshSpec,
		Pause:   time.Duration(cfg.AutoRefreshPauseMS) * time.Millisecond,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}

	handlers := bot.NewHandlers(tracer, pipeline.Service, reporter, sessions, session.NewMachine(pipeline.Pairs), locks, refresher)
	handlers.Register(b)

	startAutoRefreshFunc(refresher, ctx)
	startBotFunc(b)
	log.Printf("telegram bot started in %s mode", cfg.TelegramMode)
	return b, nil
}

func httpAddr(port string) string {
	port = strings.TrimSpace(port)
	if port == "" {
		return ":8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
