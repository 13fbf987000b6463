package main

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"fx-signal-bot/internal/app"
	"fx-signal-bot/internal/bot"
	"fx-signal-bot/internal/config"
	"fx-signal-bot/internal/job"
	"fx-signal-bot/internal/metrics"
	"fx-signal-bot/internal/stream"

	"github.com/gin-gonic/gin"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

func TestMainBootstrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	restore := stubServerDeps()
	defer restore()

	done := make(chan struct{})
	go func() {
		main()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("main did not exit")
	}
}

func TestStartTelegramWiresBotAndAutoRefresh(t *testing.T) {
	restore := stubServerDeps()
	defer restore()

	offline, err := tele.NewBot(tele.Settings{Token: "test", Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	newTelegramBotFunc = func(s bot.Settings) (*tele.Bot, error) {
		if s.Token != "token" || s.Mode != "polling" {
			t.Fatalf("unexpected bot settings: %+v", s)
		}
		return offline, nil
	}
	botStarted, refreshStarted := false, false
	startBotFunc = func(*tele.Bot) { botStarted = true }
	startAutoRefreshFunc = func(*job.AutoRefresher, context.Context) { refreshStarted = true }

	cfg := &config.Config{
		TelegramBotToken:   "token",
		TelegramMode:       "polling",
		AutoRefreshSpec:    "@every 5m",
		AutoRefreshPauseMS: 0,
	}
	b, err := startTelegram(context.Background(), cfg, trace.NewNoopTracerProvider().Tracer("test"), &app.Pipeline{}, stream.NewHub(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b != offline || !botStarted || !refreshStarted {
		t.Fatalf("expected bot and auto refresh to start: bot=%v started=%v refresh=%v", b != nil, botStarted, refreshStarted)
	}
}

func TestStartTelegramRejectsBadSchedule(t *testing.T) {
	restore := stubServerDeps()
	defer restore()

	offline, err := tele.NewBot(tele.Settings{Token: "test", Offline: true})
	if err != nil {
		t.Fatalf("offline bot: %v", err)
	}
	newTelegramBotFunc = func(bot.Settings) (*tele.Bot, error) { return offline, nil }

	cfg := &config.Config{TelegramBotToken: "token", AutoRefreshSpec: "every now and then"}
	if _, err := startTelegram(context.Background(), cfg, trace.NewNoopTracerProvider().Tracer("test"), &app.Pipeline{}, stream.NewHub(), nil); err == nil {
		t.Fatal("expected schedule parse error")
	}
}

func TestHTTPAddr(t *testing.T) {
	if got := httpAddr(""); got != ":8080" {
		t.Fatalf("expected default :8080, got %s", got)
	}
	if got := httpAddr("9090"); got != ":9090" {
		t.Fatalf("expected :9090, got %s", got)
	}
	if got := httpAddr(":7070"); got != ":7070" {
		t.Fatalf("expected :7070, got %s", got)
	}
}

func stubServerDeps() func() {
	origLoadEnv := loadEnvFunc
	origLoadConfig := loadConfigFunc
	origInitPostgres := initPostgresFunc
	origInitRedis := initRedisFunc
	origInitTracer := initTracerFunc
	origBuildPipeline := buildPipelineFunc
	origNewTelegramBot := newTelegramBotFunc
	origStartBot := startBotFunc
	origStopBot := stopBotFunc
	origStartAutoRefresh := startAutoRefreshFunc
	origNewRouter := newRouterFunc
	origSetupSignal := setupSignalNotify
	origWait := waitForSignalFunc
	origStartHTTP := startHTTPServerFunc
	origShutdownHTTP := shutdownHTTPServerFunc

	loadEnvFunc = func(...string) error { return nil }
	loadConfigFunc = func() *config.Config {
		return &config.Config{Port: "8080", MarketProvider: "twelvedata", TelegramMode: "polling"}
	}
	initPostgresFunc = func(context.Context) {}
	initRedisFunc = func(context.Context) {}
	initTracerFunc = func(ctx context.Context) (*sdktrace.TracerProvider, trace.Tracer, error) {
		tp := sdktrace.NewTracerProvider()
		return tp, tp.Tracer("test"), nil
	}
	buildPipelineFunc = func(context.Context, *config.Config, trace.Tracer, *metrics.Metrics) (*app.Pipeline, error) {
		return &app.Pipeline{}, nil
	}
	newTelegramBotFunc = func(bot.Settings) (*tele.Bot, error) { return nil, nil }
	startBotFunc = func(*tele.Bot) {}
	stopBotFunc = func(*tele.Bot) {}
	startAutoRefreshFunc = func(*job.AutoRefresher, context.Context) {}
	newRouterFunc = func(...gin.OptionFunc) *gin.Engine { return gin.New() }
	setupSignalNotify = func(c chan<- os.Signal, sig ...os.Signal) {}
	waitForSignalFunc = func(<-chan os.Signal) {}
	startHTTPServerFunc = func(*http.Server) error { return http.ErrServerClosed }
	shutdownHTTPServerFunc = func(*http.Server, context.Context) error { return nil }

	return func() {
		loadEnvFunc = origLoadEnv
		loadConfigFunc = origLoadConfig
		initPostgresFunc = origInitPostgres
		initRedisFunc = origInitRedis
		initTracerFunc = origInitTracer
		buildPipelineFunc = origBuildPipeline
		newTelegramBotFunc = origNewTelegramBot
		startBotFunc = origStartBot
		stopBotFunc = origStopBot
		startAutoRefreshFunc = origStartAutoRefresh
		newRouterFunc = origNewRouter
		setupSignalNotify = origSetupSignal
		waitForSignalFunc = origWait
		startHTTPServerFunc = origStartHTTP
		shutdownHTTPServerFunc = origShutdownHTTP
	}
}
