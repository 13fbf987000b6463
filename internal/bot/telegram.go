package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/session"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	tele "gopkg.in/telebot.v3"
)

const (
	ModePolling = "polling"
	ModeWebhook = "webhook"

	greeting    = "Привет! Я бот для торговли. Используй /signal или /id."
	helpText    = "/signal - выбрать пару и таймфрейм и получить сигнал\n/auto on|off|status - автообновление сигнала\n/id - ваш chat_id\n/help - эта справка"
	choosePair  = "Выберите валютную пару:"
	busyText    = "⏳ Анализ уже выполняется, подождите..."
	restartText = "Сначала выберите пару: /signal"
)

type Analyzer interface {
	Analyze(ctx context.Context, pair string, timeframe domain.Timeframe) (*domain.Analysis, error)
	Pairs() []string
	Timeframes() []domain.Timeframe
}

type SignalReporter interface {
	Report(ctx context.Context, a *domain.Analysis, chatID int64) error
	ReportError(ctx context.Context, chatID int64, err error) error
}

type Settings struct {
	Token         string
	Mode          string
	WebhookURL    string
	WebhookListen string
}

// NewTelegramBot builds the bot API client. It returns nil without an error
// when no token is configured.
func NewTelegramBot(settings Settings) (*tele.Bot, error) {
	if settings.Token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	poller, err := newPoller(settings)
	if err != nil {
		return nil, err
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  settings.Token,
		Poller: poller,
		OnError: func(err error, c tele.Context) {
			log.Printf("telegram handler error: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

func newPoller(settings Settings) (tele.Poller, error) {
	switch strings.ToLower(settings.Mode) {
	case "", ModePolling:
		return &tele.LongPoller{Timeout: 10 * time.Second}, nil
	case ModeWebhook:
		if settings.WebhookURL == "" {
			return nil, errors.New("TELEGRAM_WEBHOOK_URL is required in webhook mode")
		}
		listen := settings.WebhookListen
		if listen == "" {
			listen = ":8443"
		}
		return &tele.Webhook{
			Listen:   listen,
			Endpoint: &tele.WebhookEndpoint{PublicURL: settings.WebhookURL},
		}, nil
	default:
		return nil, fmt.Errorf("unknown TELEGRAM_MODE %q", settings.Mode)
	}
}

// Handlers drives the conversation: pair keyboard, timeframe keyboard, verdict.
type Handlers struct {
	tracer   trace.Tracer
	analyzer Analyzer
	reporter SignalReporter
	sessions session.Store
	machine  *session.Machine
	locks    *session.Locks
	auto     AutoRefresh

	// stateLocks guards session read-modify-write; locks guards pipeline runs.
	stateLocks *session.Locks
}

// NewHandlers wires the bot handlers. auto may be nil to disable /auto.
func NewHandlers(
	tracer trace.Tracer,
	analyzer Analyzer,
	reporter SignalReporter,
	sessions session.Store,
	machine *session.Machine,
	locks *session.Locks,
	auto AutoRefresh,
) *Handlers {
	if sessions == nil {
		sessions = session.NewMemoryStore()
	}
	if locks == nil {
		locks = session.NewLocks()
	}
	return &Handlers{
		tracer:   tracer,
		analyzer: analyzer,
		reporter: reporter,
		sessions: sessions,
		machine:  machine,
		locks:    locks,
		auto:     auto,

		stateLocks: session.NewLocks(),
	}
}

type handlerRegistrar interface {
	Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc)
}

// Register binds commands and callbacks on b.
func (h *Handlers) Register(b handlerRegistrar) {
	b.Handle("/start", h.onStart)
	b.Handle("/id", h.onID)
	b.Handle("/help", h.onHelp)
	b.Handle("/signal", h.onSignal)
	b.Handle("/auto", h.onAuto)
	b.Handle(btnPair, h.onPair)
	b.Handle(btnTimeframe, h.onTimeframe)
	b.Handle(btnRefresh, h.onRefresh)
	b.Handle(btnChange, h.onChange)
	b.Handle(btnTrade, h.onTrade)
}

func (h *Handlers) onStart(c tele.Context) error {
	return c.Send(greeting)
}

func (h *Handlers) onID(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return c.Send("Unable to detect chat")
	}
	return c.Send(fmt.Sprintf("Ваш chat_id: `%d`", chat.ID), tele.ModeMarkdown)
}

func (h *Handlers) onHelp(c tele.Context) error {
	return c.Send(helpText)
}

func (h *Handlers) onSignal(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return c.Send("Unable to detect chat")
	}
	ctx := context.Background()
	if _, err := h.apply(ctx, chat.ID, session.Start()); err != nil {
		return c.Send(restartText)
	}
	return c.Send(choosePair, pairKeyboard(h.analyzer.Pairs()))
}

func (h *Handlers) onAuto(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return c.Send("Unable to detect chat")
	}
	if h.auto == nil {
		return c.Send("Автообновление недоступно.")
	}
	mode, err := parseAutoMode(c.Args())
	if err != nil {
		return c.Send(autoUsage)
	}
	s := h.load(context.Background(), chat.ID)
	return c.Send(autoReply(h.auto, s, mode))
}

func (h *Handlers) onPair(c tele.Context) error {
	_ = c.Respond()
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := context.Background()
	s, err := h.apply(ctx, chat.ID, session.SelectPair(c.Data()))
	if err != nil {
		if errors.Is(err, domain.ErrUnsupportedPair) {
			return c.Send("Эта пара не поддерживается.", pairKeyboard(h.analyzer.Pairs()))
		}
		return c.Send(restartText)
	}
	return c.Edit(fmt.Sprintf("Пара %s. Выберите таймфрейм:", s.Pair), timeframeKeyboard(h.analyzer.Timeframes()))
}

func (h *Handlers) onTimeframe(c tele.Context) error {
	_ = c.Respond()
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := context.Background()
	s, err := h.apply(ctx, chat.ID, session.SelectTimeframe(c.Data()))
	if err != nil {
		return c.Send(restartText)
	}
	return h.runPipeline(ctx, c, s)
}

func (h *Handlers) onRefresh(c tele.Context) error {
	_ = c.Respond()
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := context.Background()
	s, err := h.apply(ctx, chat.ID, session.Refresh())
	if err != nil {
		return c.Send(restartText)
	}
	return h.runPipeline(ctx, c, s)
}

func (h *Handlers) onChange(c tele.Context) error {
	_ = c.Respond()
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	if _, err := h.apply(context.Background(), chat.ID, session.Start()); err != nil {
		return c.Send(restartText)
	}
	return c.Send(choosePair, pairKeyboard(h.analyzer.Pairs()))
}

func (h *Handlers) onTrade(c tele.Context) error {
	_ = c.Respond()
	switch c.Data() {
	case tradeBuy:
		return editVerdict(c, "✅ Сделка BUY зафиксирована!")
	case tradeSell:
		return editVerdict(c, "✅ Сделка SELL зафиксирована!")
	}
	return nil
}

// editVerdict replaces the verdict message. Chart verdicts are photos, and
// Telegram only lets their caption be edited.
func editVerdict(c tele.Context, text string) error {
	if msg := c.Message(); msg != nil && msg.Photo != nil {
		return c.EditCaption(text)
	}
	return c.Edit(text)
}

// runPipeline analyzes the session's selection and reports it. A chat already
// running a pipeline gets a busy notice instead of a second run.
func (h *Handlers) runPipeline(ctx context.Context, c tele.Context, s session.Session) error {
	ctx, span := h.tracer.Start(ctx, "bot.run-pipeline")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("chat_id", s.ChatID),
		attribute.String("pair", s.Pair),
		attribute.String("timeframe", s.Timeframe.String()),
	)

	unlock, ok := h.locks.TryLock(s.ChatID)
	if !ok {
		return c.Send(busyText)
	}
	defer unlock()

	_ = c.Notify(tele.UploadingPhoto)

	a, err := h.analyzer.Analyze(ctx, s.Pair, s.Timeframe)
	if err != nil {
		log.Printf("signal analyze error for chat %d %s %s: %v", s.ChatID, s.Pair, s.Timeframe, err)
		return h.reporter.ReportError(ctx, s.ChatID, err)
	}
	return h.reporter.Report(ctx, a, s.ChatID)
}

func (h *Handlers) load(ctx context.Context, chatID int64) session.Session {
	s, err := h.sessions.Get(ctx, chatID)
	if err != nil {
		log.Printf("session load error for chat %d: %v", chatID, err)
		return session.New(chatID)
	}
	return s
}

// apply runs one load, transition and save under the chat's state lock, so
// concurrent callbacks for a chat cannot overwrite each other.
func (h *Handlers) apply(ctx context.Context, chatID int64, ev session.Event) (session.Session, error) {
	unlock := h.stateLocks.Lock(chatID)
	defer unlock()

	current := h.load(ctx, chatID)
	next, _, err := h.machine.Transition(current, ev)
	if err != nil {
		return current, err
	}
	if err := h.sessions.Save(ctx, next); err != nil {
		log.Printf("session save error for chat %d: %v", chatID, err)
	}
	return next, nil
}
