package job

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/metrics"
	"fx-signal-bot/internal/session"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultAutoRefreshSpec  = "@every 5m"
	DefaultAutoRefreshPause = 1500 * time.Millisecond
)

// Subscription is the selection a chat receives on every auto-refresh tick.
type Subscription struct {
	ChatID    int64
	Pair      string
	Timeframe domain.Timeframe
}

type Analyzer interface {
	Analyze(ctx context.Context, pair string, timeframe domain.Timeframe) (*domain.Analysis, error)
}

type SignalReporter interface {
	Report(ctx context.Context, a *domain.Analysis, chatID int64) error
	ReportError(ctx context.Context, chatID int64, err error) error
}

type AutoRefreshOptions struct {
	Spec    string
	Pause   time.Duration
	Metrics *metrics.Metrics
}

// AutoRefresher re-runs the pipeline for every subscribed chat on a cron schedule.
type AutoRefresher struct {
	tracer   trace.Tracer
	analyzer Analyzer
	reporter SignalReporter
	locks    *session.Locks
	schedule cron.Schedule
	pause    time.Duration
	metrics  *metrics.Metrics
	sleep    func(ctx context.Context, d time.Duration) error

	mu   sync.RWMutex
	subs map[int64]Subscription
}

func NewAutoRefresher(
	tracer trace.Tracer,
	analyzer Analyzer,
	reporter SignalReporter,
	locks *session.Locks,
	opts AutoRefreshOptions,
) (*AutoRefresher, error) {
	spec := opts.Spec
	if spec == "" {
		spec = DefaultAutoRefreshSpec
	}
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse auto refresh spec %q: %w", spec, err)
	}
	pause := opts.Pause
	if pause < 0 {
		pause = 0
	}
	if locks == nil {
		locks = session.NewLocks()
	}
	return &AutoRefresher{
		tracer:   tracer,
		analyzer: analyzer,
		reporter: reporter,
		locks:    locks,
		schedule: schedule,
		pause:    pause,
		metrics:  opts.Metrics,
		sleep:    sleepContext,
		subs:     make(map[int64]Subscription),
	}, nil
}

// Subscribe registers or replaces the chat's selection. It reports whether the
// chat was not subscribed before.
func (r *AutoRefresher) Subscribe(sub Subscription) bool {
	r.mu.Lock()
	_, exists := r.subs[sub.ChatID]
	r.subs[sub.ChatID] = sub
	n := len(r.subs)
	r.mu.Unlock()

	r.metrics.SetSubscribers(n)
	return !exists
}

func (r *AutoRefresher) Unsubscribe(chatID int64) bool {
	r.mu.Lock()
	_, exists := r.subs[chatID]
	delete(r.subs, chatID)
	n := len(r.subs)
	r.mu.Unlock()

	r.metrics.SetSubscribers(n)
	return exists
}

func (r *AutoRefresher) Subscription(chatID int64) (Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.subs[chatID]
	return sub, ok
}

func (r *AutoRefresher) IsSubscribed(chatID int64) bool {
	_, ok := r.Subscription(chatID)
	return ok
}

func (r *AutoRefresher) SubscriberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

func (r *AutoRefresher) snapshot() []Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make([]Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ChatID < subs[j].ChatID })
	return subs
}

// Start runs the schedule until ctx is cancelled, then waits for a running tick.
func (r *AutoRefresher) Start(ctx context.Context) {
	if r.analyzer == nil || r.reporter == nil {
		log.Println("Auto refresh disabled: no analyzer or reporter")
		<-ctx.Done()
		return
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.Default()))))
	c.Schedule(r.schedule, cron.FuncJob(func() { r.RunOnce(ctx) }))

	log.Println("Auto refresh starting...")
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	log.Println("Auto refresh stopped")
}

// RunOnce walks the subscriptions in chat id order, one at a time, pausing
// between destinations.
func (r *AutoRefresher) RunOnce(ctx context.Context) {
	ctx, span := r.tracer.Start(ctx, "auto-refresh.run")
	defer span.End()

	subs := r.snapshot()
	span.SetAttributes(attribute.Int("subscribers", len(subs)))
	r.metrics.SetSubscribers(len(subs))

	for i, sub := range subs {
		if i > 0 && r.pause > 0 {
			if err := r.sleep(ctx, r.pause); err != nil {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
		r.refresh(ctx, sub)
	}
}

func (r *AutoRefresher) refresh(ctx context.Context, sub Subscription) {
	unlock := r.locks.Lock(sub.ChatID)
	defer unlock()

	a, err := r.analyzer.Analyze(ctx, sub.Pair, sub.Timeframe)
	if err != nil {
		log.Printf("auto refresh analyze error for chat %d %s %s: %v", sub.ChatID, sub.Pair, sub.Timeframe, err)
		if rerr := r.reporter.ReportError(ctx, sub.ChatID, err); rerr != nil {
			log.Printf("auto refresh error report failed for chat %d: %v", sub.ChatID, rerr)
		}
		return
	}
	if err := r.reporter.Report(ctx, a, sub.ChatID); err != nil {
		log.Printf("auto refresh report error for chat %d: %v", sub.ChatID, err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
