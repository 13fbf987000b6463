// Package report delivers analyses to chats and records them in the signal log.
package report

import (
	"context"
	"fmt"
	"log"

	"fx-signal-bot/internal/domain"
	"fx-signal-bot/internal/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Sender delivers messages to a chat. chart may be nil.
type Sender interface {
	SendSignal(ctx context.Context, chatID int64, text string, chart []byte) error
	SendText(ctx context.Context, chatID int64, text string) error
}

type ChartRenderer interface {
	Render(series domain.PriceSeries, verdict domain.Verdict) ([]byte, error)
}

type SignalStore interface {
	InsertSignal(ctx context.Context, rec domain.SignalRecord) (domain.SignalRecord, error)
}

type Publisher interface {
	Publish(a *domain.Analysis)
}

type Reporter struct {
	tracer    trace.Tracer
	sender    Sender
	charts    ChartRenderer
	store     SignalStore
	publisher Publisher
	metrics   *metrics.Metrics
}

// NewReporter wires a reporter. charts, store, publisher and m may be nil.
func NewReporter(
	tracer trace.Tracer,
	sender Sender,
	charts ChartRenderer,
	store SignalStore,
	publisher Publisher,
	m *metrics.Metrics,
) *Reporter {
	return &Reporter{
		tracer:    tracer,
		sender:    sender,
		charts:    charts,
		store:     store,
		publisher: publisher,
		metrics:   m,
	}
}

// Report sends the verdict to chatID, then appends it to the signal log and
// publishes it. Persistence failures are logged and never returned.
func (r *Reporter) Report(ctx context.Context, a *domain.Analysis, chatID int64) error {
	ctx, span := r.tracer.Start(ctx, "reporter.report")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("chat_id", chatID),
		attribute.String("pair", a.Pair),
		attribute.String("direction", string(a.Verdict.Direction)),
	)

	text := FormatVerdict(a)
	var chart []byte
	if r.charts != nil {
		rendered, err := r.charts.Render(a.Series, a.Verdict)
		if err != nil {
			log.Printf("chart render error for %s %s: %v", a.Pair, a.Timeframe, err)
		} else {
			chart = rendered
		}
	}

	sendErr := r.sender.SendSignal(ctx, chatID, text, chart)
	if sendErr != nil {
		log.Printf("signal delivery error for chat %d: %v", chatID, sendErr)
	}

	r.persist(ctx, a)
	if r.publisher != nil {
		r.publisher.Publish(a)
	}

	if sendErr != nil {
		return fmt.Errorf("deliver signal to chat %d: %w", chatID, sendErr)
	}
	return nil
}

func (r *Reporter) persist(ctx context.Context, a *domain.Analysis) {
	if r.store == nil {
		return
	}
	if _, err := r.store.InsertSignal(ctx, domain.NewSignalRecord(a)); err != nil {
		r.metrics.PersistFailed()
		log.Printf("signal persist error for %s %s: %v", a.Pair, a.Timeframe, err)
	}
}

// ReportError sends the diagnostic message for err to chatID.
func (r *Reporter) ReportError(ctx context.Context, chatID int64, err error) error {
	ctx, span := r.tracer.Start(ctx, "reporter.report-error")
	defer span.End()

	if sendErr := r.sender.SendText(ctx, chatID, FormatError(err)); sendErr != nil {
		return fmt.Errorf("deliver error to chat %d: %w", chatID, sendErr)
	}
	return nil
}
