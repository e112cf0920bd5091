package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the workflow engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay transitions.
type Observer interface {
	// OnRecordCreated is called once when a record is first persisted,
	// before the initial generation call.
	OnRecordCreated(ctx context.Context, rec *PostRecord)

	// OnTransition is called after every successful state transition.
	OnTransition(ctx context.Context, rec *PostRecord, from, to State)

	// OnGenerateStart is called before invoking the ContentGenerator.
	// attempt is 1-based.
	OnGenerateStart(ctx context.Context, rec *PostRecord, attempt int)

	// OnGenerateCompleted is called after the ContentGenerator returns,
	// for both successes and failures (err != nil).
	OnGenerateCompleted(ctx context.Context, rec *PostRecord, attempt int, err error, duration time.Duration)

	// OnPublishStart is called before invoking the Publisher.
	OnPublishStart(ctx context.Context, rec *PostRecord)

	// OnPublishCompleted is called after the Publisher returns.
	OnPublishCompleted(ctx context.Context, rec *PostRecord, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnRecordCreated(ctx context.Context, rec *PostRecord)              {}
func (NoopObserver) OnTransition(ctx context.Context, rec *PostRecord, from, to State) {}
func (NoopObserver) OnGenerateStart(ctx context.Context, rec *PostRecord, attempt int) {}
func (NoopObserver) OnGenerateCompleted(ctx context.Context, rec *PostRecord, attempt int, err error, d time.Duration) {
}
func (NoopObserver) OnPublishStart(ctx context.Context, rec *PostRecord) {}
func (NoopObserver) OnPublishCompleted(ctx context.Context, rec *PostRecord, err error, d time.Duration) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnRecordCreated(ctx context.Context, rec *PostRecord) {
	for _, o := range c.observers {
		o.OnRecordCreated(ctx, rec)
	}
}

func (c *CompositeObserver) OnTransition(ctx context.Context, rec *PostRecord, from, to State) {
	for _, o := range c.observers {
		o.OnTransition(ctx, rec, from, to)
	}
}

func (c *CompositeObserver) OnGenerateStart(ctx context.Context, rec *PostRecord, attempt int) {
	for _, o := range c.observers {
		o.OnGenerateStart(ctx, rec, attempt)
	}
}

func (c *CompositeObserver) OnGenerateCompleted(ctx context.Context, rec *PostRecord, attempt int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnGenerateCompleted(ctx, rec, attempt, err, d)
	}
}

func (c *CompositeObserver) OnPublishStart(ctx context.Context, rec *PostRecord) {
	for _, o := range c.observers {
		o.OnPublishStart(ctx, rec)
	}
}

func (c *CompositeObserver) OnPublishCompleted(ctx context.Context, rec *PostRecord, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnPublishCompleted(ctx, rec, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs record / transition
// lifecycle events using the provided slog.Logger. If logger is nil,
// slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnRecordCreated(ctx context.Context, rec *PostRecord) {
	o.Logger.InfoContext(ctx, "record_created",
		slog.String("post_id", rec.ID),
		slog.String("platform", string(rec.Platform)),
		slog.String("topic", rec.Topic),
	)
}

func (o *LoggingObserver) OnTransition(ctx context.Context, rec *PostRecord, from, to State) {
	o.Logger.InfoContext(ctx, "transition",
		slog.String("post_id", rec.ID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
		slog.Int("attempt_count", rec.AttemptCount),
	)
}

func (o *LoggingObserver) OnGenerateStart(ctx context.Context, rec *PostRecord, attempt int) {
	o.Logger.DebugContext(ctx, "generate_start",
		slog.String("post_id", rec.ID),
		slog.Int("attempt", attempt),
	)
}

func (o *LoggingObserver) OnGenerateCompleted(ctx context.Context, rec *PostRecord, attempt int, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "generate_completed",
		slog.String("post_id", rec.ID),
		slog.Int("attempt", attempt),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnPublishStart(ctx context.Context, rec *PostRecord) {
	o.Logger.DebugContext(ctx, "publish_start",
		slog.String("post_id", rec.ID),
		slog.String("platform", string(rec.Platform)),
	)
}

func (o *LoggingObserver) OnPublishCompleted(ctx context.Context, rec *PostRecord, err error, d time.Duration) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "publish_completed",
		slog.String("post_id", rec.ID),
		slog.String("platform", string(rec.Platform)),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate call durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	recordsCreated    atomic.Int64
	published         atomic.Int64
	publishFailed     atomic.Int64
	rejectedFinal     atomic.Int64
	generateCalls     atomic.Int64
	generateFailures  atomic.Int64
	totalGenerateTime atomic.Int64 // nanoseconds, successful calls only
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	RecordsCreated   int64
	Published        int64
	PublishFailed    int64
	RejectedFinal    int64
	GenerateCalls    int64
	GenerateFailures int64
	AvgGenerateTime  time.Duration
}

func (m *BasicMetrics) OnRecordCreated(ctx context.Context, rec *PostRecord) {
	m.recordsCreated.Add(1)
}

func (m *BasicMetrics) OnTransition(ctx context.Context, rec *PostRecord, from, to State) {
	switch to {
	case StatePublished:
		m.published.Add(1)
	case StatePublishFailed:
		m.publishFailed.Add(1)
	case StateRejectedFinal:
		m.rejectedFinal.Add(1)
	}
}

func (m *BasicMetrics) OnGenerateCompleted(ctx context.Context, rec *PostRecord, attempt int, err error, d time.Duration) {
	m.generateCalls.Add(1)
	if err != nil {
		m.generateFailures.Add(1)
		return
	}
	m.totalGenerateTime.Add(d.Nanoseconds())
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	calls := m.generateCalls.Load()
	failures := m.generateFailures.Load()
	totalNs := m.totalGenerateTime.Load()

	var avg time.Duration
	if ok := calls - failures; ok > 0 {
		avg = time.Duration(totalNs / ok)
	}

	return BasicMetricsSnapshot{
		RecordsCreated:   m.recordsCreated.Load(),
		Published:        m.published.Load(),
		PublishFailed:    m.publishFailed.Load(),
		RejectedFinal:    m.rejectedFinal.Load(),
		GenerateCalls:    calls,
		GenerateFailures: failures,
		AvgGenerateTime:  avg,
	}
}
