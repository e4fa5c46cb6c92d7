// Package watch samples a barometer on a cron schedule and fans the readings
// out to metrics and publishers.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mklimuk/barometer/environment"
	"github.com/mklimuk/barometer/telemetry"
)

// Sink receives every successful reading.
type Sink interface {
	Publish(ctx context.Context, device string, r environment.Reading, at time.Time) error
}

type Watcher struct {
	mx      sync.Mutex
	device  string
	source  environment.Barometer
	metrics *telemetry.Metrics
	sinks   []Sink
	now     func() time.Time
	last    environment.Reading
	ok      bool
}

type Option func(*Watcher)

func WithMetrics(m *telemetry.Metrics) Option {
	return func(w *Watcher) {
		w.metrics = m
	}
}

func WithSink(s Sink) Option {
	return func(w *Watcher) {
		w.sinks = append(w.sinks, s)
	}
}

func New(device string, source environment.Barometer, opts ...Option) *Watcher {
	w := &Watcher{
		device: device,
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Tick takes one reading and hands it to the metrics and every sink. Sink
// failures are logged and do not fail the tick.
func (w *Watcher) Tick(ctx context.Context) (environment.Reading, error) {
	w.mx.Lock()
	defer w.mx.Unlock()
	at := w.now()
	r, err := environment.Read(ctx, w.source)
	if err != nil {
		if w.metrics != nil {
			w.metrics.ObserveError(w.device)
		}
		return r, fmt.Errorf("%s: reading failed: %w", w.device, err)
	}
	w.last, w.ok = r, true
	if w.metrics != nil {
		w.metrics.Observe(w.device, r, at)
	}
	for _, s := range w.sinks {
		if err := s.Publish(ctx, w.device, r, at); err != nil {
			slog.Error("could not publish reading", "device", w.device, "error", err)
		}
	}
	return r, nil
}

// Last returns the most recent successful reading.
func (w *Watcher) Last() (environment.Reading, bool) {
	w.mx.Lock()
	defer w.mx.Unlock()
	return w.last, w.ok
}

// Run ticks on the cron schedule until ctx is done.
func (w *Watcher) Run(ctx context.Context, schedule string) error {
	cr := cron.New()
	_, err := cr.AddFunc(schedule, func() {
		r, err := w.Tick(ctx)
		if err != nil {
			slog.Error("measurement failed", "error", err)
			return
		}
		slog.Info("measurement", "device", w.device, "temperature", r.Temperature, "pressure", r.Pressure)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	slog.Info("starting cron scheduler", "schedule", schedule)
	cr.Start()
	<-ctx.Done()
	<-cr.Stop().Done()
	return nil
}
