package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/barometer"
	"github.com/mklimuk/barometer/cmd/bmp280/console"
	"github.com/mklimuk/barometer/publish"
	"github.com/mklimuk/barometer/telemetry"
	"github.com/mklimuk/barometer/watch"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "sample on a schedule, export metrics and publish to MQTT",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "schedule", Usage: "cron schedule, e.g. '@every 30s' or '*/5 * * * *'"},
		&cli.StringFlag{Name: "metrics", Usage: "metrics listen address, empty to disable"},
		&cli.StringFlag{Name: "broker", Usage: "MQTT broker URL, empty to disable publishing"},
		&cli.StringFlag{Name: "topic", Usage: "MQTT topic"},
	},
	Action: func(c *cli.Context) error {
		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
		metrics := telemetry.NewMetrics(reg)

		t, err := openTarget(c, func(bus barometer.I2CBus, name string) barometer.I2CBus {
			return telemetry.InstrumentBus(bus, name, metrics)
		})
		if err != nil {
			return err
		}
		defer t.Close()
		cfg := t.cfg
		if c.IsSet("schedule") {
			cfg.Watch.Schedule = c.String("schedule")
		}
		if c.IsSet("metrics") {
			cfg.Watch.MetricsAddr = c.String("metrics")
		}
		if c.IsSet("broker") {
			cfg.MQTT.Broker = c.String("broker")
		}
		if c.IsSet("topic") {
			cfg.MQTT.Topic = c.String("topic")
		}

		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s := t.dev.NewSession()
		if err := s.Calibrate(ctx); err != nil {
			return console.Fail("calibration error", err)
		}
		opts := []watch.Option{watch.WithMetrics(metrics)}
		if cfg.MQTT.Broker != "" {
			p, err := publish.Connect(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Topic)
			if err != nil {
				return console.Fail("mqtt error", err)
			}
			defer p.Close()
			opts = append(opts, watch.WithSink(p))
		}
		w := watch.New(t.id, s, opts...)

		if cfg.Watch.MetricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", telemetry.Handler(reg))
			srv := &http.Server{Addr: cfg.Watch.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				slog.Info("serving metrics", "addr", cfg.Watch.MetricsAddr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("metrics server failed", "error", err)
				}
			}()
			defer func() {
				shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdown)
			}()
		}

		// first reading right away, then on schedule
		if _, err := w.Tick(ctx); err != nil {
			console.Errorf("%s", err)
		}
		if err := w.Run(ctx, cfg.Watch.Schedule); err != nil {
			return console.Fail("scheduler error", err)
		}
		return nil
	},
}
