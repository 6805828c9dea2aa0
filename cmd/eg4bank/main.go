// cmd/eg4bank/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tamzrod/eg4-bank/internal/config"
	"github.com/tamzrod/eg4-bank/internal/httpapi"
	"github.com/tamzrod/eg4-bank/internal/logging"
	"github.com/tamzrod/eg4-bank/internal/metrics"
	"github.com/tamzrod/eg4-bank/internal/poller"
	"github.com/tamzrod/eg4-bank/internal/status"
	"github.com/tamzrod/eg4-bank/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: eg4bank <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Metrics (optional)
	// --------------------

	var (
		rec      poller.Recorder
		metricsH http.Handler
	)
	if cfg.Metrics.Enable {
		reg := metrics.NewRegistry()
		rec = metrics.NewBankMetrics(reg)
		metricsH = metrics.Handler(reg)
	}

	// --------------------
	// Polling session
	// --------------------

	session, closeLink, err := poller.Build(cfg, logger, rec)
	if err != nil {
		logger.Fatal("session build failed", zap.String("port", cfg.Bank.Port), zap.Error(err))
	}
	defer closeLink()

	logger = logger.With(zap.String("session", session.ID()))
	logger.Info("bank session started",
		zap.String("port", cfg.Bank.Port),
		zap.Int("baud_rate", cfg.Bank.BaudRate),
		zap.String("aggregation", cfg.Bank.Aggregation),
		zap.Duration("interval", cfg.Bank.Interval()),
	)

	// --------------------
	// Register mirror (optional)
	// --------------------

	var (
		dataWriter    writer.Writer
		statusWriter  writer.StatusWriter
		statusEnabled bool
	)
	if cfg.Mirror != nil {
		plan, err := writer.BuildPlan(cfg.Mirror)
		if err != nil {
			logger.Fatal("mirror plan failed", zap.Error(err))
		}

		cli, err := writer.BuildEndpointClient(cfg.Mirror)
		if err != nil {
			logger.Fatal("mirror client failed", zap.String("endpoint", cfg.Mirror.Endpoint), zap.Error(err))
		}
		defer cli.Close()

		dataWriter = writer.New(plan, cli)
		statusWriter, statusEnabled = writer.NewDeviceStatusWriter(plan, cli)
	}

	// --------------------
	// Health (runner-owned tracker, published for the API)
	// --------------------

	staleAfter := int((3 * cfg.Bank.Interval()).Seconds()) + 1
	tracker := status.NewTracker(staleAfter)

	var healthMu sync.RWMutex
	health := tracker.Snapshot()
	healthFn := func() status.Snapshot {
		healthMu.RLock()
		defer healthMu.RUnlock()
		return health
	}
	publish := func() {
		snap := tracker.Snapshot()
		healthMu.Lock()
		health = snap
		healthMu.Unlock()

		if !statusEnabled {
			return
		}
		if err := statusWriter.WriteStatus(snap); err != nil {
			logger.Error("status write failed", zap.Error(err))
		}
	}

	// --------------------
	// HTTP (optional)
	// --------------------

	var srv *httpapi.Server
	if cfg.API.Addr != "" {
		srv = httpapi.New(cfg.API.Addr, session, healthFn, metricsH, logger)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("http server stopped", zap.Error(err))
			}
		}()
		logger.Info("http api listening", zap.String("addr", cfg.API.Addr))
	}

	// --------------------
	// Orchestrator (runner-owned state + 1Hz seconds ticker)
	// --------------------

	out := make(chan poller.RefreshResult)
	done := make(chan struct{})

	go func() {
		defer close(done)

		secTicker := time.NewTicker(time.Second)
		defer secTicker.Stop()

		// Full block write on start (identity re-assert) if enabled.
		publish()

		for {
			select {
			case <-ctx.Done():
				return

			case res := <-out:
				// --- data delivery ---
				if dataWriter != nil {
					if err := dataWriter.Write(res); err != nil {
						logger.Error("mirror write failed", zap.Error(err))
					}
				}

				if res.Err != nil {
					logger.Error("refresh failed", zap.Error(res.Err))
				} else {
					logger.Debug("refresh ok",
						zap.Int("units", res.Units),
						zap.Float64("soc", res.Pack.SoC),
						zap.Float64("voltage", res.Pack.Voltage),
					)
				}

				// --- status update (bank-level truth) ---
				if tracker.Observe(res.Err, res.Units) {
					publish()
				}

			case <-secTicker.C:
				if tracker.Tick() {
					publish()
				}
			}
		}
	}()

	// poller producer
	go session.Run(ctx, out)

	<-ctx.Done()
	logger.Info("shutting down")

	if srv != nil {
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutCtx); err != nil {
			logger.Error("http shutdown failed", zap.Error(err))
		}
		cancel()
	}
	<-done
}
