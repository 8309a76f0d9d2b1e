package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mx4242/go-flash-rtmp/internal/circuit"
	"github.com/mx4242/go-flash-rtmp/internal/config"
	"github.com/mx4242/go-flash-rtmp/internal/logger"
	"github.com/mx4242/go-flash-rtmp/internal/retry"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/netconn"
	"github.com/mx4242/go-flash-rtmp/internal/rtmp/transaction"
	"github.com/mx4242/go-flash-rtmp/internal/transport"
)

func main() {
	cfgPath := flag.String("config", "", "Path to JSON config file")
	urlFlag := flag.String("url", "", "RTMP URL, e.g. rtmp://host:1935/app/instance (overrides config)")
	httpAddr := flag.String("http-addr", "", "HTTP listen address for metrics (empty to disable)")
	chunkSize := flag.Int("chunk-size", 0, "Outbound chunk size (overrides config)")
	flag.Parse()

	log := logger.New()

	baseCfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.LoadFile(*cfgPath)
		if err != nil {
			log.Fatal("failed to load config", "err", err)
		}
		baseCfg = loaded
	}

	if *urlFlag != "" {
		baseCfg.URL = *urlFlag
	}
	if *httpAddr != "" {
		baseCfg.HTTPAddr = *httpAddr
	}
	if *chunkSize > 0 {
		baseCfg.ChunkSize = *chunkSize
	}

	if err := baseCfg.Validate(); err != nil {
		log.Fatal("invalid config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if baseCfg.HTTPAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: baseCfg.HTTPAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server error", "err", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	retryCfg := retry.DefaultConfig()
	if baseCfg.Retry.Enabled {
		retryCfg = retry.Config{
			MaxAttempts:    baseCfg.Retry.MaxAttempts,
			InitialDelay:   time.Duration(baseCfg.Retry.InitialDelaySec) * time.Second,
			MaxDelay:       time.Duration(baseCfg.Retry.MaxDelaySec) * time.Second,
			Multiplier:     baseCfg.Retry.Multiplier,
			JitterFraction: baseCfg.Retry.JitterFraction,
		}
	}

	var breaker *circuit.Breaker
	if baseCfg.CircuitBreaker.Enabled {
		breaker = circuit.New(
			baseCfg.CircuitBreaker.MaxFailures,
			time.Duration(baseCfg.CircuitBreaker.ResetTimeoutSec)*time.Second,
			baseCfg.CircuitBreaker.SuccessThresh,
		)
	}

	for {
		session := func() error { return runSession(ctx, baseCfg, retryCfg, log) }

		var err error
		if breaker != nil {
			err = breaker.Call(session)
		} else {
			err = session()
		}

		if ctx.Err() != nil {
			log.Info("shutting down", "reason", ctx.Err())
			return
		}
		if err != nil {
			log.Error("session ended", "err", err)
			if errors.Is(err, circuit.ErrOpen) {
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			continue
		}
		return
	}
}

func runSession(ctx context.Context, cfg config.Config, retryCfg retry.Config, log *logger.Logger) error {
	tr := transport.NewTCP(transport.Options{
		DialTimeout:    cfg.ConnectTimeout.AsDuration(),
		Retry:          retryCfg,
		DialsPerSecond: cfg.DialsPerSecond,
	})

	nc := netconn.New(tr, netconn.Options{
		Logger:         log,
		FlashVer:       cfg.Identity.FlashVer,
		SwfURL:         cfg.Identity.SwfURL,
		PageURL:        cfg.Identity.PageURL,
		ObjectEncoding: netconn.ObjectEncoding(cfg.Identity.ObjectEncoding),
		ChunkSize:      uint32(cfg.ChunkSize),
		MaxMessageSize: uint32(cfg.MaxMessageSize),
	})

	err := nc.Connect(cfg.URL, func(outcome transaction.Outcome, object interface{}, args []interface{}) {
		if outcome == transaction.Result {
			log.Info("connect accepted", "properties", object, "information", args)
			return
		}
		log.Warn("connect rejected", "properties", object, "information", args)
	})
	if err != nil {
		return err
	}
	defer nc.Disconnect()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := nc.ProcessMessages(); err != nil {
			return err
		}
	}
}
