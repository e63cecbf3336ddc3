package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/nathanyu/limitbook/internal/config"
	"github.com/nathanyu/limitbook/internal/events"
	"github.com/nathanyu/limitbook/internal/gateway"
	"github.com/nathanyu/limitbook/internal/ingest"
	"github.com/nathanyu/limitbook/internal/logging"
	"github.com/nathanyu/limitbook/internal/marketdata"
	"github.com/nathanyu/limitbook/internal/matching"
	"github.com/nathanyu/limitbook/internal/middleware"
	"github.com/nathanyu/limitbook/internal/portfolio"
	"github.com/nathanyu/limitbook/internal/sequencer"
)

const configPathEnv = "LIMITBOOK_CONFIG"

func main() {
	cfgPath := os.Getenv(configPathEnv)
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Encoding)
	defer log.Sync()
	log.Info("starting limitbook service")

	// --- Core components ---
	//
	// register_observer → Engine (cross loop, ladders, index) → events.Registry
	//                                                              ↓ synchronous fan-out
	//                      portfolio.Accountant, marketdata.{CSVSink,CandlePublisher,Broadcaster},
	//                      middleware.EngineObserver
	//
	// Sequencer sits in front of the Engine so HTTP handlers and the Kafka
	// ingest adapter can submit commands from different goroutines while the
	// engine itself stays single-threaded-cooperative (spec.md §5).

	registry := events.NewRegistry(log.Named("events"))
	engine := matching.NewEngine(registry)
	seq := sequencer.NewSequencer(engine, cfg.Sequencer.BufferSize, log.Named("sequencer"))

	accountant := portfolio.NewAccountant(decimal.NewFromFloat(0.01))
	engine.RegisterObserver(accountant)
	engine.RegisterObserver(middleware.EngineObserver{})

	var csvFile *os.File
	if cfg.MarketData.CSVPath != "" {
		csvFile, err = os.Create(cfg.MarketData.CSVPath)
		if err != nil {
			log.Sugar().Fatalw("open csv sink", "path", cfg.MarketData.CSVPath, "error", err)
		}
		defer csvFile.Close()
		engine.RegisterObserver(marketdata.NewCSVSink(csvFile, time.Now))
	}

	candles := marketdata.NewCandlePublisher(time.Duration(cfg.MarketData.CandleIntervalSec) * time.Second)
	engine.RegisterObserver(candles)

	var broadcaster *marketdata.Broadcaster
	if cfg.MarketData.WebSocketEnabled {
		broadcaster = marketdata.NewBroadcaster()
		engine.RegisterObserver(broadcaster)
	}

	seq.Start()

	// --- Market-data ingest (optional) ---

	var feedConsumer *ingest.FeedConsumer
	ingestCtx, cancelIngest := context.WithCancel(context.Background())
	if cfg.Ingest.Enabled {
		feedConsumer = ingest.NewFeedConsumer(ingest.Config{
			Brokers:    cfg.Ingest.Brokers,
			Topic:      cfg.Ingest.Topic,
			GroupID:    cfg.Ingest.GroupID,
			PriceScale: cfg.Ingest.PriceScale,
		}, seq, log.Named("ingest"))
		go func() {
			if err := feedConsumer.Run(ingestCtx); err != nil {
				log.Sugar().Errorw("feed consumer stopped", "error", err)
			}
		}()
	}

	// --- HTTP server ---

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.PrometheusMiddleware())

	gw := gateway.New(seq, engine)
	gw.RegisterRoutes(r)
	if broadcaster != nil {
		r.GET("/v1/stream", func(c *gin.Context) { broadcaster.ServeHTTP(c.Writer, c.Request) })
	}

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.HTTP.Port), Handler: r}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Metrics.Port), Handler: metricsMux}

	go func() {
		log.Sugar().Infow("http server listening", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Fatalw("http server error", "error", err)
		}
	}()
	go func() {
		log.Sugar().Infow("metrics server listening", "port", cfg.Metrics.Port)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Sugar().Fatalw("metrics server error", "error", err)
		}
	}()

	// --- Graceful shutdown ---

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cancelIngest()
	if feedConsumer != nil {
		feedConsumer.Close()
	}
	seq.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Sugar().Errorw("http server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(ctx); err != nil {
		log.Sugar().Errorw("metrics server shutdown", "error", err)
	}

	log.Info("limitbook service stopped")
}
