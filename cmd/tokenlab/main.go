package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/songzhibin97/tokenlab/internal/ai"
	"github.com/songzhibin97/tokenlab/internal/ai/groq"
	"github.com/songzhibin97/tokenlab/internal/api"
	"github.com/songzhibin97/tokenlab/internal/cache"
	"github.com/songzhibin97/tokenlab/internal/configs"
	"github.com/songzhibin97/tokenlab/internal/data"
	"github.com/songzhibin97/tokenlab/internal/data/storage"
	"github.com/songzhibin97/tokenlab/internal/fetcher"
	"github.com/songzhibin97/tokenlab/internal/history"
	historybinance "github.com/songzhibin97/tokenlab/internal/history/binance"
	"github.com/songzhibin97/tokenlab/internal/providers/blockfrost"
	"github.com/songzhibin97/tokenlab/internal/providers/coingecko"
	"github.com/songzhibin97/tokenlab/internal/providers/coinmarketcap"
	"github.com/songzhibin97/tokenlab/internal/providers/goplus"
	"github.com/songzhibin97/tokenlab/internal/providers/helius"
	"github.com/songzhibin97/tokenlab/internal/providers/mobula"
	"github.com/songzhibin97/tokenlab/internal/providers/moralis"
	"github.com/songzhibin97/tokenlab/internal/risk"
	"github.com/songzhibin97/tokenlab/internal/scan"
)

var (
	flagconf string

	log = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
)

func init() {
	flag.StringVar(&flagconf, "conf", "", "config path, eg: -conf config.yaml")
}

// slogAdapter satisfies the narrow per-package logger interfaces.
type slogAdapter struct {
	log *slog.Logger
}

func (a slogAdapter) Info(msg string, fields ...interface{}) {
	a.log.Info(msg, fields...)
}

func (a slogAdapter) Error(msg string, fields ...interface{}) {
	a.log.Error(msg, fields...)
}

func main() {
	flag.Parse()

	config, err := configs.Load(flagconf)
	if err != nil {
		log.Error("Error loading config", "err", err)
		return
	}

	log.Debug("Loaded config", "listen_addr", config.ListenAddr)

	logger := slogAdapter{log: log}

	cacheTTL, err := time.ParseDuration(config.CacheTTL)
	if err != nil || cacheTTL <= 0 {
		cacheTTL = cache.DefaultTTL
	}

	// 初始化缓存
	var store cache.Store
	if config.Redis.Addr != "" {
		rds := cache.NewRedis(config.Redis.Addr, config.Redis.Password, config.Redis.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rds.Ping(pingCtx)
		cancel()
		if err != nil {
			log.Error("Redis unreachable, falling back to in-process cache", "err", err)
			store = cache.NewMemory()
		} else {
			store = rds
		}
	} else {
		store = cache.NewMemory()
	}

	log.Debug("init cache")

	// 初始化持久化
	var scans data.ScanStorage
	if config.Database.ConnStr != "" {
		storager, err := storage.NewPostgresStorage(config.Database.ConnStr)
		if err != nil {
			log.Error("Error creating storage", "err", err)
			return
		}
		defer storager.Close()
		scans = storager
	}

	log.Debug("init storager")

	// 初始化数据源
	mobulaClient := mobula.New(config.Providers.MobulaAPIKey, logger)
	cmcClient := coinmarketcap.New(config.Providers.CMCAPIKey, logger)
	moralisClient := moralis.New(config.Providers.MoralisAPIKey, logger)
	goplusClient := goplus.New(config.Providers.GoPlusAPIKey, logger)
	heliusClient := helius.New(config.Providers.HeliusAPIKey, logger)
	blockfrostClient := blockfrost.New(config.Providers.BlockfrostAPIKey, logger)

	tokenFetcher := fetcher.New(
		mobulaClient,
		cmcClient,
		moralisClient,
		goplusClient,
		heliusClient,
		blockfrostClient,
		logger,
	)

	log.Debug("init fetcher")

	// 初始化评分引擎
	engine, err := risk.NewEngine(risk.DefaultWeights(), config.Engine.UseAdaptiveWeights, logger)
	if err != nil {
		log.Error("Error creating risk engine", "err", err)
		return
	}

	log.Debug("init risk engine")

	// 初始化meme分类器
	var classifier ai.Classifier
	if config.Engine.EnableAIClassification && config.AIConfig.APIKey != "" {
		classifier = groq.NewGroqClassifier(
			config.AIConfig.APIKey,
			config.AIConfig.BaseURL,
			config.AIConfig.ModelType,
		)
	}
	detector := ai.NewDetector(classifier, logger)

	log.Debug("init detector")

	var official scan.OfficialResolver
	if config.Engine.EnableOfficialResolver {
		official = coingecko.NewResolver(logger)
	}

	// 初始化历史行情
	klines := historybinance.NewKlineSource(config.Providers.BinanceAPIKey, config.Providers.BinanceSecret)
	charts := history.NewService(klines, mobulaClient, moralisClient, logger)

	log.Debug("init history service")

	scanService := scan.NewService(
		tokenFetcher,
		engine,
		detector,
		official,
		charts,
		store,
		scans,
		cacheTTL,
		logger,
	)

	server := api.NewServer(scanService, store, logger)

	httpServer := &http.Server{
		Addr:    config.ListenAddr,
		Handler: server.Routes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", "addr", config.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error", "err", err)
	}
	log.Info("stopped")
}
