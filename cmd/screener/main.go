package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketScreener/internal/api"
	"MarketScreener/internal/collector"
	"MarketScreener/internal/config"
	"MarketScreener/internal/notifier"
	"MarketScreener/internal/recorder"
	"MarketScreener/internal/scheduler"
	"MarketScreener/internal/screener"
	"MarketScreener/internal/strategy"
	"MarketScreener/internal/universe"

	"github.com/phuslu/log"
)

func main() {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	setupLogger(cfg)
	log.Info().Str("config", cfgPath).Msg("MarketScreener starting")

	// Market data
	source, err := newMarketData(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init market data")
	}
	limited := collector.NewRateLimited(source, cfg.DataSource.RateLimit, cfg.DataSource.Burst)
	log.Info().Str("source", source.Name()).Float64("rate", cfg.DataSource.RateLimit).Msg("market data ready")
	col := collector.NewCollector(limited, cfg.DataSource.LookbackDays)

	// Symbol universe
	u, err := newUniverse(cfg, source)
	if err != nil {
		log.Fatal().Err(err).Msg("init universe")
	}

	// Scoring and screening
	registry, err := strategy.NewRegistry(cfg.Scoring.Presets)
	if err != nil {
		log.Fatal().Err(err).Msg("init scoring presets")
	}
	scr, err := screener.NewScreener(col, registry, cfg.Screener.Concurrency)
	if err != nil {
		log.Fatal().Err(err).Msg("init screener")
	}
	analyzer, err := screener.NewAnalyzer(col, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("init analyzer")
	}
	preset, ok := screener.PresetByID(cfg.Screener.DefaultPreset)
	if !ok {
		log.Fatal().Str("preset", cfg.Screener.DefaultPreset).Msg("unknown default preset")
	}

	// Recorder
	rec, err := recorder.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Warn().Err(err).Msg("init recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	// Telegram notifier
	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduler
	sched := scheduler.NewScheduler(ctx, scr, analyzer, u, tn, rec, preset, cfg.Screener.TopN)
	if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Telegram polling
	if tn.Enabled() {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	} else {
		log.Info().Msg("telegram not configured, notifications disabled")
	}

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, screening now")
		go func() {
			run, err := sched.RunNow(ctx, preset)
			if err != nil {
				log.Error().Err(err).Msg("startup screen")
				return
			}
			log.Info().Str("run", run.ID).Int("matched", run.TotalCount).Msg("startup screen finished")
		}()
	}

	// HTTP API; blocks until shutdown
	srv := &api.Server{
		Screener:    scr,
		Analyzer:    analyzer,
		Universe:    u,
		Recorder:    rec,
		CORSOrigins: cfg.Server.CORSOrigins,
		MaxSymbols:  500,
		Timeout:     5 * time.Minute,
	}
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		log.Error().Err(err).Msg("api server")
	}
	log.Info().Msg("MarketScreener stopped")
}

func setupLogger(cfg *config.Config) {
	logger := log.Logger{
		Level:  log.ParseLevel(cfg.Log.Level),
		Caller: 1,
	}
	if cfg.Log.Format == "json" {
		logger.Writer = &log.IOWriter{Writer: os.Stderr}
	} else {
		logger.Writer = &log.ConsoleWriter{ColorOutput: true, EndWithMessage: true}
	}
	log.DefaultLogger = logger
}

func newMarketData(cfg *config.Config) (collector.MarketData, error) {
	ds := cfg.DataSource
	switch ds.Provider {
	case "yahoo":
		return collector.NewYahooProvider(cfg.Proxy), nil
	case "alpaca":
		return collector.NewAlpacaProvider(ds.APIKey, ds.APISecret, ds.BaseURL, ds.Feed), nil
	case "rest":
		return collector.NewRESTProvider(ds.BaseURL, ds.APIKey, cfg.Proxy), nil
	case "mock":
		return &collector.MockProvider{}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", ds.Provider)
	}
}

func newUniverse(cfg *config.Config, source collector.MarketData) (universe.Provider, error) {
	uc := cfg.Universe
	var providers []universe.Provider
	for _, name := range uc.Sources {
		switch name {
		case "static":
			providers = append(providers, &universe.Static{Symbols: uc.Symbols})
		case "sp500":
			providers = append(providers, universe.NewSP500())
		case "nasdaq":
			providers = append(providers, universe.NewNasdaq(!uc.ExcludeFunds))
		case "alpaca":
			lister, ok := source.(universe.AssetLister)
			if !ok {
				ds := cfg.DataSource
				if ds.APIKey == "" {
					return nil, fmt.Errorf("alpaca universe needs data_source api_key and api_secret")
				}
				lister = collector.NewAlpacaProvider(ds.APIKey, ds.APISecret, "", ds.Feed)
			}
			providers = append(providers, &universe.Brokerage{Lister: lister})
		default:
			return nil, fmt.Errorf("unknown universe source %q", name)
		}
	}

	var u universe.Provider = &universe.Combined{Providers: providers}
	if len(providers) == 1 {
		u = providers[0]
	}
	ttl, err := time.ParseDuration(uc.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("universe cache_ttl: %w", err)
	}
	if ttl > 0 {
		u = universe.NewCached(u, ttl)
	}
	return u, nil
}
