package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/covariant-labs/guardian/internal/analyzer/concentration"
	"github.com/covariant-labs/guardian/internal/analyzer/correlation"
	"github.com/covariant-labs/guardian/internal/config"
	"github.com/covariant-labs/guardian/internal/coordinator"
	"github.com/covariant-labs/guardian/internal/data"
	"github.com/covariant-labs/guardian/internal/domain"
	"github.com/covariant-labs/guardian/internal/infrastructure/db"
	"github.com/covariant-labs/guardian/internal/knowledge"
	"github.com/covariant-labs/guardian/internal/metrics"
	"github.com/covariant-labs/guardian/internal/synthesis"
	"github.com/covariant-labs/guardian/internal/transport"
)

// engineDeps is the assembled analysis stack shared by serve and analyze.
type engineDeps struct {
	cfg         config.App
	coordinator *coordinator.Coordinator
	bus         *transport.Bus
	collector   *metrics.Collector
	dbManager   *db.Manager
}

// loadAppConfig reads the config file when given, defaults otherwise.
func loadAppConfig() (config.App, error) {
	if flagConfig == "" {
		return config.DefaultApp(), nil
	}
	return config.LoadApp(flagConfig)
}

// buildEngine wires the full stack: scenario records, knowledge store with
// fallback and optional cache, analyzers, synthesis engine, coordinator and
// bus registration. registerMetrics false skips Prometheus registration so
// one-shot CLI runs do not need a registry.
func buildEngine(ctx context.Context, cfg config.App, registerMetrics bool) (*engineDeps, error) {
	var collector *metrics.Collector
	if registerMetrics {
		collector = metrics.New(nil)
	}

	dbManager, err := db.NewManager(db.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		Enabled:         cfg.Database.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize scenario database: %w", err)
	}

	records, err := loadScenarioRecords(ctx, cfg, dbManager)
	if err != nil {
		return nil, err
	}

	store := buildKnowledgeStore(cfg, records, collector)

	corrAnalyzer := correlation.NewAnalyzer(cfg.Engine, store)
	concAnalyzer := concentration.NewAnalyzer(cfg.Engine, store)
	engine := synthesis.NewEngine(cfg.Engine, store)

	coord := coordinator.New(cfg.Engine, corrAnalyzer, concAnalyzer, engine, collector)

	bus := transport.NewBus()
	bus.Register(transport.TopicAnalyze, func(ctx context.Context, env transport.Envelope) (json.RawMessage, error) {
		var req coordinator.AnalyzeRequest
		if err := json.Unmarshal(env.Payload, &req); err != nil {
			return nil, fmt.Errorf("failed to decode analyze request: %w", err)
		}

		if collector != nil {
			collector.BeginAnalysis()
			defer collector.EndAnalysis()
		}

		report, err := coord.Analyze(ctx, req)
		if err != nil {
			return nil, err
		}
		if collector != nil {
			collector.RecordRiskLevel(string(report.Synthesis.OverallRiskLevel))
		}
		return json.Marshal(report)
	})

	return &engineDeps{
		cfg:         cfg,
		coordinator: coord,
		bus:         bus,
		collector:   collector,
		dbManager:   dbManager,
	}, nil
}

// loadScenarioRecords resolves the scenario source in priority order:
// database when enabled and populated, then the scenarios file, then the
// embedded dataset.
func loadScenarioRecords(ctx context.Context, cfg config.App, dbManager *db.Manager) ([]domain.ScenarioRecord, error) {
	if repos := dbManager.Repository(); repos != nil {
		records, err := repos.Scenarios.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenarios from database: %w", err)
		}
		if len(records) > 0 {
			log.Info().Int("scenarios", len(records)).Msg("loaded scenario records from database")
			return records, nil
		}
		log.Warn().Msg("scenario database is empty, falling back to file or embedded dataset")
	}

	if cfg.Data.Scenarios != "" {
		records, err := data.LoadScenarios(cfg.Data.Scenarios)
		if err != nil {
			return nil, err
		}
		log.Info().Int("scenarios", len(records)).Str("path", cfg.Data.Scenarios).Msg("loaded scenario records from file")
		return records, nil
	}

	return knowledge.DefaultScenarios(), nil
}

// buildKnowledgeStore layers the resilient primary/fallback pair and, when
// configured, the Redis read-through cache on top.
func buildKnowledgeStore(cfg config.App, records []domain.ScenarioRecord, collector *metrics.Collector) knowledge.Store {
	var primary, fallback knowledge.Store
	if cfg.Engine.Backend == config.BackendTable {
		primary = knowledge.NewTableStore(records)
		fallback = knowledge.NewGraphStore(records)
	} else {
		primary = knowledge.NewGraphStore(records)
		fallback = knowledge.NewTableStore(records)
	}

	resilient := knowledge.NewResilientStore(primary, fallback)
	if collector != nil {
		resilient.SetMetricsCallback(collector.KnowledgeEvent)
	}

	if !cfg.Redis.Enabled {
		return resilient
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	cached := knowledge.NewCachedStore(resilient, client)
	if collector != nil {
		cached.SetMetricsCallback(collector.KnowledgeEvent)
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("knowledge cache enabled")
	return cached
}
