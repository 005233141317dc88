package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/assessment-cli/internal/assessment"
	"github.com/sells-group/assessment-cli/internal/catalog"
	"github.com/sells-group/assessment-cli/internal/config"
	"github.com/sells-group/assessment-cli/internal/contradiction"
	"github.com/sells-group/assessment-cli/internal/flow"
	"github.com/sells-group/assessment-cli/internal/model"
	"github.com/sells-group/assessment-cli/internal/registry"
	"github.com/sells-group/assessment-cli/internal/resilience"
	"github.com/sells-group/assessment-cli/internal/scoring"
	"github.com/sells-group/assessment-cli/internal/store"
	"github.com/sells-group/assessment-cli/pkg/notion"
)

// appEnv holds the store, catalog and service used by the serve and
// sessions commands.
type appEnv struct {
	Store   store.Store
	Catalog *catalog.Memory
	Service *assessment.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv validates config, opens and migrates the store, loads the
// catalog and builds the Service. Callers should defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	questions, err := loadCatalog(ctx)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	comps, err := buildComponents(cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	cat := catalog.New(questions)
	return &appEnv{
		Store:   st,
		Catalog: cat,
		Service: assessment.New(cat, st, comps),
	}, nil
}

// initStore opens the configured store. Postgres connects are retried on
// transient failures.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "assessment.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return resilience.DoVal(ctx, resilience.DefaultPolicy("store.connect"), func(ctx context.Context) (store.Store, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{MaxConns: cfg.Store.MaxConns})
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// refreshCatalog reloads cat from the configured source every interval
// until ctx is done. A failed reload keeps the current questions.
func refreshCatalog(ctx context.Context, cat *catalog.Memory, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := reloadCatalog(ctx, cat); err != nil {
				zap.L().Warn("catalog reload failed, keeping current questions", zap.Error(err))
			}
		}
	}
}

// reloadCatalog swaps cat's contents for a fresh load of the configured
// source.
func reloadCatalog(ctx context.Context, cat *catalog.Memory) error {
	questions, err := loadCatalog(ctx)
	if err != nil {
		return err
	}
	if len(questions) == 0 {
		return eris.New("reload catalog: source returned no questions")
	}
	cat.Replace(questions)
	zap.L().Info("catalog reloaded",
		zap.String("source", cfg.Catalog.Source),
		zap.Int("questions", len(questions)),
	)
	return nil
}

// loadCatalog reads the question catalog from the configured source.
func loadCatalog(ctx context.Context) ([]model.Question, error) {
	var client notion.Client
	if cfg.Catalog.Source == config.CatalogNotion {
		client = newNotionClient()
	}
	questions, err := registry.Load(ctx, cfg.Catalog, cfg.Notion, client)
	if err != nil {
		return nil, eris.Wrap(err, "load question catalog")
	}
	return questions, nil
}

func newNotionClient() notion.Client {
	var opts []notion.ClientOption
	if cfg.Notion.RateLimit > 0 {
		opts = append(opts, notion.WithRateLimit(cfg.Notion.RateLimit))
	}
	return notion.NewClient(cfg.Notion.Token, opts...)
}

// buildComponents builds the pipeline stages from config. Unset sections
// fall back to the built-in tables.
func buildComponents(c *config.Config) (assessment.Components, error) {
	comps := assessment.DefaultComponents()

	if c.Flow.RulesPath != "" {
		rules, err := flow.LoadRules(c.Flow.RulesPath)
		if err != nil {
			return comps, eris.Wrap(err, "load flow rules")
		}
		comps.Flow = flow.NewEngine(rules)
		zap.L().Info("flow rules loaded", zap.String("path", c.Flow.RulesPath))
	}

	if c.Contradiction.RulesPath != "" {
		rules, err := contradiction.LoadRules(c.Contradiction.RulesPath)
		if err != nil {
			return comps, eris.Wrap(err, "load contradiction rules")
		}
		comps.Detector = contradiction.NewDetector(rules)
		zap.L().Info("contradiction rules loaded",
			zap.String("path", c.Contradiction.RulesPath),
			zap.Int("rules", len(rules)),
		)
	}

	if len(c.Scoring.Weights) > 0 {
		if err := scoring.ValidateConfig(c.Scoring); err != nil {
			return comps, err
		}
		comps.Normalizer = scoring.NewNormalizer(c.Scoring)
	}

	return comps, nil
}
