package cmd

import (
	"fmt"

	"github.com/dbsmedya/golake/internal/config"
	"github.com/dbsmedya/golake/internal/database"
	"github.com/dbsmedya/golake/internal/extract"
	"github.com/dbsmedya/golake/internal/lake"
	"github.com/dbsmedya/golake/internal/logger"
	"github.com/dbsmedya/golake/internal/predicate"
	"github.com/dbsmedya/golake/internal/runner"
	"github.com/dbsmedya/golake/internal/sqlutil"
	"github.com/dbsmedya/golake/internal/transform"
	"github.com/dbsmedya/golake/internal/watermark"
)

// loadConfig loads the config file and applies CLI overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.WatermarkBackend, overrides.Lookback)

	return cfg, nil
}

// dialectFor maps the configured driver to the SQL dialect.
func dialectFor(cfg *config.Config) sqlutil.Dialect {
	if cfg.Source.Driver == "postgres" {
		return sqlutil.DialectPostgres
	}
	return sqlutil.DialectMySQL
}

// newWatermarkStore builds the configured watermark backend.
func newWatermarkStore(cfg *config.Config) (watermark.Store, error) {
	switch cfg.Watermarks.Backend {
	case "file":
		return watermark.NewFileStore(cfg.Watermarks.Dir), nil
	case "s3", "":
		api, err := lake.NewS3Client(&cfg.Lake)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 client for watermarks: %w", err)
		}
		return watermark.NewS3Store(api, cfg.Lake.Bucket), nil
	default:
		return nil, fmt.Errorf("unsupported watermark backend %q", cfg.Watermarks.Backend)
	}
}

// newObjectStore builds the lake object store.
func newObjectStore(cfg *config.Config) (lake.ObjectStore, error) {
	api, err := lake.NewS3Client(&cfg.Lake)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	return lake.NewS3ObjectStore(api, cfg.Lake.Bucket), nil
}

// newRunner wires the full incremental pipeline from configuration.
func newRunner(cfg *config.Config, dbManager *database.Manager, log *logger.Logger) (*runner.Runner, error) {
	store, err := newWatermarkStore(cfg)
	if err != nil {
		return nil, err
	}

	objectStore, err := newObjectStore(cfg)
	if err != nil {
		return nil, err
	}

	dialect := dialectFor(cfg)
	extractor := extract.NewSQLExtractor(dbManager.Source, dialect, cfg.Source.Schema)
	loader := lake.NewParquetLoader(objectStore, cfg.Lake.Prefix)

	descriptors := make(map[string]predicate.Descriptor, len(cfg.Tables))
	transforms := make(map[string]transform.Transformer, len(cfg.Tables))
	for name, tc := range cfg.Tables {
		descriptors[name] = predicate.Descriptor{
			Table:            name,
			PrimaryKey:       tc.PrimaryKey,
			TimestampColumns: tc.TimestampColumns,
			Lookback:         cfg.EffectiveLookback(name),
		}
		transforms[name] = transform.New(name, tc)
	}

	return runner.New(store, extractor, loader, dialect, descriptors, transforms, log)
}

// resolveTables expands the --table/--all flag pair into the table list.
func resolveTables(cfg *config.Config, table string, all bool) ([]string, error) {
	if table != "" && all {
		return nil, fmt.Errorf("--table and --all are mutually exclusive")
	}
	if table != "" {
		if _, err := cfg.GetTable(table); err != nil {
			return nil, err
		}
		return []string{table}, nil
	}
	if !all {
		return nil, fmt.Errorf("either --table or --all is required")
	}

	tables := cfg.ListTables()
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables defined in configuration")
	}
	return tables, nil
}
