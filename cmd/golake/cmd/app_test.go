package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dbsmedya/golake/internal/config"
	"github.com/dbsmedya/golake/internal/sqlutil"
	"github.com/dbsmedya/golake/internal/watermark"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Source.Host = "localhost"
	cfg.Source.User = "etl"
	cfg.Source.Database = "analytics_db"
	cfg.Lake.Bucket = "analytics-lake"
	cfg.Tables = map[string]config.TableConfig{
		"customers": {
			PrimaryKey:       "customer_id",
			TimestampColumns: []string{"created_at", "updated_at"},
		},
		"orders": {
			PrimaryKey:       "order_id",
			TimestampColumns: []string{"updated_at"},
		},
	}
	return cfg
}

func TestDialectFor(t *testing.T) {
	cfg := testConfig()
	assert.Equal(t, sqlutil.DialectMySQL, dialectFor(cfg))

	cfg.Source.Driver = "postgres"
	assert.Equal(t, sqlutil.DialectPostgres, dialectFor(cfg))
}

func TestNewWatermarkStoreFile(t *testing.T) {
	cfg := testConfig()
	cfg.Watermarks.Backend = "file"
	cfg.Watermarks.Dir = t.TempDir()

	store, err := newWatermarkStore(cfg)
	assert.NoError(t, err)
	assert.IsType(t, &watermark.FileStore{}, store)
}

func TestNewWatermarkStoreUnsupported(t *testing.T) {
	cfg := testConfig()
	cfg.Watermarks.Backend = "redis"

	_, err := newWatermarkStore(cfg)
	assert.Error(t, err)
}

func TestResolveTables(t *testing.T) {
	cfg := testConfig()

	tables, err := resolveTables(cfg, "orders", false)
	assert.NoError(t, err)
	assert.Equal(t, []string{"orders"}, tables)

	tables, err = resolveTables(cfg, "", true)
	assert.NoError(t, err)
	assert.Equal(t, []string{"customers", "orders"}, tables)

	_, err = resolveTables(cfg, "", false)
	assert.Error(t, err, "one of --table or --all is required")

	_, err = resolveTables(cfg, "orders", true)
	assert.Error(t, err, "--table and --all are mutually exclusive")

	_, err = resolveTables(cfg, "unknown", false)
	assert.Error(t, err, "unknown table must be rejected")
}

func TestResolveTablesEmptyConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Tables = nil

	_, err := resolveTables(cfg, "", true)
	assert.Error(t, err)
}
