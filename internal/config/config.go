// Package config provides configuration structures and loading for GoLake.
package config

import (
	"time"
)

// Config represents the complete application configuration.
type Config struct {
	Source     SourceConfig           `yaml:"source" mapstructure:"source"`
	Lake       LakeConfig             `yaml:"lake" mapstructure:"lake"`
	Watermarks WatermarkConfig        `yaml:"watermarks" mapstructure:"watermarks"`
	Tables     map[string]TableConfig `yaml:"tables" mapstructure:"tables"`
	Logging    LoggingConfig          `yaml:"logging" mapstructure:"logging"`
}

// SourceConfig represents the source database connection configuration.
type SourceConfig struct {
	Driver             string `yaml:"driver" mapstructure:"driver"` // mysql or postgres
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	Schema             string `yaml:"schema" mapstructure:"schema"` // postgres schema, defaults to public
	TLS                string `yaml:"tls" mapstructure:"tls"`       // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// LakeConfig represents the object-store data lake destination.
type LakeConfig struct {
	Bucket         string `yaml:"bucket" mapstructure:"bucket"`
	Region         string `yaml:"region" mapstructure:"region"`
	Prefix         string `yaml:"prefix" mapstructure:"prefix"`
	Endpoint       string `yaml:"endpoint" mapstructure:"endpoint"` // custom endpoint for S3-compatible stores
	AccessKey      string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey      string `yaml:"secret_key" mapstructure:"secret_key"`
	ForcePathStyle bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// WatermarkConfig represents where per-table watermarks are persisted.
type WatermarkConfig struct {
	Backend  string        `yaml:"backend" mapstructure:"backend"` // file or s3
	Dir      string        `yaml:"dir" mapstructure:"dir"`         // state directory for the file backend
	Lookback time.Duration `yaml:"lookback" mapstructure:"lookback"`
}

// TableConfig describes the change-tracking columns for one source table.
type TableConfig struct {
	PrimaryKey       string           `yaml:"primary_key" mapstructure:"primary_key"`
	TimestampColumns []string         `yaml:"timestamp_columns" mapstructure:"timestamp_columns"`
	PartitionColumn  string           `yaml:"partition_column" mapstructure:"partition_column"`
	Lookback         time.Duration    `yaml:"lookback,omitempty" mapstructure:"lookback"`
	Transform        *TransformConfig `yaml:"transform,omitempty" mapstructure:"transform"`
}

// TransformConfig holds optional derived-column settings for a table.
type TransformConfig struct {
	Segment       *SegmentConfig       `yaml:"segment,omitempty" mapstructure:"segment"`
	ValueCategory *ValueCategoryConfig `yaml:"value_category,omitempty" mapstructure:"value_category"`
}

// SegmentConfig buckets rows by the age in days of a timestamp column.
type SegmentConfig struct {
	SourceColumn string          `yaml:"source_column" mapstructure:"source_column"`
	TargetColumn string          `yaml:"target_column" mapstructure:"target_column"`
	AgeColumn    string          `yaml:"age_column" mapstructure:"age_column"` // optional raw age-in-days output
	Buckets      []SegmentBucket `yaml:"buckets" mapstructure:"buckets"`
	DefaultLabel string          `yaml:"default_label" mapstructure:"default_label"`
}

// SegmentBucket labels rows younger than MaxDays.
type SegmentBucket struct {
	MaxDays int    `yaml:"max_days" mapstructure:"max_days"`
	Label   string `yaml:"label" mapstructure:"label"`
}

// ValueCategoryConfig buckets rows by the product of two numeric columns.
type ValueCategoryConfig struct {
	QuantityColumn string        `yaml:"quantity_column" mapstructure:"quantity_column"`
	PriceColumn    string        `yaml:"price_column" mapstructure:"price_column"`
	ValueColumn    string        `yaml:"value_column" mapstructure:"value_column"` // optional raw value output
	TargetColumn   string        `yaml:"target_column" mapstructure:"target_column"`
	Buckets        []ValueBucket `yaml:"buckets" mapstructure:"buckets"`
	DefaultLabel   string        `yaml:"default_label" mapstructure:"default_label"`
}

// ValueBucket labels rows whose value is below Max.
type ValueBucket struct {
	Max   float64 `yaml:"max" mapstructure:"max"`
	Label string  `yaml:"label" mapstructure:"label"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultLookback bounds the first run's scan when no watermark exists.
const DefaultLookback = 30 * 24 * time.Hour

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			Driver:             "mysql",
			Port:               3306,
			Schema:             "public",
			TLS:                "preferred",
			MaxConnections:     10,
			MaxIdleConnections: 5,
		},
		Lake: LakeConfig{
			Region: "us-east-1",
		},
		Watermarks: WatermarkConfig{
			Backend:  "s3",
			Dir:      ".golake/watermarks",
			Lookback: DefaultLookback,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// EffectiveLookback returns the table-specific lookback window, falling back
// to the global watermark lookback when the table does not override it.
func (c *Config) EffectiveLookback(table string) time.Duration {
	if tc, ok := c.Tables[table]; ok && tc.Lookback > 0 {
		return tc.Lookback
	}
	if c.Watermarks.Lookback > 0 {
		return c.Watermarks.Lookback
	}
	return DefaultLookback
}
