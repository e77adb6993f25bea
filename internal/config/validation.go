package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateSource()...)
	errors = append(errors, c.validateLake()...)
	errors = append(errors, c.validateWatermarks()...)

	if len(c.Tables) == 0 {
		errors = append(errors, ValidationError{
			Field:   "tables",
			Message: "at least one table must be defined",
		})
	}
	for name, tc := range c.Tables {
		errors = append(errors, c.validateTable(name, &tc)...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateSource() ValidationErrors {
	var errors ValidationErrors

	switch c.Source.Driver {
	case "mysql", "postgres":
	default:
		errors = append(errors, ValidationError{
			Field:   "source.driver",
			Message: "driver must be mysql or postgres",
		})
	}

	if c.Source.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "source.host",
			Message: "host is required",
		})
	}

	if c.Source.Port <= 0 || c.Source.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "source.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if c.Source.User == "" {
		errors = append(errors, ValidationError{
			Field:   "source.user",
			Message: "user is required",
		})
	}

	if c.Source.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "source.database",
			Message: "database name is required",
		})
	}

	switch c.Source.TLS {
	case "", "disable", "preferred", "required":
	default:
		errors = append(errors, ValidationError{
			Field:   "source.tls",
			Message: "tls must be disable, preferred, or required",
		})
	}

	return errors
}

func (c *Config) validateLake() ValidationErrors {
	var errors ValidationErrors

	if c.Lake.Bucket == "" {
		errors = append(errors, ValidationError{
			Field:   "lake.bucket",
			Message: "bucket is required",
		})
	}

	if c.Lake.Region == "" && c.Lake.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "lake.region",
			Message: "region is required unless a custom endpoint is set",
		})
	}

	return errors
}

func (c *Config) validateWatermarks() ValidationErrors {
	var errors ValidationErrors

	switch c.Watermarks.Backend {
	case "file", "s3":
	default:
		errors = append(errors, ValidationError{
			Field:   "watermarks.backend",
			Message: "backend must be file or s3",
		})
	}

	if c.Watermarks.Backend == "file" && c.Watermarks.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "watermarks.dir",
			Message: "dir is required for the file backend",
		})
	}

	if c.Watermarks.Lookback < 0 {
		errors = append(errors, ValidationError{
			Field:   "watermarks.lookback",
			Message: "lookback must not be negative",
		})
	}

	return errors
}

func (c *Config) validateTable(name string, tc *TableConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := "tables." + name

	if tc.PrimaryKey == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".primary_key",
			Message: "primary_key is required",
		})
	}

	if len(tc.TimestampColumns) == 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".timestamp_columns",
			Message: "at least one timestamp column is required",
		})
	}

	seen := make(map[string]bool)
	for _, col := range tc.TimestampColumns {
		if col == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".timestamp_columns",
				Message: "timestamp column names must not be empty",
			})
			continue
		}
		if seen[col] {
			errors = append(errors, ValidationError{
				Field:   prefix + ".timestamp_columns",
				Message: fmt.Sprintf("duplicate timestamp column %q", col),
			})
		}
		seen[col] = true
	}

	if tc.Lookback < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".lookback",
			Message: "lookback must not be negative",
		})
	}

	if tc.Transform != nil {
		errors = append(errors, c.validateTransform(prefix+".transform", tc.Transform)...)
	}

	return errors
}

func (c *Config) validateTransform(prefix string, tf *TransformConfig) ValidationErrors {
	var errors ValidationErrors

	if tf.Segment != nil {
		if tf.Segment.SourceColumn == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".segment.source_column",
				Message: "source_column is required",
			})
		}
		if tf.Segment.TargetColumn == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".segment.target_column",
				Message: "target_column is required",
			})
		}
		if len(tf.Segment.Buckets) == 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".segment.buckets",
				Message: "at least one bucket is required",
			})
		}
	}

	if tf.ValueCategory != nil {
		if tf.ValueCategory.QuantityColumn == "" || tf.ValueCategory.PriceColumn == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".value_category",
				Message: "quantity_column and price_column are required",
			})
		}
		if tf.ValueCategory.TargetColumn == "" {
			errors = append(errors, ValidationError{
				Field:   prefix + ".value_category.target_column",
				Message: "target_column is required",
			})
		}
		if len(tf.ValueCategory.Buckets) == 0 {
			errors = append(errors, ValidationError{
				Field:   prefix + ".value_category.buckets",
				Message: "at least one bucket is required",
			})
		}
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be debug, info, warn, or error",
		})
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be json or text",
		})
	}

	return errors
}
