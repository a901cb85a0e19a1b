// Package config loads server and CLI settings from defaults, an optional YAML
// file and DEX_* environment variables, then validates them against an
// embedded JSON schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/spf13/viper"

	"github.com/krakend/dex-mcp-server/internal/dataset"
	"github.com/krakend/dex-mcp-server/internal/rangeindex"
)

const schemaURL = "https://krakend.io/schema/dex-mcp-server/config.json"

//go:embed schema.json
var schemaJSON []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every setting.
type Config struct {
	Dataset    DatasetConfig `mapstructure:"dataset" json:"dataset" yaml:"dataset"`
	Attributes []string      `mapstructure:"attributes" json:"attributes" yaml:"attributes"`
	Buckets    BucketsConfig `mapstructure:"buckets" json:"buckets" yaml:"buckets"`
	Bounds     BoundsConfig  `mapstructure:"bounds" json:"bounds" yaml:"bounds"`
	Catalog    CatalogConfig `mapstructure:"catalog" json:"catalog" yaml:"catalog"`
	Log        LogConfig     `mapstructure:"log" json:"log" yaml:"log"`
}

// DatasetConfig points at a CSV on disk. Empty means the embedded dataset.
type DatasetConfig struct {
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

// BucketsConfig holds the percentiles splitting low/medium/high.
type BucketsConfig struct {
	LowPercentile  float64 `mapstructure:"low_percentile" json:"low_percentile" yaml:"low_percentile"`
	HighPercentile float64 `mapstructure:"high_percentile" json:"high_percentile" yaml:"high_percentile"`
}

// BoundsConfig holds the values open bucket ends resolve to.
type BoundsConfig struct {
	Min float64 `mapstructure:"min" json:"min" yaml:"min"`
	Max float64 `mapstructure:"max" json:"max" yaml:"max"`
}

// CatalogConfig controls the full-text catalog. An empty IndexPath builds the
// catalog in memory.
type CatalogConfig struct {
	IndexPath string `mapstructure:"index_path" json:"index_path" yaml:"index_path"`
	BatchSize int    `mapstructure:"batch_size" json:"batch_size" yaml:"batch_size"`
}

// LogConfig sets the minimum log level.
type LogConfig struct {
	Level string `mapstructure:"level" json:"level" yaml:"level"`
}

// RangeBounds converts Bounds for the range index.
func (c *Config) RangeBounds() rangeindex.Bounds {
	return rangeindex.Bounds{Min: c.Bounds.Min, Max: c.Bounds.Max}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Attributes: append([]string(nil), dataset.Attributes...),
		Buckets:    BucketsConfig{LowPercentile: 25, HighPercentile: 75},
		Bounds:     BoundsConfig{Min: rangeindex.DefaultBounds.Min, Max: rangeindex.DefaultBounds.Max},
		Catalog:    CatalogConfig{BatchSize: 100},
		Log:        LogConfig{Level: "info"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dataset.path", d.Dataset.Path)
	v.SetDefault("attributes", d.Attributes)
	v.SetDefault("buckets.low_percentile", d.Buckets.LowPercentile)
	v.SetDefault("buckets.high_percentile", d.Buckets.HighPercentile)
	v.SetDefault("bounds.min", d.Bounds.Min)
	v.SetDefault("bounds.max", d.Bounds.Max)
	v.SetDefault("catalog.index_path", d.Catalog.IndexPath)
	v.SetDefault("catalog.batch_size", d.Catalog.BatchSize)
	v.SetDefault("log.level", d.Log.Level)
}

// Load reads configuration. With an empty path it looks for dex.yaml in the
// working directory and in $HOME/.dex-mcp, and carries on with defaults when
// neither exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("DEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dex")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dex-mcp")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against the embedded schema and the
// cross-field rules the schema cannot express.
func (c *Config) Validate() error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalid, describe(verr))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if c.Buckets.LowPercentile >= c.Buckets.HighPercentile {
		return fmt.Errorf("%w: buckets.low_percentile (%v) must be below buckets.high_percentile (%v)",
			ErrInvalid, c.Buckets.LowPercentile, c.Buckets.HighPercentile)
	}
	if c.Bounds.Min >= c.Bounds.Max {
		return fmt.Errorf("%w: bounds.min (%v) must be below bounds.max (%v)", ErrInvalid, c.Bounds.Min, c.Bounds.Max)
	}
	return nil
}

func compileSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add config schema: %w", err)
	}
	schema, err := compiler.Compile(schemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile config schema: %w", err)
	}
	return schema, nil
}

// describe flattens the deepest causes of a validation error into
// "$.path: message" pairs.
func describe(verr *jsonschema.ValidationError) string {
	var parts []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			path := "$"
			if len(e.InstanceLocation) > 0 {
				path = "$." + strings.Join(e.InstanceLocation, ".")
			}
			parts = append(parts, fmt.Sprintf("%s: %s", path, strings.TrimSpace(e.Error())))
			return
		}
		for _, cause := range e.Causes {
			walk(cause)
		}
	}
	walk(verr)
	return strings.Join(parts, "; ")
}
