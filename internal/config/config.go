// Package config provides configuration types and helpers for grasp.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Defaults for the clustering parameters.
const (
	// DefaultMaxDistance is the L1 distance threshold used when none is
	// configured. It is large relative to the distances between short lines
	// and tends to merge aggressively; treat it as a starting point.
	DefaultMaxDistance          = 2.1
	DefaultMaxSamplesPerCluster = 5

	// MinSamples is the neighbourhood size a line needs to seed a cluster.
	MinSamples = 3

	// Dimensions is the size of the hashed feature space.
	Dimensions = 1 << 24
)

// Config holds the application-wide configuration.
type Config struct {
	Format     string           `mapstructure:"format"`
	Color      string           `mapstructure:"color"`
	Debug      bool             `mapstructure:"debug"`
	Trace      bool             `mapstructure:"trace"`
	Clustering ClusteringConfig `mapstructure:"clustering"`
	Watch      WatchConfig      `mapstructure:"watch"`
	LLM        LLMConfig        `mapstructure:"llm"`
}

// ClusteringConfig holds the parameters consumed by the clustering engine.
type ClusteringConfig struct {
	MaxDistance          float64  `mapstructure:"max_distance"`
	MaxSamplesPerCluster int      `mapstructure:"max_samples_per_cluster"`
	MaxNoisySamples      int      `mapstructure:"max_noisy_samples"` // 0 means MaxSamplesPerCluster
	NGrams               []int    `mapstructure:"ngrams"`
	Normalize            bool     `mapstructure:"normalize"` // NFC-normalize lines before lower-casing
	Mask                 bool     `mapstructure:"mask"`
	MaskPatterns         []string `mapstructure:"mask_patterns"`
	Workers              int      `mapstructure:"workers"` // 0 means GOMAXPROCS
}

// WatchConfig controls re-running the pipeline when inputs change.
type WatchConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Debounce string `mapstructure:"debounce"` // e.g. "500ms"
}

// LLMConfig holds configuration for the explain command.
type LLMConfig struct {
	Temperature float32      `mapstructure:"temperature"`
	MaxTokens   int          `mapstructure:"max_tokens"`
	Ollama      OllamaConfig `mapstructure:"ollama"`
}

// OllamaConfig holds Ollama-specific settings.
type OllamaConfig struct {
	Host  string `mapstructure:"host"`  // API endpoint
	Model string `mapstructure:"model"` // Default model name
}

// ErrInvalidArgument is matched by every InvalidArgumentError.
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError reports a configuration value that cannot be used.
// It is detected before any input is read.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return e.Message
}

func (e *InvalidArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// SetDefaults registers default values on v. Values set explicitly, from a
// config file, from the environment or from bound flags take precedence.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("format", "pretty")
	v.SetDefault("color", "auto")
	v.SetDefault("debug", false)
	v.SetDefault("trace", false)
	v.SetDefault("clustering.max_distance", DefaultMaxDistance)
	v.SetDefault("clustering.max_samples_per_cluster", DefaultMaxSamplesPerCluster)
	v.SetDefault("clustering.max_noisy_samples", 0)
	v.SetDefault("clustering.ngrams", []int{})
	v.SetDefault("clustering.normalize", false)
	v.SetDefault("clustering.mask", false)
	v.SetDefault("clustering.mask_patterns", []string{})
	v.SetDefault("clustering.workers", 0)
	v.SetDefault("watch.enabled", false)
	v.SetDefault("watch.debounce", "500ms")
	v.SetDefault("llm.temperature", 0)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.ollama.host", "")
	v.SetDefault("llm.ollama.model", "llama3.2")
}

// Load decodes the configuration held by v, resolves derived values and
// validates it.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Clustering.Resolve()
	if err := cfg.Clustering.Validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Watch.DebounceDuration(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Resolve fills derived values. An unset noise cap follows the cluster cap.
func (c *ClusteringConfig) Resolve() {
	if c.MaxNoisySamples == 0 {
		c.MaxNoisySamples = c.MaxSamplesPerCluster
	}
}

// Validate checks the clustering parameters.
func (c *ClusteringConfig) Validate() error {
	if c.MaxDistance <= 0 {
		return &InvalidArgumentError{Message: fmt.Sprintf(
			"MAX_DISTANCE argument must be greater than 0, floating point numbers are allowed (e.g. '%v')",
			DefaultMaxDistance)}
	}
	if c.MaxSamplesPerCluster < 1 {
		return &InvalidArgumentError{Message: "MAX_SAMPLES_PER_CLUSTER argument must be an integer greater than 1"}
	}
	if c.MaxNoisySamples < 1 {
		return &InvalidArgumentError{Message: "MAX_NOISY_SAMPLES argument must be an integer greater than 1"}
	}
	for _, n := range c.NGrams {
		if n < 1 {
			return &InvalidArgumentError{Message: fmt.Sprintf("NGRAM sizes must be positive integers, got %d", n)}
		}
	}
	if c.Workers < 0 {
		return &InvalidArgumentError{Message: "WORKERS argument must not be negative"}
	}
	return nil
}

// DebounceDuration parses Debounce. An empty value means the 500ms default.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	if w.Debounce == "" {
		return 500 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 0, &InvalidArgumentError{Message: fmt.Sprintf(
			"DEBOUNCE argument must be a positive duration (e.g. '500ms'), got %q", w.Debounce)}
	}
	return d, nil
}
