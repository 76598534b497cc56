package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Compare CompareConfig `mapstructure:"compare"`
	Indexer IndexerConfig `mapstructure:"indexer"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type CompareConfig struct {
	Source          string `mapstructure:"source"`
	Encode          string `mapstructure:"encode"`
	Frames          string `mapstructure:"frames"`           // explicit list, e.g. 101:104:900
	ComparisonCount int    `mapstructure:"comparison_count"` // default 20
	ReSync          string `mapstructure:"re_sync"`          // -?digits
	Seed            uint64 `mapstructure:"seed"`             // 0 picks a random seed
}

type IndexerConfig struct {
	Backend     string `mapstructure:"backend"`   // lsmash or ffms2
	IndexDir    string `mapstructure:"index_dir"` // where caller cache paths are placed
	SourceCache string `mapstructure:"source_cache"`
	EncodeCache string `mapstructure:"encode_cache"`
}

type ProbeConfig struct {
	FFprobePath string        `mapstructure:"ffprobe_path"`
	Timeout     time.Duration `mapstructure:"timeout"` // per scan, 0 disables
}

type OutputConfig struct {
	Format string `mapstructure:"format"` // json, yaml or table
	Path   string `mapstructure:"path"`   // empty or "-" for stdout
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`   // json or text
	Output     string `mapstructure:"output"`   // stdout, stderr, or file path
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // node_exporter textfile collector target, empty disables
}

// Load reads configuration from an optional YAML file, FRAMEFORGE_* environment
// variables and command line flags, in increasing order of precedence.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Environment variable override
	v.SetEnvPrefix("FRAMEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"source":           "compare.source",
	"encode":           "compare.encode",
	"frames":           "compare.frames",
	"comparison-count": "compare.comparison_count",
	"re-sync":          "compare.re_sync",
	"seed":             "compare.seed",
	"indexer":          "indexer.backend",
	"index-dir":        "indexer.index_dir",
	"source-cache":     "indexer.source_cache",
	"encode-cache":     "indexer.encode_cache",
	"ffprobe":          "probe.ffprobe_path",
	"format":           "output.format",
	"output":           "output.path",
	"log-level":        "logging.level",
	"metrics-textfile": "metrics.textfile",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("flag %s: %w", name, err)
		}
	}
	return nil
}

// RegisterFlags declares the command line flags understood by Load.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("source", "", "Path to source file")
	flags.String("encode", "", "Path to encode file")
	flags.String("frames", "", "Explicit encode frames to compare (e.g. 101:104), disables sync frames")
	flags.Int("comparison-count", 20, "Amount of comparisons to generate")
	flags.String("re-sync", "", "Sync offset for the source in frames (e.g. --re-sync=-3)")
	flags.Uint64("seed", 0, "Seed for sync anchor selection (0 = random)")
	flags.String("indexer", "lsmash", "Indexer choice (lsmash or ffms2)")
	flags.String("index-dir", "", "Directory to look for/create encode indexes")
	flags.String("source-cache", "", "Explicit source index cache path")
	flags.String("encode-cache", "", "Explicit encode index cache path")
	flags.String("ffprobe", "", "Path to the ffprobe binary (default: search PATH)")
	flags.String("format", "table", "Plan output format (json, yaml or table)")
	flags.String("output", "", "Plan output path (default stdout)")
	flags.String("log-level", "info", "Log level")
	flags.String("metrics-textfile", "", "Write prometheus metrics to this file on exit")
}

func setDefaults(v *viper.Viper) {
	// Compare defaults
	v.SetDefault("compare.comparison_count", 20)
	v.SetDefault("compare.seed", 0)

	// Indexer defaults
	v.SetDefault("indexer.backend", "lsmash")

	// Probe defaults
	v.SetDefault("probe.ffprobe_path", "")
	v.SetDefault("probe.timeout", "0s")

	// Output defaults
	v.SetDefault("output.format", "table")
	v.SetDefault("output.path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.max_size", 100)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)

	// Metrics defaults
	v.SetDefault("metrics.textfile", "")
}
