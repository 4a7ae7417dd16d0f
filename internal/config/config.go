package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vertextoedge/plots-begone/internal/domain"
	"github.com/vertextoedge/plots-begone/internal/domain/vo"
)

// EnvPrefix prefixes every environment variable override, e.g. PLOTS_BEGONE_KEEPER_REQUIRED_DRIVES
const EnvPrefix = "PLOTS_BEGONE"

// Config represents the entire application configuration
type Config struct {
	Directories []string      `mapstructure:"directories"`
	Plots       PlotsConfig   `mapstructure:"plots"`
	Keeper      KeeperConfig  `mapstructure:"keeper"`
	HTTP        HTTPConfig    `mapstructure:"http"`
	Logging     LoggingConfig `mapstructure:"logging"`
	Journal     JournalConfig `mapstructure:"journal"`
}

// PlotsConfig describes which files are plots and which of them are old
type PlotsConfig struct {
	Extension      string  `mapstructure:"extension"`
	CutoffDate     string  `mapstructure:"cutoff_date"`
	NewPlotSizeGiB float64 `mapstructure:"new_plot_size_gib"`
}

// KeeperConfig contains index and reclaim settings
type KeeperConfig struct {
	RequiredDrives    int    `mapstructure:"required_drives"`
	RequireMount      bool   `mapstructure:"require_mount"`
	EventBuffer       int    `mapstructure:"event_buffer"`
	RecheckInterval   string `mapstructure:"recheck_interval"`
	StatusLogInterval string `mapstructure:"status_log_interval"`
	Seed              uint64 `mapstructure:"seed"`
	ScanConcurrency   int    `mapstructure:"scan_concurrency"`
}

// HTTPConfig contains status server configuration
type HTTPConfig struct {
	BindAddr     string `mapstructure:"bind_addr"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
	IdleTimeout  string `mapstructure:"idle_timeout"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// JournalConfig contains deletion journal settings
type JournalConfig struct {
	Path         string `mapstructure:"path"`
	HistoryLimit int    `mapstructure:"history_limit"`
}

// NewFlagSet returns the command line flags understood by Load
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "Path to a YAML configuration file")
	fs.StringSliceP("plot-directories", "d", nil, "Plot directories; a trailing /* expands to every subdirectory")
	fs.StringP("plot-extension", "e", ".plot", "Plot file extension")
	fs.StringP("plot-cutoff-date", "c", "", "Plots created before this date (YYYY-MM-DD or RFC3339) are old")
	fs.Float64P("new-plot-size", "s", 0, "Size of a new plot in GiB; 0 estimates it from existing new plots")
	fs.IntP("required-drives", "r", 0, "Number of directories kept ready for new plots")
	fs.Bool("require-mount", true, "Only accept plot directories that are mount points")
	fs.Uint64("seed", 0, "Seed for the random index selection; 0 picks one")
	fs.String("log-level", "info", "Log level (debug, info, warn, error)")
	fs.String("log-format", "text", "Log format (text, json)")
	fs.String("http-addr", "", "Status server address; empty disables it")
	fs.String("journal", "", "Path to the deletion journal database; empty disables it")
	return fs
}

var flagKeys = map[string]string{
	"plot-directories": "directories",
	"plot-extension":   "plots.extension",
	"plot-cutoff-date": "plots.cutoff_date",
	"new-plot-size":    "plots.new_plot_size_gib",
	"required-drives":  "keeper.required_drives",
	"require-mount":    "keeper.require_mount",
	"seed":             "keeper.seed",
	"log-level":        "logging.level",
	"log-format":       "logging.format",
	"http-addr":        "http.bind_addr",
	"journal":          "journal.path",
}

// Load parses args and builds the configuration. Sources are layered as
// flags over environment variables over the optional config file over defaults.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("plots-begone")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return LoadFlags(fs)
}

// LoadFlags builds the configuration from an already parsed flag set
func LoadFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flag, err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath, _ := fs.GetString("config"); configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("directories", []string{})
	v.SetDefault("plots.extension", ".plot")
	v.SetDefault("plots.cutoff_date", "")
	v.SetDefault("plots.new_plot_size_gib", 0)
	v.SetDefault("keeper.required_drives", 0)
	v.SetDefault("keeper.require_mount", true)
	v.SetDefault("keeper.event_buffer", 1024)
	v.SetDefault("keeper.recheck_interval", "0s")
	v.SetDefault("keeper.status_log_interval", "15m")
	v.SetDefault("keeper.seed", 0)
	v.SetDefault("keeper.scan_concurrency", 4)
	v.SetDefault("http.bind_addr", "")
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("journal.path", "")
	v.SetDefault("journal.history_limit", 50)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Directories) == 0 {
		return domain.NewConfigError("directories", domain.ErrNoDirectories)
	}

	if c.Plots.Extension == "" {
		return domain.NewConfigError("plots.extension", domain.ErrNoExtension)
	}
	if c.Plots.CutoffDate == "" {
		return domain.NewConfigError("plots.cutoff_date", domain.ErrNoCutoff)
	}
	if _, err := c.Plots.GetCutoff(); err != nil {
		return domain.NewConfigError("plots.cutoff_date", err)
	}
	if _, err := vo.FileSizeFromGiB(c.Plots.NewPlotSizeGiB); err != nil {
		return domain.NewConfigError("plots.new_plot_size_gib", err)
	}

	if c.Keeper.RequiredDrives <= 0 {
		return domain.NewConfigError("keeper.required_drives", domain.ErrInvalidReserve)
	}
	if c.Keeper.EventBuffer < 1 {
		return domain.NewConfigError("keeper.event_buffer", fmt.Errorf("%w: must be positive", domain.ErrInvalidInput))
	}
	if d, err := time.ParseDuration(c.Keeper.RecheckInterval); err != nil || d < 0 {
		return domain.NewConfigError("keeper.recheck_interval", fmt.Errorf("%w: %q", domain.ErrInvalidInput, c.Keeper.RecheckInterval))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid levels
	default:
		return domain.NewConfigError("logging.level", fmt.Errorf("%w: %s", domain.ErrInvalidInput, c.Logging.Level))
	}

	switch c.Logging.Format {
	case "json", "text":
		// Valid formats
	default:
		return domain.NewConfigError("logging.format", fmt.Errorf("%w: %s", domain.ErrInvalidInput, c.Logging.Format))
	}

	return nil
}

// GetCutoff parses the cutoff date. Bare dates are taken as midnight local time.
func (c *PlotsConfig) GetCutoff() (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", c.CutoffDate, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, c.CutoffDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cutoff date %q is neither YYYY-MM-DD nor RFC3339", domain.ErrInvalidInput, c.CutoffDate)
	}
	return t, nil
}

// GetNewPlotSize returns the configured new plot size in bytes, 0 when unset
func (c *PlotsConfig) GetNewPlotSize() int64 {
	size, err := vo.FileSizeFromGiB(c.NewPlotSizeGiB)
	if err != nil {
		return 0
	}
	return size.Bytes()
}

// GetRecheckInterval returns the recheck interval as time.Duration
func (c *KeeperConfig) GetRecheckInterval() time.Duration {
	d, _ := time.ParseDuration(c.RecheckInterval)
	return d
}

// GetStatusLogInterval returns the status log interval as time.Duration
func (c *KeeperConfig) GetStatusLogInterval() time.Duration {
	d, _ := time.ParseDuration(c.StatusLogInterval)
	if d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// GetReadTimeout returns the read timeout as time.Duration
func (c *HTTPConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ReadTimeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

// GetWriteTimeout returns the write timeout as time.Duration
func (c *HTTPConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(c.WriteTimeout)
	if d == 0 {
		return 10 * time.Second
	}
	return d
}

// GetIdleTimeout returns the idle timeout as time.Duration
func (c *HTTPConfig) GetIdleTimeout() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	if d == 0 {
		return 60 * time.Second
	}
	return d
}

// GetHistoryLimit returns how many journal rows the status server returns
func (c *JournalConfig) GetHistoryLimit() int {
	if c.HistoryLimit <= 0 {
		return 50
	}
	return c.HistoryLimit
}
