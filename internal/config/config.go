package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/mrzor/nblog/internal/analysis"
	"go.uber.org/zap/zapcore"
)

// Config holds the settings shared by every nblog command. Values come
// from NBLOG_* environment variables; command-line flags override them.
type Config struct {
	// BufferSize is the capacity of a writer's timeline, rounded up to a
	// power of two.
	BufferSize int `env:"NBLOG_BUFFER_SIZE" envDefault:"65536"`
	// MergedBufferSize is the capacity of the merged timeline.
	MergedBufferSize int `env:"NBLOG_MERGED_BUFFER_SIZE" envDefault:"262144"`
	// SleepPeriod is the time between merge passes while awake.
	SleepPeriod time.Duration `env:"NBLOG_MERGE_SLEEP" envDefault:"1s"`
	// WakeupWindow is how long a wakeup keeps the merge thread running.
	WakeupWindow time.Duration `env:"NBLOG_MERGE_WAKEUP" envDefault:"3s"`
	// ShmDir is where named regions are created. Empty selects /dev/shm
	// when available.
	ShmDir string `env:"NBLOG_SHM_DIR"`
	// ReportHeight is the bar chart height of performance reports.
	ReportHeight int `env:"NBLOG_REPORT_HEIGHT" envDefault:"10"`
	// LogLevel is the zap level name.
	LogLevel string `env:"NBLOG_LOG_LEVEL" envDefault:"info"`
	// MetricsAddr serves /metrics when set.
	MetricsAddr string `env:"NBLOG_METRICS_ADDR"`
	// TraceID and ParentID are expressions selecting the trace merge spans
	// join.
	TraceID  string `env:"NBLOG_TRACE_ID"`
	ParentID string `env:"NBLOG_PARENT_ID"`
	// Attributes holds custom span attributes as "NAME=EXPR;NAME=EXPR".
	Attributes string `env:"NBLOG_ATTRIBUTES"`

	Analysis Analysis `envPrefix:"NBLOG_ANALYSIS_"`
}

// Analysis mirrors analysis.Config with environment bindings.
type Analysis struct {
	PeriodMs         int           `env:"PERIOD_MS" envDefault:"4"`
	OutlierMs        int           `env:"OUTLIER_MS" envDefault:"7"`
	SeriesSize       int           `env:"SERIES_SIZE" envDefault:"50"`
	RecentCapacity   int           `env:"RECENT_CAPACITY" envDefault:"20"`
	LongTermCapacity int           `env:"LONG_TERM_CAPACITY" envDefault:"20"`
	MaxHistTimespan  time.Duration `env:"MAX_HIST_TIMESPAN" envDefault:"5s"`
	OutlierCapacity  int           `env:"OUTLIER_CAPACITY" envDefault:"100"`
	PeakCapacity     int           `env:"PEAK_CAPACITY" envDefault:"100"`
	StddevThreshold  float64       `env:"STDDEV_THRESHOLD" envDefault:"5"`
}

// AnalysisConfig converts to the analysis package's configuration.
func (a Analysis) AnalysisConfig() analysis.Config {
	return analysis.Config{
		PeriodMs:         a.PeriodMs,
		OutlierMs:        a.OutlierMs,
		SeriesSize:       a.SeriesSize,
		RecentCapacity:   a.RecentCapacity,
		LongTermCapacity: a.LongTermCapacity,
		MaxHistTimespan:  a.MaxHistTimespan,
		OutlierCapacity:  a.OutlierCapacity,
		PeakCapacity:     a.PeakCapacity,
		StddevThreshold:  a.StddevThreshold,
	}
}

// CustomAttribute is a span attribute computed by an expression.
type CustomAttribute struct {
	Name       string
	Expression string
}

// Load parses Config from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer size must be positive, got %d", c.BufferSize)
	}
	if c.MergedBufferSize <= 0 {
		return fmt.Errorf("merged buffer size must be positive, got %d", c.MergedBufferSize)
	}
	if c.SleepPeriod <= 0 {
		return fmt.Errorf("merge sleep period must be positive, got %s", c.SleepPeriod)
	}
	if c.WakeupWindow < 0 {
		return fmt.Errorf("merge wakeup window cannot be negative, got %s", c.WakeupWindow)
	}
	if _, err := c.ZapLevel(); err != nil {
		return err
	}
	if _, err := ParseAttributeString(c.Attributes); err != nil {
		return err
	}
	return nil
}

// ZapLevel parses LogLevel.
func (c *Config) ZapLevel() (zapcore.Level, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// CustomAttributes returns the attributes from the environment followed by
// those given on the command line.
func (c *Config) CustomAttributes(cli []string) ([]CustomAttribute, error) {
	fromEnv, err := ParseAttributeString(c.Attributes)
	if err != nil {
		return nil, err
	}
	fromCLI, err := ParseAttributes(cli)
	if err != nil {
		return nil, err
	}
	return append(fromEnv, fromCLI...), nil
}

// ParseAttributes parses NAME=EXPR pairs.
func ParseAttributes(pairs []string) ([]CustomAttribute, error) {
	var attrs []CustomAttribute
	for _, pair := range pairs {
		attr, err := parseAttribute(pair)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// ParseAttributeString parses semicolon-separated NAME=EXPR pairs. Empty
// sections are ignored.
func ParseAttributeString(s string) ([]CustomAttribute, error) {
	var pairs []string
	for _, section := range strings.Split(s, ";") {
		if strings.TrimSpace(section) != "" {
			pairs = append(pairs, section)
		}
	}
	return ParseAttributes(pairs)
}

func parseAttribute(pair string) (CustomAttribute, error) {
	name, expression, ok := strings.Cut(pair, "=")
	if !ok {
		return CustomAttribute{}, fmt.Errorf("invalid attribute format %q, expected NAME=EXPR", pair)
	}
	name = strings.TrimSpace(name)
	expression = strings.TrimSpace(expression)
	if name == "" {
		return CustomAttribute{}, fmt.Errorf("invalid attribute %q: name cannot be empty", pair)
	}
	if expression == "" {
		return CustomAttribute{}, fmt.Errorf("invalid attribute %q: expression cannot be empty", pair)
	}
	return CustomAttribute{Name: name, Expression: expression}, nil
}
