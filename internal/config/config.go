// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Source types understood by the collector.
const (
	SourceTypeAPI      = "api"
	SourceTypeSnapshot = "snapshot"
)

// Config holds the entire application configuration. Each pipeline phase
// takes only the section it needs, so the renderer never sees network
// settings.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Source  SourceConfig  `mapstructure:"source" yaml:"source"`
	Report  ReportConfig  `mapstructure:"report" yaml:"report"`
	Webhook WebhookConfig `mapstructure:"webhook" yaml:"webhook"`
	Email   EmailConfig   `mapstructure:"email" yaml:"email"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig names the console color of each level. Levels above error
// use the error color.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
}

// SourceConfig describes how to reach the update-management server.
type SourceConfig struct {
	Type               string        `mapstructure:"type" yaml:"type"`
	Server             string        `mapstructure:"server" yaml:"server"`
	Port               int           `mapstructure:"port" yaml:"port"`
	UseTLS             bool          `mapstructure:"use_tls" yaml:"use_tls"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Token              string        `mapstructure:"token" yaml:"-"`
	SnapshotFile       string        `mapstructure:"snapshot_file" yaml:"snapshot_file"`
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Concurrency bounds parallel state fetches. 1 keeps collection sequential.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
	// RequestsPerSecond paces state fetches. 0 disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
}

// BaseURL returns the scheme://host:port root of the admin API.
func (s SourceConfig) BaseURL() string {
	scheme := "http"
	if s.UseTLS {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, s.Server, s.Port)
}

// ReportConfig holds settings for rendering and writing the report files.
type ReportConfig struct {
	Group       string `mapstructure:"group" yaml:"group"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	Prefix      string `mapstructure:"prefix" yaml:"prefix"`
	ActiveDays  int    `mapstructure:"active_days" yaml:"active_days"`
	TopMachines int    `mapstructure:"top_machines" yaml:"top_machines"`
	Preview     bool   `mapstructure:"preview" yaml:"preview"`
}

// ActivityWindow converts ActiveDays into a duration. Zero disables filtering.
func (r ReportConfig) ActivityWindow() time.Duration {
	if r.ActiveDays <= 0 {
		return 0
	}
	return time.Duration(r.ActiveDays) * 24 * time.Hour
}

// ScopeLabel is the human readable scope printed in the report.
func (r ReportConfig) ScopeLabel() string {
	if r.Group == "" {
		return "All Computers"
	}
	return r.Group
}

// WebhookConfig configures the chat notification.
type WebhookConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// EmailConfig configures the email notification.
type EmailConfig struct {
	From     string `mapstructure:"from" yaml:"from"`
	To       string `mapstructure:"to" yaml:"to"`
	Subject  string `mapstructure:"subject" yaml:"subject"`
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"-"`
}

// Recipients splits the comma separated To list, trimming whitespace and
// dropping empty entries.
func (e EmailConfig) Recipients() []string {
	var out []string
	for _, r := range strings.Split(e.To, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "patchreport")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Source --
	v.SetDefault("source.type", SourceTypeAPI)
	v.SetDefault("source.server", "localhost")
	v.SetDefault("source.port", 8530)
	v.SetDefault("source.use_tls", false)
	v.SetDefault("source.insecure_skip_verify", false)
	v.SetDefault("source.timeout", "30s")
	v.SetDefault("source.concurrency", 1)
	v.SetDefault("source.requests_per_second", 0.0)

	// -- Report --
	v.SetDefault("report.group", "")
	v.SetDefault("report.output_dir", "reports")
	v.SetDefault("report.prefix", "PatchCompliance")
	v.SetDefault("report.active_days", 0)
	v.SetDefault("report.top_machines", 50)
	v.SetDefault("report.preview", false)

	// -- Delivery --
	v.SetDefault("webhook.timeout", "15s")
	v.SetDefault("email.subject", "Update Compliance Report")
	v.SetDefault("email.port", 25)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("source.token", "PATCHREPORT_SOURCE_TOKEN")
	_ = v.BindEnv("email.password", "PATCHREPORT_EMAIL_PASSWORD")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading ~ in every path-valued setting.
func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.Report.OutputDir, &c.Source.SnapshotFile, &c.Logger.LogFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source configuration invalid: %w", err)
	}
	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("report configuration invalid: %w", err)
	}
	if c.Email.Port < 0 || c.Email.Port > 65535 {
		return errors.New("email.port must be between 0 and 65535")
	}
	return nil
}

// Validate checks the SourceConfig settings.
func (s *SourceConfig) Validate() error {
	switch s.Type {
	case SourceTypeAPI:
		if s.Server == "" {
			return errors.New("source.server is required for the api source")
		}
		if s.Port <= 0 || s.Port > 65535 {
			return errors.New("source.port must be between 1 and 65535")
		}
	case SourceTypeSnapshot:
		if s.SnapshotFile == "" {
			return errors.New("source.snapshot_file is required for the snapshot source")
		}
	default:
		return fmt.Errorf("unsupported source.type: %q", s.Type)
	}
	if s.Concurrency <= 0 {
		return errors.New("source.concurrency must be a positive integer")
	}
	if s.RequestsPerSecond < 0 {
		return errors.New("source.requests_per_second must not be negative")
	}
	return nil
}

// Validate checks the ReportConfig settings.
func (r *ReportConfig) Validate() error {
	if r.OutputDir == "" {
		return errors.New("report.output_dir is required")
	}
	if r.Prefix == "" {
		return errors.New("report.prefix is required")
	}
	if strings.ContainsAny(r.Prefix, `/\`) {
		return errors.New("report.prefix must not contain path separators")
	}
	if r.ActiveDays < 0 {
		return errors.New("report.active_days must not be negative")
	}
	if r.TopMachines <= 0 {
		return errors.New("report.top_machines must be a positive integer")
	}
	return nil
}
