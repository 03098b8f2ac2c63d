package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Databricks domain suffixes for URL detection
var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

const (
	DefaultAddr        = ":8501"
	DefaultTickDelay   = 50 * time.Millisecond
	DefaultOutDir      = "."
	DefaultLogLevel    = "info"
	DefaultTrackingURI = "http://localhost:5000"
)

var ErrTrackingNotConfigured = errors.New("experiment tracking is not configured")

type Config struct {
	Addr      string
	TickDelay time.Duration
	OutDir    string
	LogLevel  string

	TrackingURI     string
	ExperimentID    string
	DatabricksHost  string
	DatabricksToken string
}

func New() *Config {
	return &Config{
		Addr:            viper.GetString("addr"),
		TickDelay:       viper.GetDuration("tick_delay"),
		OutDir:          viper.GetString("out_dir"),
		LogLevel:        viper.GetString("log_level"),
		TrackingURI:     viper.GetString("tracking_uri"),
		ExperimentID:    viper.GetString("experiment_id"),
		DatabricksHost:  viper.GetString("databricks_host"),
		DatabricksToken: viper.GetString("databricks_token"),
	}
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("tick_delay", DefaultTickDelay)
	v.SetDefault("out_dir", DefaultOutDir)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("tracking_uri", DefaultTrackingURI)
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.TickDelay < 0 {
		return fmt.Errorf("invalid tick delay: %s (must not be negative)", c.TickDelay)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

// ValidateTracking checks the settings needed to publish to MLflow.
func (c *Config) ValidateTracking() error {
	if c.TrackingURI == "" {
		return fmt.Errorf("%w: tracking URI is required", ErrTrackingNotConfigured)
	}
	if c.ExperimentID == "" {
		return fmt.Errorf("%w: experiment ID is required", ErrTrackingNotConfigured)
	}
	return nil
}

// Level returns the configured logrus level, falling back to info.
func (c *Config) Level() logrus.Level {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// IsDatabricks checks if the tracking URI points to Databricks
func (c *Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" {
		return true
	}

	if strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}

	if strings.HasPrefix(c.TrackingURI, "https://") {
		return isDatabricksHost(hostOf(c.TrackingURI))
	}

	return false
}

func hostOf(url string) string {
	host := strings.TrimPrefix(url, "https://")
	if idx := strings.Index(host, "/"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func isDatabricksHost(host string) bool {
	for _, domain := range databricksDomains {
		if strings.HasSuffix(host, domain) {
			return true
		}
	}
	return false
}

// DatabricksProfile extracts the profile name from a databricks://{profile} URI.
func (c *Config) DatabricksProfile() string {
	if !strings.HasPrefix(c.TrackingURI, "databricks://") {
		return ""
	}

	profile := strings.TrimPrefix(c.TrackingURI, "databricks://")
	if idx := strings.Index(profile, "/"); idx != -1 {
		profile = profile[:idx]
	}
	return profile
}
