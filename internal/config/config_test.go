package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReadsViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults(viper.GetViper())
	viper.Set("experiment_id", "42")
	viper.Set("tick_delay", "0s")

	cfg := New()
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, time.Duration(0), cfg.TickDelay)
	assert.Equal(t, DefaultOutDir, cfg.OutDir)
	assert.Equal(t, DefaultTrackingURI, cfg.TrackingURI)
	assert.Equal(t, "42", cfg.ExperimentID)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := Config{Addr: ":8501", TickDelay: time.Millisecond, LogLevel: "debug"}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.TickDelay = -time.Second }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTracking(t *testing.T) {
	cfg := Config{TrackingURI: "http://localhost:5000"}
	assert.ErrorIs(t, cfg.ValidateTracking(), ErrTrackingNotConfigured)

	cfg.ExperimentID = "1"
	assert.NoError(t, cfg.ValidateTracking())

	cfg.TrackingURI = ""
	assert.ErrorIs(t, cfg.ValidateTracking(), ErrTrackingNotConfigured)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, (&Config{LogLevel: "debug"}).Level())
	assert.Equal(t, logrus.InfoLevel, (&Config{LogLevel: "nonsense"}).Level())
}

func TestIsDatabricks(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"databricks", true},
		{"databricks://dev", true},
		{"https://adb-123.4.azuredatabricks.net", true},
		{"https://dbc-1.cloud.databricks.com/ml", true},
		{"https://mlflow.example.com", false},
		{"http://localhost:5000", false},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, (&Config{TrackingURI: tt.uri}).IsDatabricks())
		})
	}
}

func TestDatabricksProfile(t *testing.T) {
	assert.Equal(t, "dev", (&Config{TrackingURI: "databricks://dev/extra"}).DatabricksProfile())
	assert.Equal(t, "", (&Config{TrackingURI: "databricks"}).DatabricksProfile())
}
