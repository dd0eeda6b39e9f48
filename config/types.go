package config

import (
	"time"

	"github.com/s0up4200/discoursectl/discourse"
)

// Config represents the complete configuration structure
type Config struct {
	Discourse DiscourseConfig `mapstructure:"discourse"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Update    UpdateConfig    `mapstructure:"update"`
}

// DiscourseConfig holds Discourse API connection details
type DiscourseConfig struct {
	URL               string        `mapstructure:"url"`
	ApplicationName   string        `mapstructure:"application_name"`
	APIKey            string        `mapstructure:"api_key"`
	APIUsername       string        `mapstructure:"api_username"`
	LogRequest        int           `mapstructure:"log_request"`
	LogResult         int           `mapstructure:"log_result"`
	DelayBetweenCalls time.Duration `mapstructure:"delay_between_calls"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// Settings converts the connection details into client settings.
func (c DiscourseConfig) Settings() discourse.Settings {
	return discourse.Settings{
		ServerURL:         c.URL,
		ApplicationName:   c.ApplicationName,
		APIKey:            c.APIKey,
		APIUsername:       c.APIUsername,
		LogRequest:        c.LogRequest,
		LogResult:         c.LogResult,
		DelayBetweenCalls: c.DelayBetweenCalls,
	}
}

// FilterConfig contains named filter expressions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// UpdateConfig contains self-update settings
type UpdateConfig struct {
	Repository string `mapstructure:"repository"`
}
