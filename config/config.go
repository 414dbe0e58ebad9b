/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT                  = "5003"
	DEFAULT_FIELD_CACHE_TTL       = 300
	DEFAULT_PLATFORM_TIMEOUT      = 10
	DEFAULT_PLATFORM_MAX_RETRIES  = 3
	DEFAULT_CONFIG_FILE           = "./tagrecon.json"
	DEFAULT_RATE_LIMIT_CLEANUP    = 10800
	DEFAULT_TELEMETRY_SERVICE     = "tagrecon"
	DEFAULT_MATCH_SUGGESTION_SIZE = 5
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"TAGRECON_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"TAGRECON_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"TAGRECON_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"TAGRECON_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"TAGRECON_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"TAGRECON_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"TAGRECON_DATA_SOURCE_DNS"`
}

// RedisConfig is optional. Without a DNS the field definition cache stays in process.
type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"TAGRECON_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"TAGRECON_REDIS_SKIP_TLS_VERIFY"`
}

type PlatformConfig struct {
	BaseURL        string `json:"base_url" envconfig:"TAGRECON_PLATFORM_BASE_URL"`
	TimeoutSeconds int    `json:"timeout_seconds" envconfig:"TAGRECON_PLATFORM_TIMEOUT_SECONDS"`
	MaxRetries     int    `json:"max_retries" envconfig:"TAGRECON_PLATFORM_MAX_RETRIES"`
}

type CacheConfig struct {
	FieldDefinitionTTLSeconds int `json:"field_definition_ttl_seconds" envconfig:"TAGRECON_CACHE_FIELD_DEFINITION_TTL_SECONDS"`
}

// SyncConfig holds the option switches applied when a sync request leaves them out.
type SyncConfig struct {
	UpdateNames      *bool `json:"update_names" envconfig:"TAGRECON_SYNC_UPDATE_NAMES"`
	DisableDeleted   *bool `json:"disable_deleted" envconfig:"TAGRECON_SYNC_DISABLE_DELETED"`
	HandleDuplicates *bool `json:"handle_duplicates" envconfig:"TAGRECON_SYNC_HANDLE_DUPLICATES"`
}

type MatcherConfig struct {
	Delimiter       string `json:"delimiter" envconfig:"TAGRECON_MATCHER_DELIMITER"`
	SuggestionLimit int    `json:"suggestion_limit" envconfig:"TAGRECON_MATCHER_SUGGESTION_LIMIT"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"TAGRECON_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"TAGRECON_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"TAGRECON_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type TelemetryConfig struct {
	Enable      bool   `json:"enable" envconfig:"TAGRECON_TELEMETRY_ENABLE"`
	ServiceName string `json:"service_name" envconfig:"TAGRECON_TELEMETRY_SERVICE_NAME"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"TAGRECON_SLACK_WEBHOOK_URL"`
}

type WebhookConfig struct {
	Url     string            `json:"url" envconfig:"TAGRECON_WEBHOOK_URL"`
	Headers map[string]string `json:"headers"`
}

type Notification struct {
	Slack   SlackWebhook  `json:"slack"`
	Webhook WebhookConfig `json:"webhook"`
}

type Configuration struct {
	ProjectName  string           `json:"project_name" envconfig:"TAGRECON_PROJECT_NAME"`
	Server       ServerConfig     `json:"server"`
	DataSource   DataSourceConfig `json:"data_source"`
	Redis        RedisConfig      `json:"redis"`
	Platform     PlatformConfig   `json:"platform"`
	Cache        CacheConfig      `json:"cache"`
	Sync         SyncConfig       `json:"sync"`
	Matcher      MatcherConfig    `json:"matcher"`
	RateLimit    RateLimitConfig  `json:"rate_limit"`
	Telemetry    TelemetryConfig  `json:"telemetry"`
	Notification Notification     `json:"notification"`
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}

	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("tagrecon", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	if configFile == "" {
		configFile = DEFAULT_CONFIG_FILE
	}
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called tagrecon.json with your config ❌")
	}
	return c, nil
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "Tagrecon Server"
	}

	if strings.TrimSpace(cnf.DataSource.Dns) == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Platform.BaseURL = strings.TrimRight(strings.TrimSpace(cnf.Platform.BaseURL), "/")

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Server.Secure && cnf.Server.SecretKey == "" {
		return errors.New("server secret key is required when secure mode is on")
	}

	if cnf.Platform.TimeoutSeconds <= 0 {
		cnf.Platform.TimeoutSeconds = DEFAULT_PLATFORM_TIMEOUT
	}
	if cnf.Platform.MaxRetries < 0 {
		return errors.New("platform max retries cannot be negative")
	}
	if cnf.Platform.MaxRetries == 0 {
		cnf.Platform.MaxRetries = DEFAULT_PLATFORM_MAX_RETRIES
	}

	if cnf.Cache.FieldDefinitionTTLSeconds <= 0 {
		cnf.Cache.FieldDefinitionTTLSeconds = DEFAULT_FIELD_CACHE_TTL
	}

	if len([]rune(cnf.Matcher.Delimiter)) > 1 {
		return errors.New("matcher delimiter must be a single character")
	}
	if cnf.Matcher.SuggestionLimit <= 0 {
		cnf.Matcher.SuggestionLimit = DEFAULT_MATCH_SUGGESTION_SIZE
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := DEFAULT_RATE_LIMIT_CLEANUP
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	if cnf.Telemetry.ServiceName == "" {
		cnf.Telemetry.ServiceName = DEFAULT_TELEMETRY_SERVICE
	}

	return nil
}

// FieldDefinitionTTL is the lifetime of cached field definitions.
func (cnf *Configuration) FieldDefinitionTTL() time.Duration {
	return time.Duration(cnf.Cache.FieldDefinitionTTLSeconds) * time.Second
}

// PlatformTimeout is the per-request timeout of platform calls.
func (cnf *Configuration) PlatformTimeout() time.Duration {
	return time.Duration(cnf.Platform.TimeoutSeconds) * time.Second
}

// MatcherDelimiter returns the configured path delimiter, or 0 when none is set.
func (cnf *Configuration) MatcherDelimiter() rune {
	for _, r := range cnf.Matcher.Delimiter {
		return r
	}
	return 0
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
