package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSuggestions are offered on the idle page
var DefaultSuggestions = []string{
	"Latest updates on James Webb Telescope",
	"Who won the last Super Bowl?",
	"Stock market trends 2024",
	"Best Italian restaurants nearby",
}

// ErrMissingAPIKey is returned by Validate when no Gemini key is configured
var ErrMissingAPIKey = errors.New("gemini api key is not configured (set GSEARCH_GEMINI_API_KEY or GEMINI_API_KEY)")

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"` // 0 disables, websocket sessions are long lived
}

// GeminiConfig configures the grounded search call
type GeminiConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // empty uses the SDK default endpoint
	Timeout int    `mapstructure:"timeout"`  // seconds, 0 waits indefinitely
}

// UIConfig configures the presenter
type UIConfig struct {
	Language      string   `mapstructure:"language"`
	Suggestions   []string `mapstructure:"suggestions"`
	TitleMaxRunes int      `mapstructure:"title_max_runes"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from defaults, an optional YAML file, .env files
// and GSEARCH_* environment variables, in increasing priority.
func Load(cfgFile string) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("GSEARCH")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(cfgFile != "" && os.IsNotExist(err)) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyFallbacks()
	return &cfg, nil
}

// Validate checks the settings needed to run a search
func (c *Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini model is not configured")
	}
	return nil
}

// Addr returns the listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) applyFallbacks() {
	// The Gemini SDK's own variables, for people who already export them
	if c.Gemini.APIKey == "" {
		for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
			if v := os.Getenv(key); v != "" {
				c.Gemini.APIKey = v
				break
			}
		}
	}
	if len(c.UI.Suggestions) == 0 {
		c.UI.Suggestions = append([]string(nil), DefaultSuggestions...)
	}
	if c.UI.TitleMaxRunes <= 0 {
		c.UI.TitleMaxRunes = 80
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 0)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.timeout", 0)

	// UI defaults
	v.SetDefault("ui.language", "en")
	v.SetDefault("ui.suggestions", DefaultSuggestions)
	v.SetDefault("ui.title_max_runes", 80)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
