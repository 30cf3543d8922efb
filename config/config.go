package config

import (
	"errors"
	"fmt"
	"strings"

	"suorganizer/constants"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port               string
	PublicURL          string
	SiteName           string
	AssetsDir          string
	TemplatesDir       string
	RateLimitPerMinute int
	SecureCookies      bool
	CSRFKey            string
	Debug              bool

	// Database
	DatabaseDriver string
	DatabaseDSN    string

	// Listing
	PaginateBy int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", constants.DEFAULT_PORT)
	v.SetDefault("public_url", constants.PUBLIC_URL)
	v.SetDefault("site_name", constants.APP_NAME)
	v.SetDefault("assets_dir", "./assets")
	v.SetDefault("templates_dir", "")
	v.SetDefault("rate_limit_per_minute", 100)
	v.SetDefault("secure_cookies", false)
	v.SetDefault("csrf_key", "")
	v.SetDefault("debug", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "suorganizer.db")
	v.SetDefault("paginate_by", constants.DEFAULT_PAGINATE_BY)
}

// Load reads configuration from a .env file, an optional YAML config file and
// SUORGANIZER_* environment variables, in increasing order of precedence.
// An empty path searches ./config.yaml and /etc/suorganizer/config.yaml.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env not found

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SUORGANIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/suorganizer")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return fromViper(v)
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, _ := fromViper(v)
	return cfg
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:               v.GetString("port"),
		PublicURL:          strings.TrimRight(v.GetString("public_url"), "/"),
		SiteName:           v.GetString("site_name"),
		AssetsDir:          v.GetString("assets_dir"),
		TemplatesDir:       v.GetString("templates_dir"),
		RateLimitPerMinute: v.GetInt("rate_limit_per_minute"),
		SecureCookies:      v.GetBool("secure_cookies"),
		CSRFKey:            v.GetString("csrf_key"),
		Debug:              v.GetBool("debug"),
		DatabaseDriver:     v.GetString("database.driver"),
		DatabaseDSN:        v.GetString("database.dsn"),
		PaginateBy:         v.GetInt("paginate_by"),
	}

	if cfg.PaginateBy < 1 {
		return nil, fmt.Errorf("paginate_by must be positive, got %d", cfg.PaginateBy)
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	return cfg, nil
}
