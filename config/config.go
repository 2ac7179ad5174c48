package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// AppConfig represents the main application configuration
type AppConfig struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Games   GamesConfig   `mapstructure:"games"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

type ServerConfig struct {
	Host         string   `mapstructure:"host"`
	Port         int      `mapstructure:"port"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type GamesConfig struct {
	// Dir holds saved game snapshot files.
	Dir string `mapstructure:"dir"`
	// AppendWinnerOnReplay logs a card again when it re-wins after an unplay.
	AppendWinnerOnReplay bool `mapstructure:"append_winner_on_replay"`
}

// RedisConfig enables the shared snapshot cache and cross-process event bus.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ArchiveConfig enables the sqlite winner history.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Loader reads configuration from defaults, an optional config.yaml and
// MUSICBINGO_* environment variables, in increasing priority.
type Loader struct {
	viper   *viper.Viper
	envFile string
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("MUSICBINGO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return &Loader{viper: v, envFile: ".env"}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8088)
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("games.dir", "games")
	v.SetDefault("games.append_winner_on_replay", false)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.path", "musicbingo.db")
}

// SetConfigFile points the loader at an explicit config file.
func (l *Loader) SetConfigFile(path string) {
	l.viper.SetConfigFile(path)
}

func (l *Loader) Load() (*AppConfig, error) {
	// A missing .env is normal outside development.
	if err := godotenv.Load(l.envFile); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading %s: %w", l.envFile, err)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	var config AppConfig
	if err := l.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}
	return &config, nil
}

func validateConfig(config *AppConfig) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", config.Server.Port)
	}
	switch config.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", config.Log.Format)
	}
	if config.Games.Dir == "" {
		return fmt.Errorf("games dir cannot be empty")
	}
	if config.Redis.Enabled && config.Redis.Address == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}
	if config.Archive.Enabled && config.Archive.Path == "" {
		return fmt.Errorf("archive path is required when the archive is enabled")
	}
	return nil
}
