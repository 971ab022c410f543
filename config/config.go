package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AppConfig struct {
	App struct {
		Name string `mapstructure:"NAME"`
		Port string `mapstructure:"PORT"`
	}

	Relay struct {
		// Heartbeat scan interval in seconds. A silent connection is
		// evicted within two intervals.
		PingIntervalSeconds int `mapstructure:"PING_INTERVAL_SECONDS"`
	}

	Store struct {
		// memory | postgres | redis
		Backend string `mapstructure:"BACKEND"`

		Postgres struct {
			DSN string `mapstructure:"DSN"`
		}
		Redis struct {
			Addr     string `mapstructure:"ADDR"`
			Password string `mapstructure:"PASSWORD"`
			DB       int    `mapstructure:"DB"`
		}
	}

	RateLimit struct {
		RPS   float64 `mapstructure:"RPS"`
		Burst int     `mapstructure:"BURST"`
	}
}

var Conf *AppConfig

func LoadConfig() error {
	viper.SetConfigName("application")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("WATCHTOGETHER")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("APP.NAME", "watchtogether")
	viper.SetDefault("APP.PORT", ":8080")
	viper.SetDefault("RELAY.PING_INTERVAL_SECONDS", 30)
	viper.SetDefault("STORE.BACKEND", "memory")
	viper.SetDefault("RATELIMIT.RPS", 20.0)
	viper.SetDefault("RATELIMIT.BURST", 40)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// defaults + env only
	}

	var config AppConfig
	if err := viper.Unmarshal(&config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	Conf = &config
	log.Info().Str("backend", config.Store.Backend).Msg("configuration loaded")
	return nil
}
