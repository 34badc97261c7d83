package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type Config struct {
	Mode        string         `mapstructure:"mode"`
	Port        int            `mapstructure:"port"`
	Secret      string         `mapstructure:"secret"`
	ReadLimit   int64          `mapstructure:"read_limit"`
	PingPeriod  time.Duration  `mapstructure:"ping_period"`
	JoinLimit   int            `mapstructure:"join_limit"`
	JoinWindow  time.Duration  `mapstructure:"join_window"`
	DatabaseURL string         `mapstructure:"database_url"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Pools       map[string]int `mapstructure:"pools"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	// Per-user match.start throttle; join_limit 0 disables it.
	v.SetDefault("join_limit", 10)
	v.SetDefault("join_window", "30s")
	v.SetDefault("database_url", "")
	v.SetDefault("redis.addr", "")
	// Admission buffer per match type. Zero entries mean no priming.
	v.SetDefault("pools", map[string]int{"1v1": 5, "2v2": 3, "5v5": 2})

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
