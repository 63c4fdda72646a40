package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BrokerMemory = "memory"
	BrokerRedis  = "redis"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis     Redis     `yaml:"redis"`
	Postgres  Postgres  `yaml:"postgres"`
	Relay     Relay     `yaml:"relay"`
	Client    Client    `yaml:"client"`
	Suggester Suggester `yaml:"suggester"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// Postgres is optional; without a DSN the relay keeps no audit trail.
type Postgres struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
}

type Relay struct {
	Broker         string        `yaml:"broker" env:"RELAY_BROKER" env-default:"memory"`
	ChannelTTL     time.Duration `yaml:"channel-ttl" env-default:"2m"`
	PingPeriod     time.Duration `yaml:"ping-period" env-default:"25s"`
	MaxMessageSize int64         `yaml:"max-message-size" env-default:"4096"`
}

type Client struct {
	RelayURL string `yaml:"relay-url" env:"RELAY_URL" env-default:"ws://localhost:9090/ws"`
}

type Suggester struct {
	APIKey     string        `yaml:"api-key" env:"GEMINI_API_KEY"`
	Model      string        `yaml:"model" env-default:"gemini-2.5-flash"`
	ThinkDelay time.Duration `yaml:"think-delay" env-default:"600ms"`
	Timeout    time.Duration `yaml:"timeout" env-default:"15s"`
}

// MustLoad - load all configurations in config.yml file, with a .env next to it if present.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env file: %w", err)
	}

	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
