package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string   `yaml:"log-level" env-default:"info"`
	HTTPPort          string   `yaml:"http-port" env-default:"9090"`
	SQLiteStoragePath string   `yaml:"sqlite-storage-path" env-default:"chessboard.db"`
	Redis             Redis    `yaml:"redis"`
	Board             Board    `yaml:"board"`
	Engine            Engine   `yaml:"engine"`
	Hardware          Hardware `yaml:"hardware"`
}

type Redis struct {
	Enabled bool   `yaml:"enabled" env-default:"false"`
	Host    string `yaml:"host" env-default:"localhost"`
	Port    string `yaml:"port" env-default:"6379"`
}

type Board struct {
	PollIntervalMs int   `yaml:"poll-interval-ms" env-default:"40"`
	Brightness     uint8 `yaml:"brightness" env-default:"255"`
}

type Engine struct {
	URL       string `yaml:"url" env-default:"https://stockfish.online/api/s/v2.php"`
	Depth     int    `yaml:"depth" env-default:"12"`
	TimeoutMs int    `yaml:"timeout-ms" env-default:"30000"`
	Retries   int    `yaml:"retries" env-default:"3"`
}

type Hardware struct {
	Simulated bool `yaml:"simulated" env-default:"true"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Board) PollInterval() time.Duration {
	return time.Duration(that.PollIntervalMs) * time.Millisecond
}

func (that *Engine) Timeout() time.Duration {
	return time.Duration(that.TimeoutMs) * time.Millisecond
}
