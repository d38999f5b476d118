package config

import (
	"flag"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env    string       `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local dev prod"`
	HTTP   HTTPConfig   `yaml:"http"`
	WS     WSConfig     `yaml:"ws"`
	Rooms  RoomsConfig  `yaml:"rooms"`
	Limits LimitsConfig `yaml:"limits"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s" validate:"gt=0"`
}

type WSConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" env-default:"4096" validate:"gt=0"`
	WriteBufferSize int           `yaml:"write_buffer_size" env-default:"4096" validate:"gt=0"`
	MaxMessageSize  int64         `yaml:"max_message_size" env-default:"1048576" validate:"gt=0"`
	SendBuffer      int           `yaml:"send_buffer" env-default:"512" validate:"gt=0"`
	WriteWait       time.Duration `yaml:"write_wait" env-default:"10s" validate:"gt=0"`
	PongWait        time.Duration `yaml:"pong_wait" env-default:"60s" validate:"gt=0"`
}

type RoomsConfig struct {
	DefaultRoom string `yaml:"default_room" env:"DEFAULT_ROOM" env-default:"default" validate:"required"`
}

type LimitsConfig struct {
	DrawPerSecond   float64 `yaml:"draw_per_second" env-default:"100" validate:"gte=0"`
	DrawBurst       int     `yaml:"draw_burst" env-default:"200" validate:"gte=0"`
	CursorPerSecond float64 `yaml:"cursor_per_second" env-default:"60" validate:"gte=0"`
	CursorBurst     int     `yaml:"cursor_burst" env-default:"30" validate:"gte=0"`
}

// PingPeriod is how often the server pings; it must be shorter than PongWait.
func (c WSConfig) PingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("cannot read config: " + err.Error())
	}

	cfg.setDefaults()

	if err := validator.New().Struct(&cfg); err != nil {
		panic("invalid config: " + err.Error())
	}

	return &cfg
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:3000"}
	}
}
