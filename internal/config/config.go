package config

import (
	"flag"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	WebRTC    WebRTCConfig    `yaml:"webrtc"`
	Signaling SignalingConfig `yaml:"signaling"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN" env-default:""`
}

type WebRTCConfig struct {
	STUNServers []string `yaml:"stun_servers" env-default:""`
}

type SignalingConfig struct {
	ChatHistoryLimit int `yaml:"chat_history_limit" env-default:"100"`
	ClientBuffer     int `yaml:"client_buffer" env-default:"16"`
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
		c.HTTP.Address = ":8000"
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
	if c.Signaling.ChatHistoryLimit <= 0 {
		c.Signaling.ChatHistoryLimit = 100
	}
	if c.Signaling.ClientBuffer <= 0 {
		c.Signaling.ClientBuffer = 16
	}
}
