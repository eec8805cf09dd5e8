package cmd

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dhruvjyotiray/natours/store"
)

// Config stores app configuration
type Config struct {
	Server struct {
		Address     string `yaml:"address"`
		Timeout     int    `yaml:"timeout"`
		OtlpAddress string `yaml:"otlp_address"`
		FrontendURL string `yaml:"frontend_url"`
	} `yaml:"server"`
	Auth struct {
		KeyID          string `yaml:"key_id"`
		PrivateKeyFile string `yaml:"private_key_file"`
		Algorithm      string `yaml:"algorithm"`
	} `yaml:"auth"`
	store.MongoConfig `yaml:"mongo"`
	Redis             struct {
		Address       string `yaml:"address"`
		Password      string `yaml:"password"`
		RateLimit     int64  `yaml:"rate_limit"`
		RateWindowSec int    `yaml:"rate_window_seconds"`
	} `yaml:"redis"`
	Payment struct {
		APIURL        string `yaml:"api_url"`
		APIKey        string `yaml:"api_key"`
		WebhookSecret string `yaml:"webhook_secret"`
	} `yaml:"payment"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`
	Images struct {
		UploadURL string `yaml:"upload_url"`
		APIKey    string `yaml:"api_key"`
		APISecret string `yaml:"api_secret"`
	} `yaml:"images"`
}

// AppConfig reads config from file and creates config struct
func AppConfig(cfgPath string, logger *zap.Logger) (*Config, error) {
	f, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("can't open config file: %w", err)
	}
	defer func() {
		err := f.Close()
		if err != nil {
			logger.Error("can't close config file: %w", zap.Error(err))
		}
	}()

	cfg := new(Config)
	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("can't decode config file: %w", err)
	}
	return cfg, nil
}
