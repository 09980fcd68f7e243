package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	cron_config "github.com/customeros/mailsort/internal/cron/config"
	"github.com/customeros/mailsort/internal/logger"
	"github.com/customeros/mailsort/internal/tracing"
)

type Config struct {
	AppConfig        *AppConfig
	Logger           *logger.Config
	Tracing          *tracing.JaegerConfig
	ImapConfig       *ImapConfig
	ClassifierConfig *ClassifierConfig
	DatabaseConfig   *DatabaseConfig
	CronConfig       *cron_config.Config
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:        &AppConfig{},
		Logger:           &logger.Config{},
		Tracing:          &tracing.JaegerConfig{},
		ImapConfig:       &ImapConfig{},
		ClassifierConfig: &ClassifierConfig{},
		DatabaseConfig:   &DatabaseConfig{},
		CronConfig:       &cron_config.Config{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading mailsort config: %v", err)
	}

	return config, nil
}
