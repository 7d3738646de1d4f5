package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/vijaylaxmi/flourmill/internal/core"
	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
	pkgredis "github.com/vijaylaxmi/flourmill/pkg/redis"
)

// AppConfig defines all configurable parameters of the billing counter,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Env string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// Billing
	Billing model.BillingConfig
	Catalog model.CatalogConfig
	Records model.RecordConfig
	PDF     model.PDFConfig
	Notify  model.NotifyConfig

	// Front ends
	Voice model.VoiceConfig
	Web   model.WebConfig
}

func loadConfig(envFile string) (AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			logx.Warn().Err(err).Str("file", envFile).Msg("Could not load env file")
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func main() {
	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(os.Getenv("APP_ENV"))})

	if err := newApp().RunContext(context.Background(), os.Args); err != nil {
		logx.Fatal().Err(err).Msg("flourmill failed")
	}
}
