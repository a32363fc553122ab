package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Configuration is the environment-driven part of the CLI setup. Flags
// override these values where both exist.
type Configuration struct {
	MongoURI        string `env:"FIELDREPORT_MONGO_URI"`
	MongoDatabase   string `env:"FIELDREPORT_MONGO_DATABASE" envDefault:"fieldreport"`
	MongoCollection string `env:"FIELDREPORT_MONGO_COLLECTION" envDefault:"events"`
	CompanyID       string `env:"FIELDREPORT_COMPANY_ID"`
	Timezone        string `env:"FIELDREPORT_TIMEZONE" envDefault:"UTC"`
	LogLevel        string `env:"FIELDREPORT_LOG_LEVEL" envDefault:"info"`
}

// loadConfig reads an optional dotenv file, then the process environment.
func loadConfig(envFile string) (*Configuration, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}
	var cfg Configuration
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Location resolves the configured timezone.
func (c *Configuration) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// newLogger builds a console logger at the configured level. Debug level
// switches to the development encoder.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
