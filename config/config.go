package config

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `default:"8080" validate:"required,numeric"`
	DatabaseURL string

	FirestoreProject string
	JWTSecret        string

	// SettingsPath is an optional YAML file overriding the analysis settings.
	SettingsPath   string
	LogLevel       string `default:"info" validate:"oneof=debug info warn error"`
	MaxScoreBytes  int64  `default:"1048576" validate:"min=1024"`
	DefaultSpecies int    `default:"1" validate:"oneof=1 2"`
}

// Load reads SPECIES_* environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("species", &cfg); err != nil {
		return cfg, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func ProvideConfig() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal(err.Error())
	}
	return cfg
}

var Options = ProvideConfig
