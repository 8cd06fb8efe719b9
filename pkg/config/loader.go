package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var defaultEnvLoaded sync.Once

// Load parses environment variables into v using `env` struct tags.
//
// The first call also loads the default .env file from the working
// directory, if there is one. Variables already set in the process
// environment win over the file.
//
// Example:
//
//	type RedisConfig struct {
//		URL         string        `env:"REDIS_URL,required"`
//		DialTimeout time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T) error {
	return LoadWithOptions(v, env.Options{})
}

// LoadPrefixed is like Load but reads every variable with the given prefix,
// so one struct type can describe several instances (e.g. CACHE_REDIS_URL).
func LoadPrefixed[T any](v *T, prefix string) error {
	return LoadWithOptions(v, env.Options{Prefix: prefix})
}

// LoadWithOptions is Load with explicit env parsing options.
func LoadWithOptions[T any](v *T, opts env.Options) error {
	defaultEnvLoaded.Do(func() {
		// The default .env file is optional.
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	if err := env.ParseWithOptions(v, opts); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Use it for configuration the process cannot start without.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// LoadEnv loads the given .env files into the process environment.
// Later files do not override earlier ones, and neither overrides variables
// that are already set.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	if err := godotenv.Load(paths...); err != nil {
		return errors.Join(ErrLoadingEnvFile, err)
	}
	return nil
}
