// Package config loads configuration structs from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct-tag parsing and
// github.com/joho/godotenv for optional .env files. Load reads the default
// .env once per process, then parses the environment on every call, so
// tests can change variables with t.Setenv between calls.
//
// LoadPrefixed parses the same struct type under a name prefix, which lets a
// process configure two instances of one backend (a cache tier and a durable
// tier, for example) from one type.
//
// Errors match ErrParsingConfig, ErrLoadingEnvFile or ErrNilPointer via
// errors.Is.
package config
