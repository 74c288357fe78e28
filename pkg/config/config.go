// Package config loads environment-driven configuration structs. Field tags
// follow github.com/caarlos0/env conventions; a .env file in the working
// directory is loaded once, if present, before the first parse.
package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	ErrNilPointer    = errors.New("nil pointer provided to config loader")
	ErrParsingFailed = errors.New("failed to parse environment into config")
)

var loadDotEnv sync.Once

// Load populates cfg from the environment.
//
//	type Config struct {
//	    Addr string `env:"ADDR" envDefault:":8080"`
//	    DSN  string `env:"PG_CONN_URL,required"`
//	}
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilPointer
	}
	loadDotEnv.Do(func() {
		// The .env file is a development convenience; absence is fine.
		_ = godotenv.Load()
	})
	if err := env.Parse(cfg); err != nil {
		return errors.Join(ErrParsingFailed, err)
	}
	return nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}
