// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/hashdraw/draw"
)

const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"

	defaultPort            = 3318
	defaultSQLiteURL       = "file:hashdraw.db"
	defaultMaxParticipants = 100000
)

type Config struct {
	Port            int
	DatabaseURL     string
	DatabaseType    string
	AdminKeySalt    string
	DrawSlugSalt    string
	Algorithm       draw.Algorithm
	DisplayCap      int
	MaxParticipants int
	BaseURL         string
	EnvFile         string
}

// ParseFlags builds a Config from flags, then environment variables
// (optionally seeded from an env file), then defaults.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var algorithm string
	displayCap, maxParticipants := -1, -1

	fs := flag.NewFlagSet("hashdraw", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "Base URL used in share links")
	fs.StringVar(&cfg.EnvFile, "env-file", ".env", "Optional env file")

	// Draw engine
	fs.StringVar(&algorithm, "a", "", "Digest algorithm (md5, sha256, sha3-256, blake3)")
	fs.IntVar(&displayCap, "display-cap", -1, "Ranked entries returned for display")
	fs.IntVar(&maxParticipants, "max-participants", -1, "Participant ceiling per draw (0 = unlimited)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.AdminKeySalt, "admin-salt", "", "Admin key salt (prefer env)")
	fs.StringVar(&cfg.DrawSlugSalt, "slug-salt", "", "Draw slug salt (prefer env)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Variables already in the environment win over the file
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load env file %s: %w", cfg.EnvFile, err)
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		port, err := envInt("PORT", defaultPort)
		if err != nil {
			return Config{}, err
		}
		cfg.Port = port
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = DatabaseSQLite
		}
	}
	if cfg.DatabaseType != DatabaseSQLite && cfg.DatabaseType != DatabasePostgres {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == DatabasePostgres {
			return Config{}, errors.New("database URL required for postgres (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = defaultSQLiteURL
	}

	if algorithm == "" {
		algorithm = os.Getenv("HASH_ALGORITHM")
	}
	algo, err := draw.ParseAlgorithm(algorithm)
	if err != nil {
		return Config{}, err
	}
	cfg.Algorithm = algo

	if displayCap < 0 {
		if displayCap, err = envInt("DISPLAY_CAP", draw.DefaultDisplayCap); err != nil {
			return Config{}, err
		}
	}
	cfg.DisplayCap = displayCap

	if maxParticipants < 0 {
		if maxParticipants, err = envInt("MAX_PARTICIPANTS", defaultMaxParticipants); err != nil {
			return Config{}, err
		}
	}
	cfg.MaxParticipants = maxParticipants

	if cfg.BaseURL == "" {
		cfg.BaseURL = os.Getenv("SHARE_BASE_URL")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + strconv.Itoa(cfg.Port)
	}

	// Secrets - MUST be provided
	if cfg.AdminKeySalt == "" {
		cfg.AdminKeySalt = os.Getenv("ADMIN_KEY_SALT")
	}
	if cfg.AdminKeySalt == "" {
		return Config{}, errors.New("ADMIN_KEY_SALT required")
	}

	if cfg.DrawSlugSalt == "" {
		cfg.DrawSlugSalt = os.Getenv("DRAW_SLUG_SALT")
	}
	if cfg.DrawSlugSalt == "" {
		return Config{}, errors.New("DRAW_SLUG_SALT required")
	}

	return cfg, nil
}

// NewEngine builds a draw engine from the configured settings. Options
// passed in are applied last and override them.
func (c Config) NewEngine(opts ...draw.Option) *draw.Engine {
	return draw.NewEngine(append([]draw.Option{
		draw.WithAlgorithm(c.Algorithm),
		draw.WithDisplayCap(c.DisplayCap),
		draw.WithMaxParticipants(c.MaxParticipants),
	}, opts...)...)
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s env variable", key)
	}
	return n, nil
}
