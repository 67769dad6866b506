package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort         = 3318
	DefaultTickInterval = 15 * time.Minute
)

type Config struct {
	Port          int
	DatabaseURL   string
	DatabaseType  string
	AdminSecret   string
	ReputationURL string
	TickInterval  time.Duration
	WeightedTally bool
}

// ParseFlags validates flags and fills the rest from the environment.
// Variables from an env file (default .env) are loaded first and never
// override variables already set in the process environment.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var envFile string
	var weighted string

	fset := flag.NewFlagSet("agent-election", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fset.IntVar(&cfg.Port, "p", 0, "Server port")
	fset.StringVar(&cfg.DatabaseURL, "d", "", "Database URL or SQLite file path")
	fset.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fset.StringVar(&cfg.ReputationURL, "reputation-url", "", "Reputation service base URL")
	fset.DurationVar(&cfg.TickInterval, "tick", 0, "Phase scheduler interval")
	fset.StringVar(&weighted, "weighted", "", "Weight tallies by autonomy score (true or false)")
	fset.StringVar(&envFile, "env-file", ".env", "Env file to load")

	// Secrets (prefer env variables, but allow CLI for dev)
	fset.StringVar(&cfg.AdminSecret, "admin-secret", "", "Admin bearer secret (prefer env)")

	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = DefaultPort
		}
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		if cfg.DatabaseType == "postgres" {
			return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
		}
		cfg.DatabaseURL = "election.db"
	}

	if cfg.ReputationURL == "" {
		cfg.ReputationURL = os.Getenv("REPUTATION_URL")
	}

	if cfg.TickInterval == 0 {
		if s := os.Getenv("TICK_INTERVAL"); s != "" {
			d, err := time.ParseDuration(s)
			if err != nil {
				return Config{}, errors.New("invalid TICK_INTERVAL env variable")
			}
			cfg.TickInterval = d
		} else {
			cfg.TickInterval = DefaultTickInterval
		}
	}
	if cfg.TickInterval < 0 {
		return Config{}, errors.New("tick interval must be positive")
	}

	if weighted == "" {
		weighted = os.Getenv("WEIGHTED_TALLY")
	}
	if weighted != "" {
		b, err := strconv.ParseBool(weighted)
		if err != nil {
			return Config{}, errors.New("invalid WEIGHTED_TALLY value")
		}
		cfg.WeightedTally = b
	}

	// Secrets - MUST be provided
	if cfg.AdminSecret == "" {
		cfg.AdminSecret = os.Getenv("ADMIN_SECRET")
	}
	if cfg.AdminSecret == "" {
		return Config{}, errors.New("ADMIN_SECRET required")
	}

	return cfg, nil
}
