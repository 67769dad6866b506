// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: PostgreSQL connection string or SQLite file (default: election.db)
  - AdminSecret: Bearer secret for election administration (required)
  - ReputationURL: Reputation service base URL (optional)
  - TickInterval: How often phase deadlines are checked (default: 15m)
  - WeightedTally: Default weighting for new elections (default: false)

# CLI Flags

	-p               Server port
	-d               Database URL
	-t               Database type
	-admin-secret    Admin bearer secret
	-reputation-url  Reputation service base URL
	-tick            Scheduler interval
	-weighted        Weighted tallies
	-env-file        Env file to load (default: .env)

# Environment Variables

Flags fall back to environment variables:

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	ADMIN_SECRET   → -admin-secret
	REPUTATION_URL → -reputation-url
	TICK_INTERVAL  → -tick
	WEIGHTED_TALLY → -weighted

CLI flags take precedence over environment variables, and the process
environment takes precedence over the env file. A missing env file is
ignored.

# Validation

ParseFlags returns an error if:

  - ADMIN_SECRET is missing
  - DATABASE_URL is missing for postgres
  - DATABASE_TYPE, PORT, TICK_INTERVAL or WEIGHTED_TALLY cannot be parsed
*/
package cliparse
