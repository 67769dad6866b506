// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db persists elections, agents and ballots on PostgreSQL or SQLite.

# Opening a Connection

Open accepts "postgres" (lib/pq) or "sqlite" (modernc.org/sqlite):

	conn, err := db.Open(ctx, db.DriverSQLite, "election.db")
	if err != nil {
		log.Fatal(err)
	}
	if err := db.CreateSchema(ctx, conn); err != nil {
		log.Fatal(err)
	}
	store := db.NewStore(conn)

SQLite is limited to one open connection and begins transactions with
BEGIN IMMEDIATE, so concurrent writers queue instead of failing with
SQLITE_BUSY. CreateSchema is safe to call multiple times.

# Transactions

InTx runs a function against a Store bound to one transaction. Code inside
the function must use the Store it is given:

	err := store.InTx(ctx, func(tx *db.Store) error {
		ok, err := tx.ConsumeNonce(ctx, electionID, stage, agentID, nonce)
		...
	})

# Errors

Lookups return ErrNotFound for missing rows. Inserts that hit a UNIQUE
constraint return ErrConflict on both drivers.

# Tables

  - election: phase, schedule and winner; at most one live row
  - agent: tier, eligibility flags, activity signals, hashed API key
  - candidate: one per (election, agent), with endorsement count and status
  - endorsement: one per (candidate, voter)
  - eval_nonce: one per (election, stage, agent), consumed at commit
  - vote_commitment: one per (election, stage, agent)
  - vote: one per commitment, written at reveal
  - result_snapshot: one per (election, stage), never rewritten
  - primary_result: primary standings per candidate

Timestamps are stored as Unix milliseconds.
*/
package db
