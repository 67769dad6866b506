// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides credential generation and checking.

# Agent API Keys

Agents receive a random bearer key when they register:

	key, err := auth.GenerateAPIKey()  // "ael_" + 32 URL-safe characters

Only the SHA-256 of the key is stored:

	stored := auth.HashAPIKey(key)

Requests present the key as "Authorization: Bearer <key>":

	key, err := auth.ParseBearer(r.Header.Get("Authorization"))

# Admin Secret

Election administration is guarded by a single configured secret:

	err := auth.ValidateAdminSecret(presented, cfg.AdminSecret)

The comparison runs in constant time over HMAC digests.

# ID Generation

Random hex IDs:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
