// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// APIKeyPrefix marks agent API keys so they are recognizable in logs and
// secret scanners.
const APIKeyPrefix = "ael_"

var (
	ErrInvalidAdminSecret = errors.New("invalid admin secret")
	ErrInvalidToken       = errors.New("invalid token format")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAPIKey creates a random bearer key for an agent.
// The key is shown once at registration; only its hash is stored.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}
	// URL-safe base64 without padding
	return APIKeyPrefix + strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// HashAPIKey returns the stored form of an API key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ParseBearer extracts the token from an Authorization header value.
func ParseBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrInvalidToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// ValidateAdminSecret compares a presented admin secret with the configured
// one in constant time. An empty configured secret rejects everything.
func ValidateAdminSecret(presented, secret string) error {
	if secret == "" {
		return ErrInvalidAdminSecret
	}
	// Compare MACs so the comparison does not leak the secret's length
	key := []byte("admin-secret")
	a := hmac.New(sha256.New, key)
	a.Write([]byte(presented))
	b := hmac.New(sha256.New, key)
	b.Write([]byte(secret))
	if !hmac.Equal(a.Sum(nil), b.Sum(nil)) {
		return ErrInvalidAdminSecret
	}
	return nil
}
