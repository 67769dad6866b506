// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ballot

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const nonceBytes = 32

var (
	ErrMissingFirstChoice = errors.New("first_choice is required")
	ErrMissingRationale   = errors.New("rationale is required")
	ErrRepeatedChoice     = errors.New("a candidate may appear only once per ballot")
	ErrUnhashableText     = errors.New("ballot text must be valid UTF-8 without U+2028 or U+2029")
)

// Payload is the ranked ballot an agent commits to. Field order is the
// canonical serialization order.
type Payload struct {
	FirstChoice  string `json:"first_choice"`
	SecondChoice string `json:"second_choice,omitempty"`
	ThirdChoice  string `json:"third_choice,omitempty"`
	Rationale    string `json:"rationale"`
}

// Validate checks the shape of a payload without consulting the roster.
func (p Payload) Validate() error {
	for _, f := range []string{p.FirstChoice, p.SecondChoice, p.ThirdChoice, p.Rationale} {
		// encoding/json rewrites these, so the canonical bytes would differ
		// from what a plain JSON serializer hashes
		if !utf8.ValidString(f) || strings.ContainsAny(f, "\u2028\u2029") {
			return ErrUnhashableText
		}
	}
	if strings.TrimSpace(p.FirstChoice) == "" {
		return ErrMissingFirstChoice
	}
	if strings.TrimSpace(p.Rationale) == "" {
		return ErrMissingRationale
	}
	if p.SecondChoice != "" && p.SecondChoice == p.FirstChoice {
		return ErrRepeatedChoice
	}
	if p.ThirdChoice != "" && (p.ThirdChoice == p.FirstChoice || p.ThirdChoice == p.SecondChoice) {
		return ErrRepeatedChoice
	}
	return nil
}

// Choices returns the non-empty ranked choices in order.
func (p Payload) Choices() []string {
	out := make([]string, 0, 3)
	for _, c := range []string{p.FirstChoice, p.SecondChoice, p.ThirdChoice} {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Canonical returns the byte form hashed into a commitment: compact JSON in
// field order, HTML characters unescaped, no trailing newline.
func (p Payload) Canonical() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("failed to serialize ballot: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Commitment computes hex(SHA-256(canonical(payload) || nonce)).
func Commitment(p Payload, nonce string) (string, error) {
	data, err := p.Canonical()
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte(nonce))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify reports whether payload and nonce reproduce hash.
func Verify(p Payload, nonce, hash string) bool {
	computed, err := Commitment(p, nonce)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(strings.ToLower(hash))) == 1
}

// NewNonce returns 32 random bytes, hex encoded.
func NewNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidHash reports whether s looks like a hex SHA-256 digest.
func ValidHash(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
