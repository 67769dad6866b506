// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	tests := []struct {
		name    string
		byteLen int
		wantLen int // hex encoded length = byteLen * 2
	}{
		{"8 bytes", 8, 16},
		{"16 bytes", 16, 32},
		{"24 bytes", 24, 48},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := GenerateID(tt.byteLen)
			if err != nil {
				t.Fatalf("GenerateID() error = %v", err)
			}
			if len(id) != tt.wantLen {
				t.Errorf("GenerateID() length = %d, want %d", len(id), tt.wantLen)
			}
			for _, c := range id {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("GenerateID() contains invalid hex char: %c", c)
				}
			}
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}

	if !strings.HasPrefix(key, APIKeyPrefix) {
		t.Errorf("GenerateAPIKey() = %q, want prefix %q", key, APIKeyPrefix)
	}
	if strings.Contains(key, "=") {
		t.Error("GenerateAPIKey() contains padding characters")
	}
	if len(key) != len(APIKeyPrefix)+32 {
		t.Errorf("GenerateAPIKey() length = %d, want %d", len(key), len(APIKeyPrefix)+32)
	}

	keys := make(map[string]bool)
	for i := 0; i < 100; i++ {
		k, err := GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey() error on iteration %d: %v", i, err)
		}
		if keys[k] {
			t.Errorf("GenerateAPIKey() produced duplicate key: %s", k)
		}
		keys[k] = true
	}
}

func TestHashAPIKey(t *testing.T) {
	h := HashAPIKey("ael_example")
	if len(h) != 64 {
		t.Errorf("HashAPIKey() length = %d, want 64", len(h))
	}
	if h != HashAPIKey("ael_example") {
		t.Error("HashAPIKey() is not deterministic")
	}
	if h == HashAPIKey("ael_other") {
		t.Error("HashAPIKey() produced same hash for different keys")
	}
	if h == "ael_example" {
		t.Error("HashAPIKey() returned the key unchanged")
	}
}

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"standard", "Bearer ael_abc", "ael_abc", false},
		{"lowercase scheme", "bearer ael_abc", "ael_abc", false},
		{"extra spaces", "  Bearer   ael_abc  ", "ael_abc", false},
		{"missing token", "Bearer ", "", true},
		{"wrong scheme", "Basic dXNlcjpwYXNz", "", true},
		{"no scheme", "ael_abc", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBearer(tt.header)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBearer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidToken {
				t.Errorf("ParseBearer() error = %v, want %v", err, ErrInvalidToken)
			}
			if got != tt.want {
				t.Errorf("ParseBearer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateAdminSecret(t *testing.T) {
	tests := []struct {
		name      string
		presented string
		secret    string
		wantErr   bool
	}{
		{"valid secret", "s3cret", "s3cret", false},
		{"wrong secret", "guess", "s3cret", true},
		{"prefix of secret", "s3c", "s3cret", true},
		{"empty presented", "", "s3cret", true},
		{"unconfigured secret", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAdminSecret(tt.presented, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAdminSecret() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidAdminSecret {
				t.Errorf("ValidateAdminSecret() error = %v, want %v", err, ErrInvalidAdminSecret)
			}
		})
	}
}

// Benchmark tests
func BenchmarkGenerateAPIKey(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GenerateAPIKey()
	}
}

func BenchmarkValidateAdminSecret(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ValidateAdminSecret("presented", "configured")
	}
}
