// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/olavodias/GitHubAuth/internal/testkeys"
)

func TestPayload(t *testing.T) {
	t.Run("golden-serialization", func(t *testing.T) {
		payload := NewPayload("123456", 0, 0)
		payload.SetIssuedAt(time.Unix(1577836800, 0)) // 2020-01-01T00:00:00Z

		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %s", err)
		}

		expect := `{"iat":1577836800,"exp":1577837400,"iss":"123456","alg":"RS256"}`
		if string(data) != expect {
			t.Errorf("payload mismatch:\n got=%s\nwant=%s", data, expect)
		}
	})

	t.Run("header-serialization", func(t *testing.T) {
		data, err := json.Marshal(defaultHeader())
		if err != nil {
			t.Fatalf("failed to marshal header: %s", err)
		}
		if string(data) != `{"typ":"JWT","alg":"RS256"}` {
			t.Errorf("header mismatch: %s", data)
		}
	})

	t.Run("exp-tracks-iat", func(t *testing.T) {
		payload := NewPayload("99", 0, 0)
		payload.SetIssuedAt(time.Unix(1000, 0))
		if payload.ExpiresAt != 1000+600 {
			t.Errorf("exp=%d, expected iat+10min", payload.ExpiresAt)
		}

		payload.SetIssuedAt(time.Unix(5000, 0))
		if payload.ExpiresAt != 5000+600 {
			t.Errorf("exp=%d, exp must be recomputed when iat changes", payload.ExpiresAt)
		}
	})

	t.Run("renewal-deadline", func(t *testing.T) {
		payload := NewPayload("99", 10*time.Minute, 2*time.Minute)
		payload.SetIssuedAt(time.Unix(1000, 0))
		if !payload.RenewalDeadline().Equal(time.Unix(1000+480, 0)) {
			t.Errorf("deadline=%s, expected exp-2min", payload.RenewalDeadline())
		}
	})

	t.Run("renewal-deadline-short-lifetime", func(t *testing.T) {
		// Lifetime within the margin collapses the deadline to expiry.
		payload := NewPayload("99", 2*time.Minute, 2*time.Minute)
		payload.SetIssuedAt(time.Unix(1000, 0))
		if !payload.RenewalDeadline().Equal(time.Unix(1000+120, 0)) {
			t.Errorf("deadline=%s, expected exp itself", payload.RenewalDeadline())
		}
	})

	t.Run("sub-second-truncation", func(t *testing.T) {
		payload := NewPayload("99", 0, 0)
		payload.SetIssuedAt(time.Unix(1000, 999_999_999))
		if payload.IssuedAt != 1000 {
			t.Errorf("iat=%d, timestamps must be whole seconds", payload.IssuedAt)
		}
	})
}

func TestRS256Signer(t *testing.T) {
	t.Run("nil-key", func(t *testing.T) {
		_, err := newRS256Signer(nil)
		if err == nil {
			t.Errorf("expected error for nil key")
		}
	})

	t.Run("rsa-key-1024", func(t *testing.T) {
		_, err := newRS256Signer(testkeys.RSA1024())
		if err == nil {
			t.Errorf("expected error for rsa keys < 2048 bits")
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		signer, err := newRS256Signer(testkeys.RSA2048())
		if err != nil {
			t.Fatalf("failed to build signer: %s", err)
		}

		payload := NewPayload("123456", 0, 0)
		payload.SetIssuedAt(time.Unix(1577836800, 0))

		first, err := signer.Sign(defaultHeader(), payload)
		if err != nil {
			t.Fatalf("failed to sign: %s", err)
		}
		second, err := signer.Sign(defaultHeader(), payload)
		if err != nil {
			t.Fatalf("failed to sign: %s", err)
		}
		if first != second {
			t.Errorf("signing is not deterministic for fixed inputs")
		}
		if strings.Count(first, ".") != 2 {
			t.Errorf("expected three dot joined segments: %s", first)
		}
	})

	t.Run("verifiable", func(t *testing.T) {
		signer, err := newRS256Signer(testkeys.RSA2048())
		if err != nil {
			t.Fatalf("failed to build signer: %s", err)
		}

		payload := NewPayload("123456", 0, 0)
		payload.SetIssuedAt(time.Now())

		token, err := signer.Sign(defaultHeader(), payload)
		if err != nil {
			t.Fatalf("failed to sign: %s", err)
		}

		pubKeyFunc := func(t *jwt.Token) (any, error) {
			return testkeys.RSA2048().Public(), nil
		}
		parsed, err := jwt.Parse(token, pubKeyFunc,
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithIssuer("123456"),
		)
		if err != nil {
			t.Fatalf("failed to parse jwt: %s", err)
		}
		if !parsed.Valid {
			t.Errorf("token should be valid")
		}
	})
}

func TestAppToken(t *testing.T) {
	t.Run("slog-log-valuer", func(t *testing.T) {
		now := time.Now().Truncate(time.Second)
		token := AppToken{
			Token:     "token",
			Issuer:    "123456",
			IssuedAt:  now.Add(-time.Minute),
			ExpiresAt: now.Add(9 * time.Minute),
		}
		v := token.LogValue()
		for _, item := range v.Group() {
			if item.Key == "token" {
				if item.Value.Kind() != slog.KindString {
					t.Errorf("token should be of string kind: %s", item.Value.Kind())
				}
				if item.Value.String() == "token" {
					t.Errorf("token value should be redacted: %s", item.Value.String())
				}
			}
		}
	})
}
