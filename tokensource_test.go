// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"testing"
	"time"
)

func TestAppTokenSource(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1577836800, 0)}
	cache := newTestCache(t, clock)

	src := cache.TokenSource()
	token, err := src.Token()
	if err != nil {
		t.Fatalf("failed to get token: %s", err)
	}

	if token.AccessToken == "" {
		t.Errorf("access token must not be empty")
	}
	if token.TokenType != "Bearer" {
		t.Errorf("token type: got %q", token.TokenType)
	}
	// exp = (now - drift) + lifetime.
	want := clock.t.Add(-DefaultClockDrift).Add(DefaultTokenLifetime)
	if !token.Expiry.Equal(want) {
		t.Errorf("expiry: got=%s want=%s", token.Expiry, want)
	}

	// Source must reuse the cached assertion.
	again, err := src.Token()
	if err != nil {
		t.Fatalf("failed to get token: %s", err)
	}
	if again.AccessToken != token.AccessToken {
		t.Errorf("token source must reuse the cached assertion")
	}
}

func TestInstallationTokenSource(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1577836800, 0)}
	collab := &fakeCollaborator{
		installations: []Installation{{ID: 42}},
		token:         AccessToken{Token: "ghs_fresh", ExpiresAt: clock.t.Add(time.Hour)},
	}
	store := newTestStore(t, collab, clock)

	src := store.TokenSource(42)
	token, err := src.Token()
	if err != nil {
		t.Fatalf("failed to get token: %s", err)
	}

	if token.AccessToken != "ghs_fresh" {
		t.Errorf("access token: got %q", token.AccessToken)
	}
	if token.TokenType != "Bearer" {
		t.Errorf("token type: got %q", token.TokenType)
	}
	if !token.Expiry.Equal(clock.t.Add(time.Hour)) {
		t.Errorf("expiry: got %s", token.Expiry)
	}

	t.Run("unknown-installation", func(t *testing.T) {
		if _, err := store.TokenSource(7).Token(); err == nil {
			t.Errorf("expected error for unknown installation")
		}
	})
}
