// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"crypto/rsa"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// AppTokenCache lazily signs and caches the app assertion used to
// authenticate as the app itself.
//
// The cached token is reused until it crosses its renewal deadline; past
// it, the next access re-signs with a fresh, drift-compensated issue
// time. Payload mutations invalidate the cache immediately. Safe for
// concurrent use; racing renewals observe a single regeneration.
type AppTokenCache struct {
	mu      sync.Mutex
	signer  assertionSigner
	payload *Payload
	token   string
	drift   time.Duration
	now     func() time.Time
}

// NewAppTokenCache returns a cache signing assertions for issuer with
// key. The issuer is carried verbatim in the "iss" claim.
// Relevant options: [WithTokenLifetime], [WithRenewalMargin],
// [WithClockDrift].
func NewAppTokenCache(issuer string, key *rsa.PrivateKey, opts ...Option) (*AppTokenCache, error) {
	if issuer == "" {
		return nil, fmt.Errorf("githubauth: issuer cannot be empty")
	}

	s := newSettings()
	if err := s.apply(opts); err != nil {
		return nil, fmt.Errorf("githubauth: invalid options: %w", err)
	}

	signer, err := newRS256Signer(key)
	if err != nil {
		return nil, err
	}

	return &AppTokenCache{
		signer:  signer,
		payload: NewPayload(issuer, s.lifetime, s.margin),
		drift:   s.drift,
		now:     s.now,
	}, nil
}

// NewAppTokenCacheFromFile reads the private key from a PEM file at path
// and returns a cache signing assertions for issuer.
func NewAppTokenCacheFromFile(issuer, path string, opts ...Option) (*AppTokenCache, error) {
	key, err := ReadPrivateKey(path)
	if err != nil {
		return nil, err
	}
	return NewAppTokenCache(issuer, key, opts...)
}

// Token returns the current signed assertion, re-signing it first if
// none is cached or the cached one is past its renewal deadline. Within
// the renewal window the cached string is returned unchanged and the
// issue time is not touched.
//
// If signing fails the cache is cleared and the error wraps [ErrNoToken];
// callers never observe a stale token after a failed renewal.
func (c *AppTokenCache) Token() (string, error) {
	t, err := c.Current()
	return t.Token, err
}

// Current is like [AppTokenCache.Token] but returns the assertion with
// its issue metadata.
func (c *AppTokenCache) Current() (AppToken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.token == "" || now.After(c.payload.RenewalDeadline()) {
		// Backdate the issue time to compensate for clock skew between
		// this process and the verifier.
		c.payload.SetIssuedAt(now.Add(-c.drift))

		token, err := c.signer.Sign(defaultHeader(), c.payload)
		if err != nil {
			c.token = ""
			return AppToken{}, fmt.Errorf("%w: %w", ErrNoToken, err)
		}
		c.token = token
		slog.Debug("signed new app assertion",
			slog.String("issuer", c.payload.Issuer),
			slog.Time("expires_at", time.Unix(c.payload.ExpiresAt, 0)),
		)
	}

	return AppToken{
		Token:     c.token,
		Issuer:    c.payload.Issuer,
		IssuedAt:  time.Unix(c.payload.IssuedAt, 0),
		ExpiresAt: time.Unix(c.payload.ExpiresAt, 0),
	}, nil
}

// SetIssuer changes the issuer claim and invalidates the cached token,
// forcing regeneration on next access.
func (c *AppTokenCache) SetIssuer(issuer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.payload.Issuer != issuer {
		c.payload.Issuer = issuer
		c.token = ""
	}
}

// Invalidate drops the cached token so the next access re-signs.
func (c *AppTokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// IssuedAt reports the issue time of the cached token. Zero if no token
// was ever signed.
func (c *AppTokenCache) IssuedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == "" || c.payload.IssuedAt == 0 {
		return time.Time{}
	}
	return time.Unix(c.payload.IssuedAt, 0)
}
