// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

var (
	_ slog.LogValuer  = (*AppToken)(nil)
	_ assertionSigner = (*rs256Signer)(nil)
)

// Default timing constants for app assertions. These match the maximum
// token lifetime accepted by the GitHub API; override them only when
// targeting an endpoint with different limits.
const (
	// DefaultTokenLifetime is how long a signed assertion stays valid
	// after its issue time.
	DefaultTokenLifetime = 10 * time.Minute

	// DefaultRenewalMargin is how long before expiry a cached credential
	// is treated as stale and regenerated.
	DefaultRenewalMargin = 2 * time.Minute

	// DefaultClockDrift is how far issue times are backdated to tolerate
	// clock skew between issuer and verifier.
	DefaultClockDrift = time.Minute
)

// Header is the fixed JWT header of an app assertion.
type Header struct {
	Type      string `json:"typ"`
	Algorithm string `json:"alg"`
}

// defaultHeader returns the only header this package ever signs.
// Non-RSA algorithms are not supported.
func defaultHeader() Header {
	return Header{Type: "JWT", Algorithm: "RS256"}
}

// Payload carries the claims of an app assertion.
//
// Expiry is always derived from the issue time, the two are never set
// independently. Use [Payload.SetIssuedAt] to move the issue time; it
// recomputes both the expiry and the renewal deadline.
type Payload struct {
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
	Issuer    string `json:"iss"`
	Algorithm string `json:"alg"`

	lifetime time.Duration
	margin   time.Duration
	renewAt  time.Time
}

// NewPayload returns a payload for issuer with the given token lifetime
// and renewal margin. The issue time is unset until [Payload.SetIssuedAt]
// is called.
func NewPayload(issuer string, lifetime, margin time.Duration) *Payload {
	if lifetime <= 0 {
		lifetime = DefaultTokenLifetime
	}
	if margin <= 0 {
		margin = DefaultRenewalMargin
	}
	return &Payload{
		Issuer:    issuer,
		Algorithm: "RS256",
		lifetime:  lifetime,
		margin:    margin,
	}
}

// SetIssuedAt sets the issue time and recomputes the expiry and renewal
// deadline. Timestamps are truncated to whole seconds as the API rejects
// fractional values.
func (p *Payload) SetIssuedAt(t time.Time) {
	t = t.Truncate(time.Second)
	p.IssuedAt = t.Unix()
	exp := t.Add(p.lifetime)
	p.ExpiresAt = exp.Unix()

	// A lifetime within the renewal margin would make every token stale
	// on arrival, so the deadline collapses to the expiry itself.
	if p.lifetime <= p.margin {
		p.renewAt = exp
	} else {
		p.renewAt = exp.Add(-p.margin)
	}
}

// RenewalDeadline reports the time past which a token signed over this
// payload must be regenerated. Zero if the issue time was never set.
func (p *Payload) RenewalDeadline() time.Time {
	return p.renewAt
}

// AppToken is a signed app assertion with its issue metadata.
type AppToken struct {
	// Signed three-segment JWT.
	Token string `json:"token"`

	// Issuer (app id) the token was signed for.
	Issuer string `json:"issuer,omitempty"`

	// Token expiry time.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Token issue time.
	IssuedAt time.Time `json:"issued_at,omitempty"`
}

// LogValue implements [log/slog.LogValuer].
func (t AppToken) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("issuer", t.Issuer),
		slog.Time("expires_at", t.ExpiresAt),
		slog.Time("issued_at", t.IssuedAt),
		slog.String("token", "REDACTED"),
	)
}

// assertionSigner signs app assertions.
type assertionSigner interface {
	Sign(header Header, payload *Payload) (string, error)
}

// rs256Signer signs assertions with RSA-SHA256 PKCS#1v1.5. The key is
// immutable after construction and safe for concurrent use.
type rs256Signer struct {
	key *rsa.PrivateKey
}

// newRS256Signer validates the key and returns a signer. RSA keys smaller
// than 2048 bits are rejected.
func newRS256Signer(key *rsa.PrivateKey) (*rs256Signer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: no key provided", ErrInvalidKeyMaterial)
	}
	if key.N.BitLen() < 2048 {
		return nil, fmt.Errorf("%w: rsa key size(%d) < 2048 bits",
			ErrInvalidKeyMaterial, key.N.BitLen())
	}
	return &rs256Signer{key: key}, nil
}

// Sign serializes header and payload to JSON, base64url encodes each,
// joins them with '.', signs the joined bytes with RSA-SHA256 and appends
// the base64url encoded signature. Output is deterministic for fixed
// inputs.
func (s *rs256Signer) Sign(header Header, payload *Payload) (string, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 1024))
	encoder := base64.NewEncoder(base64.RawURLEncoding, buf)

	h, err := json.Marshal(header)
	if err != nil {
		return "", fmt.Errorf("githubauth(jwt): failed to encode header: %w", err)
	}
	_, _ = encoder.Write(h)
	_ = encoder.Close()

	_ = buf.WriteByte('.')

	p, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("githubauth(jwt): failed to encode payload: %w", err)
	}
	_, _ = encoder.Write(p)
	_ = encoder.Close()

	// Signature covers the UTF-8 bytes of "header.payload".
	hasher := sha256.New()
	_, _ = hasher.Write(buf.Bytes())

	signature, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, hasher.Sum(nil))
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign assertion: %w", ErrInvalidKeyMaterial, err)
	}

	_ = buf.WriteByte('.')
	_, _ = encoder.Write(signature)
	_ = encoder.Close()

	return buf.String(), nil
}
