// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	_ slog.LogValuer = (*AccessToken)(nil)
)

// AccessToken is an installation access token obtained by exchanging the
// app assertion. Typically starts with "ghs_".
type AccessToken struct {
	// Access token.
	Token string `json:"token"`

	// Installation the token is scoped to.
	InstallationID uint64 `json:"installation_id,omitempty"`

	// Token expiry time.
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	// Permissions available to the token.
	Permissions map[string]string `json:"permissions,omitempty"`

	// Repository selection, "all" or "selected".
	RepositorySelection string `json:"repository_selection,omitempty"`
}

// LogValue implements [log/slog.LogValuer].
func (t *AccessToken) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Uint64("installation_id", t.InstallationID),
		slog.Time("expires_at", t.ExpiresAt),
		slog.Any("permissions", t.Permissions),
		slog.String("repository_selection", t.RepositorySelection),
		slog.String("token", "REDACTED"),
	)
}

// IsValid checks if [AccessToken] is valid for at least the staleness
// window w. A non-positive w falls back to [DefaultRenewalMargin].
func (t *AccessToken) IsValid(w time.Duration) bool {
	if w <= 0 {
		w = DefaultRenewalMargin
	}
	return t.Token != "" && t.ExpiresAt.After(time.Now().Add(w))
}

// InstallationTokenStore maps installation ids to access tokens and
// refreshes each entry via the collaborator as it nears expiry.
//
// A single lock guards the token map and the installation set, so the
// store performs at most one exchange at a time across all installations.
// Concurrent requests for different installations may block each other
// but never corrupt the map or double-refresh the same id.
type InstallationTokenStore struct {
	mu     sync.Mutex
	cache  *AppTokenCache
	collab Collaborator
	tokens map[uint64]AccessToken
	known  map[uint64]Installation

	staleWindow time.Duration
	now         func() time.Time
}

// NewInstallationTokenStore returns a store issuing access tokens signed
// by cache and exchanged through collab. Relevant options:
// [WithRenewalMargin].
func NewInstallationTokenStore(cache *AppTokenCache, collab Collaborator, opts ...Option) (*InstallationTokenStore, error) {
	if cache == nil {
		return nil, fmt.Errorf("githubauth: app token cache cannot be nil")
	}

	s := newSettings()
	if err := s.apply(opts); err != nil {
		return nil, fmt.Errorf("githubauth: invalid options: %w", err)
	}

	return &InstallationTokenStore{
		cache:       cache,
		collab:      collab,
		tokens:      make(map[uint64]AccessToken),
		known:       make(map[uint64]Installation),
		staleWindow: s.staleWindow,
		now:         s.now,
	}, nil
}

// TokenFor returns an access token for the given installation, reusing
// the cached one when it is more than the staleness window away from
// expiry and exchanging a fresh one otherwise.
//
// Ids not in the known installation set trigger one refresh of the set;
// ids still absent fail with [ErrUnknownInstallation] and no exchange is
// attempted. A failed exchange surfaces immediately and leaves any
// previously cached entry untouched.
func (s *InstallationTokenStore) TokenFor(ctx context.Context, installationID uint64) (AccessToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collab == nil {
		return AccessToken{}, ErrCollaboratorNotConfigured
	}

	now := s.now()
	if token, ok := s.tokens[installationID]; ok && token.ExpiresAt.After(now.Add(s.staleWindow)) {
		return token, nil
	}

	if _, ok := s.known[installationID]; !ok {
		if err := s.refreshInstallations(ctx); err != nil {
			return AccessToken{}, err
		}
		if _, ok := s.known[installationID]; !ok {
			return AccessToken{}, fmt.Errorf("%w: %d", ErrUnknownInstallation, installationID)
		}
	}

	assertion, err := s.cache.Token()
	if err != nil {
		return AccessToken{}, err
	}

	token, err := s.collab.ExchangeToken(ctx, assertion, installationID)
	if err != nil {
		return AccessToken{}, err
	}

	s.tokens[installationID] = token
	slog.Debug("refreshed installation access token", slog.Any("token", &token))
	return token, nil
}

// Installations returns the installations known to the store, refreshing
// the set from the API when it was never fetched.
func (s *InstallationTokenStore) Installations(ctx context.Context) ([]Installation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collab == nil {
		return nil, ErrCollaboratorNotConfigured
	}

	if len(s.known) == 0 {
		if err := s.refreshInstallations(ctx); err != nil {
			return nil, err
		}
	}

	list := make([]Installation, 0, len(s.known))
	for _, item := range s.known {
		list = append(list, item)
	}
	return list, nil
}

// refreshInstallations replaces the installation set from the API.
// Callers must hold s.mu.
func (s *InstallationTokenStore) refreshInstallations(ctx context.Context) error {
	assertion, err := s.cache.Token()
	if err != nil {
		return err
	}

	list, err := s.collab.ListInstallations(ctx, assertion)
	if err != nil {
		return err
	}

	known := make(map[uint64]Installation, len(list))
	for _, item := range list {
		known[item.ID] = item
	}
	s.known = known
	return nil
}
