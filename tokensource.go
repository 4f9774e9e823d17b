// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"context"

	"golang.org/x/oauth2"
)

var (
	_ oauth2.TokenSource = (*appTokenSource)(nil)
	_ oauth2.TokenSource = (*installationTokenSource)(nil)
)

// TokenSource returns an [oauth2.TokenSource] yielding signed app
// assertions. Renewal is handled by the cache itself, so the source
// needs no additional reuse wrapper.
func (c *AppTokenCache) TokenSource() oauth2.TokenSource {
	return &appTokenSource{cache: c}
}

type appTokenSource struct {
	cache *AppTokenCache
}

// Token implements [oauth2.TokenSource].
func (s *appTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.cache.Current()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: t.Token,
		TokenType:   "Bearer",
		Expiry:      t.ExpiresAt,
	}, nil
}

// TokenSource returns an [oauth2.TokenSource] yielding access tokens for
// the given installation.
func (s *InstallationTokenStore) TokenSource(installationID uint64) oauth2.TokenSource {
	return &installationTokenSource{store: s, installationID: installationID}
}

type installationTokenSource struct {
	store          *InstallationTokenStore
	installationID uint64
}

// Token implements [oauth2.TokenSource].
func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.store.TokenFor(context.Background(), s.installationID)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken: t.Token,
		TokenType:   "Bearer",
		Expiry:      t.ExpiresAt,
	}, nil
}
