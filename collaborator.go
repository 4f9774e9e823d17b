// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/olavodias/GitHubAuth/internal/api"
)

var (
	_ Collaborator = (*restCollaborator)(nil)
)

// Installation is a binding of the app to an account or organization.
type Installation struct {
	// Installation ID.
	ID uint64 `json:"id"`

	// Login of the account the app is installed on.
	Owner string `json:"owner,omitempty"`

	// Target type, "User" or "Organization".
	TargetType string `json:"target_type,omitempty"`

	// Time the installation was suspended, zero if active.
	SuspendedAt time.Time `json:"suspended_at,omitempty"`
}

// Collaborator performs the HTTP calls required to exchange a signed app
// assertion for installation credentials. The core performs no network
// I/O itself; request plumbing, retries and TLS are this collaborator's
// concern.
type Collaborator interface {
	// ListInstallations returns installations available to the app
	// identified by the bearer assertion. Non-2xx responses are hard
	// failures.
	ListInstallations(ctx context.Context, assertion string) ([]Installation, error)

	// ExchangeToken trades the bearer assertion for an access token
	// scoped to the given installation. Non-2xx responses fail with an
	// error wrapping [ErrExchangeFailed].
	ExchangeToken(ctx context.Context, assertion string, installationID uint64) (AccessToken, error)
}

// restCollaborator is the production [Collaborator] over the REST API.
type restCollaborator struct {
	next    http.RoundTripper
	baseURL *url.URL
	ua      string
}

// NewCollaborator returns a [Collaborator] backed by the REST API.
// Relevant options: [WithEndpoint], [WithRoundTripper], [WithUserAgent].
func NewCollaborator(opts ...Option) (Collaborator, error) {
	s := newSettings()
	if err := s.apply(opts); err != nil {
		return nil, fmt.Errorf("githubauth: invalid options: %w", err)
	}
	return &restCollaborator{
		next:    s.next,
		baseURL: s.endpoint,
		ua:      s.ua,
	}, nil
}

// do performs one authenticated API call and returns the response body.
// Callers own status handling beyond transport errors.
func (c *restCollaborator) do(ctx context.Context, method string, u *url.URL, assertion string) (*http.Response, []byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	r, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build request: %w", err)
	}

	r.Header.Set(api.AuthzHeader, api.AuthzHeaderValue(assertion))
	r.Header.Set(api.AcceptHeader, api.AcceptHeaderValue)
	r.Header.Set(api.VersionHeader, api.VersionHeaderValue)
	r.Header.Set(api.UAHeader, c.ua)

	client := http.Client{
		Timeout:   time.Minute,
		Transport: c.next,
	}

	resp, err := client.Do(r)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, data, nil
}

// apiErrorMessage extracts the API error message from an error response
// body if possible, falling back to the HTTP status.
func apiErrorMessage(resp *http.Response, data []byte) string {
	errResp := &api.ErrorResponse{}
	if err := json.Unmarshal(data, errResp); err == nil && errResp.Message != "" {
		return fmt.Sprintf("%s(%s)", errResp.Message, resp.Status)
	}
	return resp.Status
}

// ListInstallations implements [Collaborator].
//
// https://docs.github.com/en/rest/apps/apps?apiVersion=2022-11-28#list-installations-for-the-authenticated-app
func (c *restCollaborator) ListInstallations(ctx context.Context, assertion string) ([]Installation, error) {
	u := c.baseURL.JoinPath("app", "installations")
	resp, data, err := c.do(ctx, http.MethodGet, u, assertion)
	if err != nil {
		return nil, fmt.Errorf("githubauth(installations): %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("githubauth(installations): %s", apiErrorMessage(resp, data))
	}

	var wire []api.Installation
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("githubauth(installations): failed to unmarshal response: %w", err)
	}

	list := make([]Installation, 0, len(wire))
	for _, item := range wire {
		if item.ID == nil {
			continue
		}
		install := Installation{ID: uint64(*item.ID)}
		if item.Account != nil && item.Account.Login != nil {
			install.Owner = *item.Account.Login
		}
		if item.TargetType != nil {
			install.TargetType = *item.TargetType
		}
		if item.SuspendedAt != nil {
			install.SuspendedAt = item.SuspendedAt.Time
		}
		list = append(list, install)
	}
	return list, nil
}

// ExchangeToken implements [Collaborator].
//
// https://docs.github.com/en/rest/apps/apps?apiVersion=2022-11-28#create-an-installation-access-token-for-an-app
func (c *restCollaborator) ExchangeToken(ctx context.Context, assertion string, installationID uint64) (AccessToken, error) {
	u := c.baseURL.JoinPath(
		"app", "installations",
		strconv.FormatUint(installationID, 10),
		"access_tokens")

	resp, data, err := c.do(ctx, http.MethodPost, u, assertion)
	if err != nil {
		return AccessToken{}, fmt.Errorf("githubauth(token): %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return AccessToken{}, fmt.Errorf("%w: %s", ErrExchangeFailed, apiErrorMessage(resp, data))
	}

	wire := api.AccessTokenResponse{}
	if err := json.Unmarshal(data, &wire); err != nil {
		return AccessToken{}, fmt.Errorf("githubauth(token): failed to unmarshal response: %w", err)
	}

	token := AccessToken{
		Token:               wire.Token,
		InstallationID:      installationID,
		Permissions:         wire.Permissions,
		RepositorySelection: wire.RepositorySelection,
	}
	if wire.Exp != nil {
		token.ExpiresAt = wire.Exp.Time
	}
	return token, nil
}
