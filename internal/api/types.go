// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package api

// User represents a GitHub user. This is incomplete!
type User struct {
	Login *string `json:"login,omitempty"`
	ID    *int64  `json:"id,omitempty"`
}

// Installation represents a GitHub Apps installation.
//
// https://docs.github.com/en/rest/apps/apps?apiVersion=2022-11-28#list-installations-for-the-authenticated-app
type Installation struct {
	ID          *int64     `json:"id,omitempty"`
	AppID       *int64     `json:"app_id,omitempty"`
	AppSlug     *string    `json:"app_slug,omitempty"`
	TargetType  *string    `json:"target_type,omitempty"`
	Account     *User      `json:"account,omitempty"`
	SuspendedAt *Timestamp `json:"suspended_at,omitempty"`
}

// AccessTokenResponse is returned by the installation access token
// endpoint.
//
// https://docs.github.com/en/rest/apps/apps?apiVersion=2022-11-28#create-an-installation-access-token-for-an-app
type AccessTokenResponse struct {
	Token               string            `json:"token,omitempty"`
	Exp                 *Timestamp        `json:"expires_at,omitempty"`
	Permissions         map[string]string `json:"permissions,omitempty"`
	RepositorySelection string            `json:"repository_selection,omitempty"`
}

// ErrorResponse is the error body returned by the API. Not all endpoints
// populate it consistently.
type ErrorResponse struct {
	Message          string `json:"message,omitempty"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}
