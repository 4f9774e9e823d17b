// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

var (
	_ error = Error("")
)

// Error is immutable error representation.
//
// Error strings themselves are NOT part of semver compatibility guarantees.
// Use exported symbols instead of directly using error strings.
type Error string

// Implements Error() interface.
func (e Error) Error() string {
	return string(e)
}

// Errors returned by this package. Match with [errors.Is].
const (
	// ErrKeyFileNotFound indicates the configured private key file does
	// not exist. This is fatal and never retried.
	ErrKeyFileNotFound = Error("githubauth: private key file not found")

	// ErrInvalidKeyMaterial indicates the key file contains no PEM block
	// whose trailer ends in "PRIVATE KEY", or its contents cannot be used
	// as an RSA private key.
	ErrInvalidKeyMaterial = Error("githubauth: invalid key material")

	// ErrNoToken indicates an app JWT was requested but signing failed
	// and no cached token is available.
	ErrNoToken = Error("githubauth: no app token available")

	// ErrUnknownInstallation indicates the installation id is not known
	// to the app, even after refreshing the installation set.
	ErrUnknownInstallation = Error("githubauth: unknown installation")

	// ErrExchangeFailed indicates the access token endpoint responded
	// with a non-success status.
	ErrExchangeFailed = Error("githubauth: token exchange failed")

	// ErrCollaboratorNotConfigured indicates no HTTP collaborator was
	// supplied to perform API calls.
	ErrCollaboratorNotConfigured = Error("githubauth: api collaborator not configured")
)
