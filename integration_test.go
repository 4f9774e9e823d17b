// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	githubauth "github.com/olavodias/GitHubAuth"
	"github.com/olavodias/GitHubAuth/internal/api"
	"github.com/olavodias/GitHubAuth/internal/testkeys"
)

// TestLifecycle drives the whole credential lifecycle against an
// in-process API server: PEM file on disk, signed app assertion,
// installation set refresh, token exchange and cache reuse.
func TestLifecycle(t *testing.T) {
	var listCalls, exchangeCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("GET /app/installations", func(w http.ResponseWriter, r *http.Request) {
		listCalls.Add(1)
		if !strings.HasPrefix(r.Header.Get(api.AuthzHeader), "Bearer ey") {
			t.Errorf("expected a bearer JWT, got %q", r.Header.Get(api.AuthzHeader))
		}
		w.Header().Set(api.ContentTypeHeader, api.ContentTypeJSON)
		fmt.Fprint(w, `[{"id": 42, "account": {"login": "octocat"}}]`)
	})
	mux.HandleFunc("POST /app/installations/42/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		exchangeCalls.Add(1)
		if !strings.HasPrefix(r.Header.Get(api.AuthzHeader), "Bearer ey") {
			t.Errorf("expected a bearer JWT, got %q", r.Header.Get(api.AuthzHeader))
		}
		w.Header().Set(api.ContentTypeHeader, api.ContentTypeJSON)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token": "ghs_lifecycle", "expires_at": %q}`,
			time.Now().Add(time.Hour).UTC().Format(time.RFC3339))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	keyPath := filepath.Join(t.TempDir(), "sample_key.pem")
	if err := os.WriteFile(keyPath, testkeys.RSAPKCS1PEM(testkeys.RSA2048()), 0o600); err != nil {
		t.Fatalf("failed to write key fixture: %s", err)
	}

	cache, err := githubauth.NewAppTokenCacheFromFile("123456", keyPath)
	if err != nil {
		t.Fatalf("failed to build app token cache: %s", err)
	}

	collab, err := githubauth.NewCollaborator(githubauth.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("failed to build collaborator: %s", err)
	}

	store, err := githubauth.NewInstallationTokenStore(cache, collab)
	if err != nil {
		t.Fatalf("failed to build store: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	token, err := store.TokenFor(ctx, 42)
	if err != nil {
		t.Fatalf("failed to get installation token: %s", err)
	}
	if token.Token != "ghs_lifecycle" {
		t.Errorf("unexpected token: %q", token.Token)
	}

	// Second lookup is served entirely from the store.
	if _, err := store.TokenFor(ctx, 42); err != nil {
		t.Fatalf("failed to get installation token: %s", err)
	}
	if listCalls.Load() != 1 || exchangeCalls.Load() != 1 {
		t.Errorf("expected one list and one exchange call, got list=%d exchange=%d",
			listCalls.Load(), exchangeCalls.Load())
	}

	// Unknown ids re-check the installation set before failing.
	if _, err := store.TokenFor(ctx, 7); err == nil {
		t.Errorf("expected failure for unknown installation")
	}
	if exchangeCalls.Load() != 1 {
		t.Errorf("unknown installation must not reach the exchange endpoint")
	}
}
