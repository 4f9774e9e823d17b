// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package testkeys_test

import (
	"bytes"
	"testing"

	"github.com/olavodias/GitHubAuth/internal/testkeys"
)

func TestKeys(t *testing.T) {
	t.Run("RSA-1024", func(t *testing.T) {
		key := testkeys.RSA1024()
		if key.PublicKey.N.BitLen() != 1024 {
			t.Errorf("expected rsa key size 1024, got %d", key.PublicKey.N.BitLen())
		}
	})

	t.Run("RSA-2048", func(t *testing.T) {
		key := testkeys.RSA2048()
		if key.PublicKey.N.BitLen() != 2048 {
			t.Errorf("expected rsa key size 2048, got %d", key.PublicKey.N.BitLen())
		}
	})

	t.Run("EC-P256", func(t *testing.T) {
		key := testkeys.ECP256()
		if key.Curve.Params().BitSize != 256 {
			t.Errorf("expected ecdsa key size 256, got %d", key.Curve.Params().BitSize)
		}
	})
}

func TestPEMFixtures(t *testing.T) {
	t.Run("PKCS1", func(t *testing.T) {
		data := testkeys.RSAPKCS1PEM(testkeys.RSA2048())
		if !bytes.Contains(data, []byte("BEGIN RSA PRIVATE KEY")) {
			t.Errorf("expected RSA PRIVATE KEY block:\n%s", data)
		}
	})

	t.Run("PKCS8", func(t *testing.T) {
		data := testkeys.RSAPKCS8PEM(testkeys.RSA2048())
		if !bytes.Contains(data, []byte("BEGIN PRIVATE KEY")) {
			t.Errorf("expected PRIVATE KEY block:\n%s", data)
		}
	})

	t.Run("PKCS8-EC", func(t *testing.T) {
		data := testkeys.ECPKCS8PEM(testkeys.ECP256())
		if !bytes.Contains(data, []byte("BEGIN PRIVATE KEY")) {
			t.Errorf("expected PRIVATE KEY block:\n%s", data)
		}
	})
}
