// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

package githubauth

import (
	"bufio"
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// privateKeyTrailer is the suffix a PEM delimiter comment must end with
// for its block to be treated as key material.
const privateKeyTrailer = "PRIVATE KEY"

// pemDelimiterDashes is the dash run length that toggles the scanner
// between delimiter and body state.
const pemDelimiterDashes = 5

// ReadPrivateKey reads a PEM formatted file and returns the RSA private
// key contained in its last "PRIVATE KEY" block. Blocks with other
// trailers, like certificates bundled in the same file, are skipped.
//
// Returns [ErrKeyFileNotFound] if the file does not exist and
// [ErrInvalidKeyMaterial] if no qualifying block is found or the block
// does not decode to an RSA private key.
func ReadPrivateKey(path string) (*rsa.PrivateKey, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyFileNotFound, path)
		}
		return nil, fmt.Errorf("githubauth(pem): failed to open key file: %w", err)
	}
	defer file.Close()

	der, err := readKeyMaterial(file)
	if err != nil {
		return nil, err
	}
	return parseRSAPrivateKey(der)
}

// readKeyMaterial scans r with a two state machine. Every run of exactly
// five consecutive dashes toggles between body state and delimiter state.
// Delimiter text accumulates into a comment buffer, body text into a key
// buffer, whitespace is skipped in both. Closing a delimiter whose
// comment does not end in "PRIVATE KEY" discards the key accumulated so
// far, so certificate blocks preceding the key are rejected.
//
// Returns the base64 decoded bytes of the key block, or
// [ErrInvalidKeyMaterial] if the stream never closes a delimiter with a
// "PRIVATE KEY" trailer.
func readKeyMaterial(r io.Reader) ([]byte, error) {
	var (
		comment         bytes.Buffer
		key             bytes.Buffer
		dashes          int
		insideDelimiter bool
		haveKeyTrailer  bool
	)

	// toggle is invoked at the end of each run of exactly five dashes.
	toggle := func() {
		insideDelimiter = !insideDelimiter
		if insideDelimiter {
			return
		}

		// Delimiter just closed, decide fate of the key buffer.
		if strings.HasSuffix(comment.String(), privateKeyTrailer) {
			haveKeyTrailer = true
		} else {
			haveKeyTrailer = false
			key.Reset()
		}
		comment.Reset()
	}

	br := bufio.NewReader(r)
	for {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("githubauth(pem): failed to read key file: %w", err)
		}

		if c == '-' {
			dashes++
			if dashes == pemDelimiterDashes {
				toggle()
				dashes = 0
			}
			continue
		}
		dashes = 0

		switch c {
		case '\n', '\r', '\t':
			continue
		case ' ':
			// Spaces are part of delimiter comments ("BEGIN RSA PRIVATE
			// KEY") but never of base64 body text.
			if !insideDelimiter {
				continue
			}
		}

		if insideDelimiter {
			comment.WriteByte(c)
		} else {
			key.WriteByte(c)
		}
	}

	if !haveKeyTrailer || key.Len() == 0 {
		return nil, fmt.Errorf("%w: no PRIVATE KEY block found", ErrInvalidKeyMaterial)
	}

	der, err := base64.StdEncoding.DecodeString(key.String())
	if err != nil {
		return nil, fmt.Errorf("%w: malformed key block: %w", ErrInvalidKeyMaterial, err)
	}
	return der, nil
}

// parseRSAPrivateKey interprets DER bytes as an RSA private key in either
// PKCS#1 or PKCS#8 form. Only RSA keys are supported.
func parseRSAPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: not a PKCS#1 or PKCS#8 private key: %w",
			ErrInvalidKeyMaterial, err)
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported key type: %T", ErrInvalidKeyMaterial, parsed)
	}
	return key, nil
}
