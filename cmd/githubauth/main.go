// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

// Command githubauth issues GitHub App credentials from the command
// line: signed app JWTs, installation listings and installation access
// tokens. Tokens are written to stdout, diagnostics to stderr.
package main

import (
	"os"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
