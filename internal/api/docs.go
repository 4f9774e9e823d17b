// SPDX-FileCopyrightText: Copyright 2024 Olavo Dias
// SPDX-License-Identifier: MIT

// Package api holds types and methods to serialize and deserialize
// requests to and from the GitHub REST API.
//
// Types are just enough for the app endpoints required by this library
// to work and should be considered incomplete.
package api
