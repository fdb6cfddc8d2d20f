// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the qnflow mock questionnaire
server.

qnflow is a passcode-gated mobile-web questionnaire flow: respondents enter
an access code, identify themselves, answer a randomized set of single-choice
questions with conditional branching, and submit. This binary serves the
backing API; the client-side flow engine lives in the flow package and its
collaborators (shuffle, store, api).

# Starting the Server

	IDENTITY_SALT=secret go run .

Or with flags:

	go run . -p 3320 -identity-salt secret -q questionnaire.yaml

# Configuration

Required settings:

  - IDENTITY_SALT (-identity-salt): secret for identity hashing

Optional settings:

  - PORT (-p): server port (default: 3320)
  - DATABASE_URL (-d): sqlite file path or postgres connection string
  - DATABASE_TYPE (-t): sqlite (default) or postgres
  - QUESTIONNAIRE_FILE (-q): definition YAML (default: built-in demo set)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers for the questionnaire flow
  - router: route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: domain and wire types
  - auth: id generation and identity hashing
  - db: schema creation
  - qdata: questionnaire definition loading
  - cliparse: configuration parsing

Client-side packages:

  - flow: the questionnaire flow engine (state machine)
  - shuffle: deterministic per-respondent question ordering
  - store: local snapshot persistence
  - api: HTTP client for this server's endpoints

See package documentation for each component.
*/
package main
