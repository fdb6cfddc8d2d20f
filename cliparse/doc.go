// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse parses server configuration from CLI flags with environment
variable fallbacks.

Flags:

  - -p: server port (env PORT, default 3320)
  - -d: database URL or sqlite file path (env DATABASE_URL,
    default qnflow.db for sqlite)
  - -t: database type, sqlite or postgres (env DATABASE_TYPE, default sqlite)
  - -q: questionnaire definition YAML file (env QUESTIONNAIRE_FILE,
    empty = built-in demo set)
  - -identity-salt: identity hash salt (env IDENTITY_SALT, required)

CLI flags take precedence over environment variables. The identity salt has
no default: repeat-respondent detection depends on it being stable and
secret.
*/
package cliparse
