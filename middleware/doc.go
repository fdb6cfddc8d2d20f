// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP plumbing shared by the questionnaire
handlers.

  - WithLogging: request/completion logging via slog
  - JSONResponse / ErrorResponse: JSON encoding helpers
  - ParseJSONBody: request body decoding
  - CORS: cross-origin headers for the browser-hosted flow, including
    preflight handling
  - GetClientIP: client address extraction behind proxies, used for the
    session audit column
*/
package middleware
