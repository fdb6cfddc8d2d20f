// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db creates the schema for the mock questionnaire server.

Three tables back the session lifecycle:

  - qn_session: one row per respondent session, keyed by the server-issued
    session id, with the salted identity hash for repeat detection
  - qn_progress: the latest autosaved answers and position per session
  - qn_submission: the final answers, at most one per session

Questionnaire definitions themselves are not stored here; they come from
package qdata and live in memory for the life of the process.

CreateSchema is idempotent and works against both sqlite and postgres.
*/
package db
