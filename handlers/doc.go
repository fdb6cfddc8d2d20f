// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains the HTTP handlers of the mock questionnaire server.

# Handler Type

One handler struct serves the whole questionnaire surface, created with its
database, config, and questionnaire definition:

	h := handlers.NewQuestionnaireHandler(db, cfg, def)

# Respondent Flow

	GET  /questionnaire/passcodes -> Passcodes (demo codes)
	POST /questionnaire/validate  -> Validate  (passcode -> meta)
	POST /questionnaire/start     -> Start     (identity -> session)
	POST /questionnaire/save      -> Save      (autosaved progress)
	POST /questionnaire/submit    -> Submit    (final answers, once)

Start enforces the one-submission rule: an identity hash that already has a
submission receives alreadyAnswered and cannot proceed. An identity with an
open session is handed the same session id back without the question
payload - only a first start carries meta and questions.

Identity and IP are stored only as salted HMAC digests (see package auth).
*/
package handlers
