// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines the HTTP routes for the mock questionnaire server
using Go 1.22+ method patterns.

	mux := router.NewRouter(db, cfg, def)

Routes:

	GET  /health                   -> liveness probe
	GET  /questionnaire/passcodes  -> demo passcodes
	POST /questionnaire/validate   -> passcode validation
	POST /questionnaire/start      -> session start
	POST /questionnaire/save       -> progress autosave
	POST /questionnaire/submit     -> final submission
	GET  /                         -> version banner

CORS is applied around the whole mux in main, not per route.
*/
package router
