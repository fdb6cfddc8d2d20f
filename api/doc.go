// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package api is the remote sync client for the questionnaire API.

	client := api.New("http://localhost:3320")
	resp, err := client.ValidatePasscode(ctx, "DEMO-2025")

One method per endpoint:

	GET  /questionnaire/passcodes  -> Passcodes
	POST /questionnaire/validate   -> ValidatePasscode
	POST /questionnaire/start      -> StartSession
	POST /questionnaire/save       -> SaveProgress
	POST /questionnaire/submit     -> SubmitAnswers

Every call takes a context and returns the decoded response plus an error.
Non-2xx responses become *StatusError with the server's message; transport
and decode failures are wrapped errors. Errors never cross the flow engine
boundary raw - the engine converts them to structured results.
*/
package api
