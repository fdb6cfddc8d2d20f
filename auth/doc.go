// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides random id generation and identity hashing for the mock
questionnaire server.

	id, err := auth.GenerateID(16)
	digest := auth.HashIdentity(phone, idCard, salt)

HashIdentity keys the already-answered check: the server stores only the
salted HMAC of the respondent's phone and id-card number, never the raw
values. HashIP does the same for the audit IP column.
*/
package auth
