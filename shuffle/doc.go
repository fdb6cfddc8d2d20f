// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package shuffle derives a reproducible per-respondent question order.

The order is a Fisher-Yates permutation driven by a linear-congruential
generator seeded from an identity string (phone number or session id):

	order := shuffle.QuestionIDs(questions, identityKey)

Both functions are pure. Equal seeds always produce equal orders, which is
what lets a respondent resume a session after a reload without the question
order changing underneath them.
*/
package shuffle
