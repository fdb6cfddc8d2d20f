// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package flow implements the questionnaire flow engine: the state machine
that owns one respondent session from passcode entry to submission.

# Lifecycle

	Idle -> Validated -> SessionActive -> Completed

ValidatePasscode moves Idle to Validated when the code is accepted and the
questionnaire is active. StartSession moves Validated to SessionActive,
computing the per-respondent question order from the identity key (phone
number, falling back to the session id). Submit moves to Completed and
purges the local snapshot. Reset returns to Idle from anywhere; it is the
only backward transition.

# Construction

The engine is built explicitly with its collaborators injected; there is no
package-level state:

	engine := flow.New(api.New(baseURL), store.Open(path, logger), logger)

# Navigation and Branching

GoNext resolves the jump rules of the current question against the answer
just recorded. Precedence is fixed: an end rule wins over an explicit target,
which wins over linear advance; a dangling target degrades to linear
advance. The END sentinel lands on the last slide rather than past the end,
so the respondent always sees the final question before submitting.

# Failure Model

User-level operations return Result values, never errors. Autosave
(SaveRemote) and local persistence swallow failures with a warning log;
submission failures are retryable. SaveRemote and Submit are single-flight:
a call while one is in progress is a no-op (save) or an immediate 会话无效
failure (submit), never queued.
*/
package flow
