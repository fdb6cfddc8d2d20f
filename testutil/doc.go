// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package testutil provides shared test helpers.

Server-side helpers: SetupTestDB (in-memory sqlite with the full schema),
GetTestConfig, DemoDefinition, CreateTestSession, CreateTestSubmission, plus
the MakeRequest / AssertStatus / AssertJSON trio for handler tests.

Client-side fakes for flow engine tests: MemStore (in-memory snapshot store)
and StubRemote (scriptable remote client with call counters).
*/
package testutil
