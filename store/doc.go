// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the local persistence adapter: a single-key snapshot store
backed by a sqlite file on the device.

	st := store.Open("qnflow-local.db", logger)
	defer st.Close()

	st.Save(snapshot)
	snap, ok := st.Load()
	st.Remove()

None of the operations return errors. Storage being absent, full, or corrupt
must never take down a respondent session, so every failure degrades to a
no-op or empty result and is reported through the injected slog logger
instead. The worst outcome of a broken store is losing progress on reload.
*/
package store
