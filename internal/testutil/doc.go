// Package testutil provides shared test helpers and fixtures for kcwrap.
//
// Philosophy:
// - Prefer real stores (files in t.TempDir) over mocks where it is cheap.
// - Fake only the edges: child processes, the terminal, the clock.
// - Register cleanup via t.Cleanup so tests stay leak-free.
//
// A typical guard test starts with:
//
//	exec := testutil.NewMockExecutor()
//	exec.SetOutput("kubectl", []byte("prod-eu-1\n"), nil)
//	clock := testutil.NewClock(testutil.T0)
package testutil
