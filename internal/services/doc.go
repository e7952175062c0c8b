// Package services provides the shared error taxonomy and context annotation
// helpers used across pipeline components.
//
// Errors are tagged with sentinel markers via Wrap so the orchestrator can
// classify failures (transient vs permanent, tool vs ledger) without string
// matching. Context helpers thread run and item identity into structured
// logs.
package services
