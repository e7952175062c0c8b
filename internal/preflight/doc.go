// Package preflight provides readiness checks for the directories, binaries,
// and remote server a sync run depends on.
//
// The sync commands call RunAll before scanning so a misconfigured library
// path or unreachable Immich server fails fast instead of after minutes of
// hashing and tagging. The "gamesync deps" command reuses CheckSystemDeps to
// display binary availability on its own.
//
// Checks are gated by configuration: the Immich check only runs when uploads
// are enabled, and the library directory is only checked when one is set.
package preflight
