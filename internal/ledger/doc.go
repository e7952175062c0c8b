// Package ledger persists the set of fingerprints that have been confirmed
// uploaded, so subsequent runs skip work that already completed.
package ledger
