package ledger_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"gamesync/internal/ledger"
)

func openStore(t *testing.T) *ledger.Store {
	t.Helper()
	store, err := ledger.OpenPath(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestRecordAndContains(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	found, err := store.Contains(ctx, "abc123")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if found {
		t.Fatal("empty ledger reported fingerprint as present")
	}

	entry := ledger.Entry{
		Fingerprint:   "abc123",
		Platform:      "steam",
		SourcePath:    "/captures/12345_20240301120000_1.jpg",
		RemoteAssetID: "asset-1",
		UploadedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record: %v", err)
	}

	found, err = store.Contains(ctx, "abc123")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !found {
		t.Fatal("recorded fingerprint not found")
	}
}

func TestRecordIdempotent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	entry := ledger.Entry{Fingerprint: "dupe", Platform: "ps5", SourcePath: "/a.jpg"}
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("first Record: %v", err)
	}
	entry.SourcePath = "/b.jpg"
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("second Record: %v", err)
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row after duplicate record, got %d", count)
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if entries[0].SourcePath != "/a.jpg" {
		t.Fatalf("duplicate record overwrote original row: %q", entries[0].SourcePath)
	}
}

func TestRecordRejectsEmptyFingerprint(t *testing.T) {
	store := openStore(t)
	if err := store.Record(context.Background(), ledger.Entry{Platform: "steam"}); err == nil {
		t.Fatal("expected error for empty fingerprint")
	}
}

func TestEntriesOrderedNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	older := ledger.Entry{
		Fingerprint: "old",
		Platform:    "switch2",
		SourcePath:  "/old.jpg",
		UploadedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := ledger.Entry{
		Fingerprint: "new",
		Platform:    "steam",
		SourcePath:  "/new.mp4",
		UploadedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.Record(ctx, older); err != nil {
		t.Fatalf("Record older: %v", err)
	}
	if err := store.Record(ctx, newer); err != nil {
		t.Fatalf("Record newer: %v", err)
	}

	entries, err := store.Entries(ctx)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Fingerprint != "new" || entries[1].Fingerprint != "old" {
		t.Fatalf("unexpected order: %s, %s", entries[0].Fingerprint, entries[1].Fingerprint)
	}
	if !entries[0].UploadedAt.Equal(newer.UploadedAt) {
		t.Fatalf("uploaded_at round trip mismatch: %v", entries[0].UploadedAt)
	}
}

func TestCountByPlatform(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, entry := range []ledger.Entry{
		{Fingerprint: "a", Platform: "steam", SourcePath: "/a"},
		{Fingerprint: "b", Platform: "steam", SourcePath: "/b"},
		{Fingerprint: "c", Platform: "ps5", SourcePath: "/c"},
	} {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record %s: %v", entry.Fingerprint, err)
		}
	}

	counts, err := store.CountByPlatform(ctx)
	if err != nil {
		t.Fatalf("CountByPlatform: %v", err)
	}
	if counts["steam"] != 2 || counts["ps5"] != 1 {
		t.Fatalf("unexpected counts: %#v", counts)
	}
}

func TestClear(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, ledger.Entry{Fingerprint: "x", Platform: "steam", SourcePath: "/x"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	removed, err := store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed row, got %d", removed)
	}
	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty ledger after clear, got %d rows", count)
	}
}

func TestReopenPersists(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	store, err := ledger.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.Record(ctx, ledger.Entry{Fingerprint: "persist", Platform: "ps5", SourcePath: "/p"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := ledger.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	found, err := reopened.Contains(ctx, "persist")
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !found {
		t.Fatal("fingerprint lost across reopen")
	}
}
