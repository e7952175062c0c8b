package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"gamesync/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckImmich_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/server/ping" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("x-api-key") != "good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	result := CheckImmich(context.Background(), srv.URL, "good-key")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckImmich_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckImmich(context.Background(), srv.URL, "bad-key")
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
	if result.Detail != "auth failed (invalid api key)" {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckImmich_MissingURL(t *testing.T) {
	result := CheckImmich(context.Background(), "", "key")
	if result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckImmich_MissingKey(t *testing.T) {
	result := CheckImmich(context.Background(), "http://localhost", "")
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckImmich_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	result := CheckImmich(context.Background(), srv.URL, "key")
	if result.Passed {
		t.Fatal("expected failure for closed server")
	}
}

func TestRunAllSkipsImmichWithoutUpload(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	results := RunAll(context.Background(), cfg, false)
	for _, result := range results {
		if result.Name == "Immich" {
			t.Fatal("Immich check should be skipped when uploads are disabled")
		}
	}
	if !Passed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
}

func TestRunAllReportsMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	cfg.Tools.Exiftool = "definitely-not-a-real-binary"

	results := RunAll(context.Background(), cfg, false)
	if Passed(results) {
		t.Fatal("expected missing binary to fail preflight")
	}
}
