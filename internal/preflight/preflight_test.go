package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"fieldsync/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()

	result := CheckDirectoryAccess("Data directory", dir)
	if !result.Passed {
		t.Fatalf("expected accessible directory to pass, got %q", result.Detail)
	}

	result = CheckDirectoryAccess("Data directory", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatal("expected missing directory to fail")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %q", result.Detail)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	result := CheckDiskSpace("Data disk space", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected temp dir filesystem to pass, got %q", result.Detail)
	}
}

func TestCheckRemote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithRemoteBaseURL(server.URL))
	result := CheckRemote(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected reachable remote to pass, got %q", result.Detail)
	}

	server.Close()
	result = CheckRemote(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected closed remote to fail")
	}
}

func TestRunAllCoversConfiguredChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	names := make(map[string]bool, len(results))
	for _, r := range results {
		names[r.Name] = true
	}
	for _, want := range []string{"Data directory", "Log directory", "Data disk space", "Remote reachability"} {
		if !names[want] {
			t.Fatalf("missing check %q in results %v", want, names)
		}
	}
}
