package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loftdrive/loft-nav/internal/config"
)

func testConfig(baseURL string) *config.APIConfig {
	cfg := config.NewAPIConfig()
	cfg.PlatformURL = baseURL
	cfg.APIKey = "test-token-1234"
	return cfg
}

func newTestLoader(t *testing.T, handler http.Handler) (*HTTPLoader, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ldr, err := NewHTTPLoader(testConfig(server.URL))
	if err != nil {
		t.Fatalf("NewHTTPLoader failed: %v", err)
	}
	return ldr, server
}

func TestNewHTTPLoaderRejectsInvalidConfig(t *testing.T) {
	cfg := config.NewAPIConfig()
	// No API key set.
	if _, err := NewHTTPLoader(cfg); err == nil {
		t.Error("expected error for config without api_key")
	}
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		fmt.Fprint(w, `[]`)
	}))

	if _, err := ldr.ListProjects(context.Background()); err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if gotAuth != "Token test-token-1234" {
		t.Errorf("unexpected Authorization header: %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestListProjectsBareArray(t *testing.T) {
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[
			{"id": "p1", "name": "Alpha", "files_count": 12, "folders_count": 3},
			{"id": "p2", "name": "Beta"}
		]`)
	}))

	projects, err := ldr.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].ID != "p1" || projects[0].FileCount != 12 || projects[0].FolderCount != 3 {
		t.Errorf("unexpected project: %+v", projects[0])
	}
}

func TestListProjectsEnvelope(t *testing.T) {
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 1, "next": null, "results": [{"id": "p1", "name": "Alpha"}]}`)
	}))

	projects, err := ldr.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "Alpha" {
		t.Errorf("unexpected projects: %+v", projects)
	}
}

func TestListChildFoldersQueryAndPaging(t *testing.T) {
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects/p1/folders/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("parent_id"); got != "f1" {
			t.Errorf("unexpected parent_id %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("unexpected page %q", got)
		}
		fmt.Fprint(w, `{"count": 30, "next": "https://example/api?page=3", "results": [
			{"id": "f3", "name": "Raw Scans", "files_count": 5, "subfolders_count": 2}
		]}`)
	}))

	page, err := ldr.ListChildFolders(context.Background(), "p1", "f1", 2)
	if err != nil {
		t.Fatalf("ListChildFolders failed: %v", err)
	}
	if len(page.Folders) != 1 {
		t.Fatalf("expected 1 folder, got %d", len(page.Folders))
	}
	if page.Folders[0].SubfolderCount != 2 || page.Folders[0].FileCount != 5 {
		t.Errorf("unexpected folder: %+v", page.Folders[0])
	}
	if !page.HasMore {
		t.Error("non-null next must set HasMore")
	}
}

func TestListChildFoldersProjectRootOmitsParent(t *testing.T) {
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("parent_id") {
			t.Error("project root listing must not send parent_id")
		}
		fmt.Fprint(w, `[]`)
	}))

	page, err := ldr.ListChildFolders(context.Background(), "p1", "", 1)
	if err != nil {
		t.Fatalf("ListChildFolders failed: %v", err)
	}
	if len(page.Folders) != 0 || page.HasMore {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestListFilesComputesTotalPages(t *testing.T) {
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page_size"); got != "10" {
			t.Errorf("unexpected page_size %q", got)
		}
		fmt.Fprint(w, `{"count": 25, "next": "x", "results": [
			{"id": "file1", "name": "a.dat", "size": 2048, "content_type": "application/octet-stream"}
		]}`)
	}))

	page, err := ldr.ListFiles(context.Background(), "p1", "f1", 1, 10)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if page.TotalCount != 25 || page.TotalPages != 3 {
		t.Errorf("expected 25 files over 3 pages, got %+v", page)
	}
	if page.Files[0].Size != 2048 || page.Files[0].ContentType != "application/octet-stream" {
		t.Errorf("unexpected file: %+v", page.Files[0])
	}
}

func TestListFilesEmptyFolderIsOnePage(t *testing.T) {
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"count": 0, "next": null, "results": []}`)
	}))

	page, err := ldr.ListFiles(context.Background(), "p1", "f1", 1, 25)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if page.TotalPages != 1 || page.TotalCount != 0 {
		t.Errorf("empty folder should be a single empty page: %+v", page)
	}
}

func TestGetAncestorChain(t *testing.T) {
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/folders/f3/breadcrumb/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `[
			{"id": "p1", "name": "Alpha", "type": "project"},
			{"id": "f1", "name": "Images"},
			{"id": "f3", "name": "Raw Scans"}
		]`)
	}))

	chain, err := ldr.GetAncestorChain(context.Background(), "f3")
	if err != nil {
		t.Fatalf("GetAncestorChain failed: %v", err)
	}
	if len(chain) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(chain))
	}
	if !chain[0].IsProject {
		t.Error("first entry should be the project")
	}
	if chain[1].IsProject || chain[2].IsProject {
		t.Error("folder entries must not be tagged as projects")
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	ldr, _ := newTestLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "not found"}`, http.StatusNotFound)
	}))

	if _, err := ldr.ListProjects(context.Background()); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestDecodeListOrEnvelope(t *testing.T) {
	type item struct {
		ID string `json:"id"`
	}

	items, count, hasMore, err := decodeListOrEnvelope[item]([]byte(`  [{"id": "a"}, {"id": "b"}]`))
	if err != nil {
		t.Fatalf("bare array failed: %v", err)
	}
	if len(items) != 2 || count != 2 || hasMore {
		t.Errorf("bare array: items=%d count=%d hasMore=%v", len(items), count, hasMore)
	}

	items, count, hasMore, err = decodeListOrEnvelope[item]([]byte(`{"count": 9, "next": "u", "results": [{"id": "a"}]}`))
	if err != nil {
		t.Fatalf("envelope failed: %v", err)
	}
	if len(items) != 1 || count != 9 || !hasMore {
		t.Errorf("envelope: items=%d count=%d hasMore=%v", len(items), count, hasMore)
	}

	if _, _, _, err := decodeListOrEnvelope[item]([]byte(`not json`)); err == nil {
		t.Error("expected decode error for garbage")
	}
}
