package nav

import (
	"errors"
	"testing"

	"github.com/loftdrive/loft-nav/internal/models"
	"github.com/loftdrive/loft-nav/internal/tree"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr bool
	}{
		{"root", "/", []string{}, false},
		{"single project", "/Alpha", []string{"Alpha"}, false},
		{"no leading slash", "Alpha/Images", []string{"Alpha", "Images"}, false},
		{"trailing slash", "/Alpha/Images/", []string{"Alpha", "Images"}, false},
		{"spaces in names", "/Alpha/Raw Scans", []string{"Alpha", "Raw Scans"}, false},
		{"surrounding whitespace", "  /Alpha  ", []string{"Alpha"}, false},
		{"empty", "", nil, true},
		{"whitespace only", "   ", nil, true},
		{"doubled separator", "/Alpha//Images", nil, true},
		{"parent traversal", "/Alpha/../etc", nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidPathSyntax) {
					t.Fatalf("expected ErrInvalidPathSyntax, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("token %d: expected %q, got %q", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestSerialize(t *testing.T) {
	if got := Serialize(nil); got != "/" {
		t.Errorf("empty trail: expected /, got %q", got)
	}

	trail := []models.BreadcrumbEntry{
		{ID: "p1", Name: "Alpha", Kind: models.KindProject, ProjectID: "p1"},
		{ID: "f1", Name: "Images", Kind: models.KindFolder, ProjectID: "p1"},
		{ID: "f3", Name: "Raw Scans", Kind: models.KindFolder, ProjectID: "p1"},
	}
	if got := Serialize(trail); got != "/Alpha/Images/Raw Scans" {
		t.Errorf("expected /Alpha/Images/Raw Scans, got %q", got)
	}
}

func TestSerializeParseRoundTrip(t *testing.T) {
	trail := []models.BreadcrumbEntry{
		{ID: "p1", Name: "Alpha", Kind: models.KindProject},
		{ID: "f1", Name: "Images", Kind: models.KindFolder},
	}

	tokens, err := Parse(Serialize(trail))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if len(tokens) != len(trail) {
		t.Fatalf("expected %d tokens, got %d", len(trail), len(tokens))
	}
	for i, tok := range tokens {
		if tok != trail[i].Name {
			t.Errorf("token %d: expected %q, got %q", i, trail[i].Name, tok)
		}
	}
}

// resolveStore builds the fixture used by the Resolve tests:
//
//	Alpha (p1)
//	  Images (f1, expanded)
//	    Raw Scans (f3, has children, collapsed)
//	  Docs (f2, no children)
func resolveStore(t *testing.T) tree.Store {
	t.Helper()

	s := tree.NewStore().CreateRoot(models.ProjectNode{ID: "p1", Name: "Alpha"})
	s, ok := s.ApplyProjectChildren("p1", []models.FolderNode{
		{ID: "f1", Name: "Images", ProjectID: "p1", HasChildren: true},
		{ID: "f2", Name: "Docs", ProjectID: "p1"},
	})
	if !ok {
		t.Fatal("ApplyProjectChildren failed")
	}
	s, ok = s.ApplyFolderChildren("f1", []models.FolderNode{
		{ID: "f3", Name: "Raw Scans", ParentID: "f1", ProjectID: "p1", HasChildren: true},
	}, true)
	if !ok {
		t.Fatal("ApplyFolderChildren failed")
	}
	return s
}

func TestResolveFullyMaterialized(t *testing.T) {
	s := resolveStore(t)

	trail, err := Resolve([]string{"Alpha", "Images", "Raw Scans"}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantIDs := []string{"p1", "f1", "f3"}
	if len(trail) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(trail))
	}
	for i, id := range wantIDs {
		if trail[i].ID != id {
			t.Errorf("entry %d: expected %s, got %s", i, id, trail[i].ID)
		}
	}
	if trail[0].Kind != models.KindProject {
		t.Error("first entry should be a project")
	}
	if trail[2].Kind != models.KindFolder {
		t.Error("last entry should be a folder")
	}
}

func TestResolveEmptyTokensIsRoot(t *testing.T) {
	trail, err := Resolve([]string{}, resolveStore(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trail) != 0 {
		t.Errorf("root should resolve to empty trail, got %v", trail)
	}
}

func TestResolveUnknownProject(t *testing.T) {
	if _, err := Resolve([]string{"Beta"}, resolveStore(t)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveIsCaseSensitive(t *testing.T) {
	if _, err := Resolve([]string{"alpha"}, resolveStore(t)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong case, got %v", err)
	}
	if _, err := Resolve([]string{"Alpha", "images"}, resolveStore(t)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong case, got %v", err)
	}
}

func TestResolveUnmaterializedProjectRoot(t *testing.T) {
	s := tree.NewStore().CreateRoot(models.ProjectNode{ID: "p1", Name: "Alpha"})

	_, err := Resolve([]string{"Alpha", "Images"}, s)
	var re *RequiresExpansionError
	if !errors.As(err, &re) {
		t.Fatalf("expected RequiresExpansionError, got %v", err)
	}
	if re.ProjectID != "p1" || re.FolderID != "" {
		t.Errorf("expansion should target the project root: %+v", re)
	}
}

func TestResolveUnmaterializedFolder(t *testing.T) {
	// Raw Scans has children but was never expanded.
	_, err := Resolve([]string{"Alpha", "Images", "Raw Scans", "Deep"}, resolveStore(t))
	var re *RequiresExpansionError
	if !errors.As(err, &re) {
		t.Fatalf("expected RequiresExpansionError, got %v", err)
	}
	if re.ProjectID != "p1" || re.FolderID != "f3" {
		t.Errorf("expansion should target f3: %+v", re)
	}
}

func TestResolveChildOfLeafIsNotFound(t *testing.T) {
	// Docs has no children, so descending past it cannot need a fetch.
	_, err := Resolve([]string{"Alpha", "Docs", "Anything"}, resolveStore(t))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveDuplicateProjectNamesFirstWins(t *testing.T) {
	s := resolveStore(t).CreateRoot(models.ProjectNode{ID: "p2", Name: "Alpha"})

	trail, err := Resolve([]string{"Alpha"}, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trail[0].ID != "p1" {
		t.Errorf("first listed project should win, got %s", trail[0].ID)
	}
}
