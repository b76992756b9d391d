package nav

import (
	"context"
	"testing"

	"github.com/loftdrive/loft-nav/internal/loader"
	"github.com/loftdrive/loft-nav/internal/models"
)

func TestBuildFromTree(t *testing.T) {
	s := resolveStore(t)

	trail, err := BuildFromTree("f3", s)
	if err != nil {
		t.Fatalf("BuildFromTree failed: %v", err)
	}

	want := []models.BreadcrumbEntry{
		{ID: "p1", Name: "Alpha", Kind: models.KindProject, ProjectID: "p1"},
		{ID: "f1", Name: "Images", Kind: models.KindFolder, ProjectID: "p1"},
		{ID: "f3", Name: "Raw Scans", Kind: models.KindFolder, ProjectID: "p1"},
	}
	if len(trail) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(trail))
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], trail[i])
		}
	}
}

func TestBuildFromTreeTopLevelFolder(t *testing.T) {
	trail, err := BuildFromTree("f1", resolveStore(t))
	if err != nil {
		t.Fatalf("BuildFromTree failed: %v", err)
	}
	if len(trail) != 2 || trail[0].ID != "p1" || trail[1].ID != "f1" {
		t.Errorf("unexpected trail: %+v", trail)
	}
}

func TestBuildFromTreeUnmaterialized(t *testing.T) {
	if _, err := BuildFromTree("f99", resolveStore(t)); err == nil {
		t.Error("expected error for unmaterialized folder")
	}
}

func TestBuildFromServerMatchesTree(t *testing.T) {
	fl := newFixtureLoader()
	s := resolveStore(t)

	fromTree, err := BuildFromTree("f3", s)
	if err != nil {
		t.Fatalf("BuildFromTree failed: %v", err)
	}
	fromServer, err := BuildFromServer(context.Background(), "f3", fl)
	if err != nil {
		t.Fatalf("BuildFromServer failed: %v", err)
	}

	if len(fromTree) != len(fromServer) {
		t.Fatalf("length mismatch: tree %d, server %d", len(fromTree), len(fromServer))
	}
	for i := range fromTree {
		if fromTree[i] != fromServer[i] {
			t.Errorf("entry %d diverges: tree %+v, server %+v", i, fromTree[i], fromServer[i])
		}
	}
}

func TestBuildFromServerRejectsMalformedChain(t *testing.T) {
	fl := newFixtureLoader()
	fl.chains["empty"] = []loader.Ancestor{}
	fl.chains["headless"] = []loader.Ancestor{
		{ID: "f1", Name: "Images"},
		{ID: "f3", Name: "Raw Scans"},
	}

	if _, err := BuildFromServer(context.Background(), "empty", fl); err == nil {
		t.Error("expected error for empty chain")
	}
	if _, err := BuildFromServer(context.Background(), "headless", fl); err == nil {
		t.Error("expected error for chain not rooted at a project")
	}
}
