package nav

import (
	"strings"

	"github.com/loftdrive/loft-nav/internal/models"
	"github.com/loftdrive/loft-nav/internal/tree"
)

// Serialize joins a breadcrumb trail's display names into the canonical
// slash-delimited address string. The empty trail serializes to "/".
func Serialize(trail []models.BreadcrumbEntry) string {
	if len(trail) == 0 {
		return "/"
	}
	names := make([]string, len(trail))
	for i, e := range trail {
		names[i] = e.Name
	}
	return "/" + strings.Join(names, "/")
}

// Parse splits an address string into raw name tokens. A single leading or
// trailing separator is tolerated; doubled separators and tokens containing
// ".." fail with ErrInvalidPathSyntax. No network call is ever made here.
func Parse(raw string) ([]string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, ErrInvalidPathSyntax
	}
	if strings.Contains(s, "//") {
		return nil, ErrInvalidPathSyntax
	}

	s = strings.TrimPrefix(s, "/")
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return []string{}, nil
	}

	tokens := strings.Split(s, "/")
	for _, t := range tokens {
		if t == "" || strings.Contains(t, "..") {
			return nil, ErrInvalidPathSyntax
		}
	}
	return tokens, nil
}

// Resolve walks name tokens against the materialized tree and returns the
// breadcrumb trail they denote.
//
// The first token must exactly match some project's display name; duplicate
// project names resolve to the first match (a documented ambiguity in the
// remote model, not disambiguated here). Each later token is matched
// case-sensitively against the current node's materialized children. When
// the walk needs children that have not been fetched, Resolve returns a
// RequiresExpansionError naming the node to expand so the caller can fetch
// and retry; it never triggers network activity itself.
func Resolve(tokens []string, store tree.Store) ([]models.BreadcrumbEntry, error) {
	if len(tokens) == 0 {
		return []models.BreadcrumbEntry{}, nil
	}

	var project models.ProjectNode
	found := false
	for _, p := range store.Projects() {
		if p.Name == tokens[0] {
			project = p
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	trail := []models.BreadcrumbEntry{{
		ID:        project.ID,
		Name:      project.Name,
		Kind:      models.KindProject,
		ProjectID: project.ID,
	}}
	if len(tokens) == 1 {
		return trail, nil
	}

	// Descend from the project's top-level folders. A nil folder slice means
	// the project root has never been listed.
	if project.Folders == nil {
		return nil, &RequiresExpansionError{ProjectID: project.ID}
	}

	current, ok := matchChild(project.Folders, tokens[1])
	if !ok {
		return nil, ErrNotFound
	}
	trail = append(trail, folderEntry(current))

	for _, token := range tokens[2:] {
		if current.Status != models.StatusExpanded {
			if !current.HasChildren {
				// Genuinely empty: nothing to fetch, nothing to match.
				return nil, ErrNotFound
			}
			return nil, &RequiresExpansionError{
				ProjectID: current.ProjectID,
				FolderID:  current.ID,
			}
		}
		next, ok := matchChild(current.Children, token)
		if !ok {
			return nil, ErrNotFound
		}
		trail = append(trail, folderEntry(next))
		current = next
	}

	return trail, nil
}

func matchChild(folders []models.FolderNode, name string) (models.FolderNode, bool) {
	for i := range folders {
		if folders[i].Name == name {
			return folders[i], true
		}
	}
	return models.FolderNode{}, false
}

func folderEntry(n models.FolderNode) models.BreadcrumbEntry {
	return models.BreadcrumbEntry{
		ID:        n.ID,
		Name:      n.Name,
		Kind:      models.KindFolder,
		ProjectID: n.ProjectID,
	}
}
