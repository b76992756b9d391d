package nav

import (
	"context"
	"fmt"

	"github.com/loftdrive/loft-nav/internal/loader"
	"github.com/loftdrive/loft-nav/internal/models"
	"github.com/loftdrive/loft-nav/internal/tree"
)

// BuildFromTree derives the breadcrumb trail for a folder already present in
// the store by walking parent links upward to the project root. This is the
// common case after an expand succeeds: every ancestor is materialized.
func BuildFromTree(folderID string, store tree.Store) ([]models.BreadcrumbEntry, error) {
	node, ok := store.Find(folderID)
	if !ok {
		return nil, fmt.Errorf("folder %s is not materialized", folderID)
	}

	var reversed []models.BreadcrumbEntry
	current := node
	for {
		reversed = append(reversed, folderEntry(current))
		if current.ParentID == "" {
			break
		}
		parent, ok := store.Find(current.ParentID)
		if !ok {
			return nil, fmt.Errorf("ancestor %s of folder %s is not materialized", current.ParentID, folderID)
		}
		current = parent
	}

	project, ok := store.FindProject(node.ProjectID)
	if !ok {
		return nil, fmt.Errorf("project %s of folder %s is not in the store", node.ProjectID, folderID)
	}

	trail := make([]models.BreadcrumbEntry, 0, len(reversed)+1)
	trail = append(trail, models.BreadcrumbEntry{
		ID:        project.ID,
		Name:      project.Name,
		Kind:      models.KindProject,
		ProjectID: project.ID,
	})
	for i := len(reversed) - 1; i >= 0; i-- {
		trail = append(trail, reversed[i])
	}
	return trail, nil
}

// BuildFromServer derives the breadcrumb trail for a folder whose ancestry
// may not be materialized, by asking the loader for the server-computed
// ancestor chain. For any folder, the result is identical to what
// BuildFromTree produces once the chain is materialized.
func BuildFromServer(ctx context.Context, folderID string, ldr loader.NodeLoader) ([]models.BreadcrumbEntry, error) {
	chain, err := ldr.GetAncestorChain(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("ancestor chain for %s: %w", folderID, err)
	}
	if len(chain) == 0 || !chain[0].IsProject {
		return nil, fmt.Errorf("malformed ancestor chain for %s", folderID)
	}

	projectID := chain[0].ID
	trail := make([]models.BreadcrumbEntry, 0, len(chain))
	trail = append(trail, models.BreadcrumbEntry{
		ID:        projectID,
		Name:      chain[0].Name,
		Kind:      models.KindProject,
		ProjectID: projectID,
	})
	for _, a := range chain[1:] {
		trail = append(trail, models.BreadcrumbEntry{
			ID:        a.ID,
			Name:      a.Name,
			Kind:      models.KindFolder,
			ProjectID: projectID,
		})
	}
	return trail, nil
}
