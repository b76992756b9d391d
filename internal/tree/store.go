// Package tree holds the partially-materialized mirror of the remote
// hierarchy. The Store is an immutable value: every mutation returns a new
// Store that shares structure with the old one everywhere except along the
// path from a project root to the changed node. The navigation controller is
// the single writer and swaps snapshots atomically; readers hold whatever
// snapshot they were given and never see a half-applied update.
package tree

import (
	"github.com/loftdrive/loft-nav/internal/models"
)

// Store is a snapshot of the materialized hierarchy across all projects.
// The zero value is an empty store.
type Store struct {
	projects []models.ProjectNode
}

// NewStore returns an empty store.
func NewStore() Store {
	return Store{}
}

// Projects returns the project roots in listing order. The returned slice and
// everything reachable from it must be treated as read-only.
func (s Store) Projects() []models.ProjectNode {
	return s.projects
}

// CreateRoot initializes a root for the given project with no materialized
// children. If a project with the same ID already exists it is replaced by a
// fresh, unmaterialized root (this is how a full project reload clears the
// cache).
func (s Store) CreateRoot(project models.ProjectNode) Store {
	project.Folders = nil
	project.Files = nil
	project.Cursor = models.PageCursor{}
	project.Expanded = false

	out := make([]models.ProjectNode, 0, len(s.projects)+1)
	replaced := false
	for _, p := range s.projects {
		if p.ID == project.ID {
			out = append(out, project)
			replaced = true
		} else {
			out = append(out, p)
		}
	}
	if !replaced {
		out = append(out, project)
	}
	return Store{projects: out}
}

// FindProject returns the project with the given ID.
func (s Store) FindProject(projectID string) (models.ProjectNode, bool) {
	for _, p := range s.projects {
		if p.ID == projectID {
			return p, true
		}
	}
	return models.ProjectNode{}, false
}

// Find locates a folder by ID with a depth-first search across every
// project's subtree. Returns false if the ID is not materialized yet, which
// is distinct from "the folder has no children".
func (s Store) Find(folderID string) (models.FolderNode, bool) {
	for _, p := range s.projects {
		if node, ok := findFolder(p.Folders, folderID); ok {
			return node, true
		}
	}
	return models.FolderNode{}, false
}

// ApplyProjectChildren replaces a project's top-level folder list and marks
// the project expanded. Used when page 1 of the project root loads.
func (s Store) ApplyProjectChildren(projectID string, folders []models.FolderNode) (Store, bool) {
	return s.updateProject(projectID, func(p models.ProjectNode) models.ProjectNode {
		p.Folders = folders
		p.Expanded = true
		return p
	})
}

// ApplyProjectFilePage replaces a project's root-level file page and cursor.
func (s Store) ApplyProjectFilePage(projectID string, files []models.FileLeaf, cursor models.PageCursor) (Store, bool) {
	return s.updateProject(projectID, func(p models.ProjectNode) models.ProjectNode {
		p.Files = files
		p.Cursor = cursor
		return p
	})
}

// SetProjectExpanded toggles a project's expand flag.
func (s Store) SetProjectExpanded(projectID string, expanded bool) (Store, bool) {
	return s.updateProject(projectID, func(p models.ProjectNode) models.ProjectNode {
		p.Expanded = expanded
		return p
	})
}

// ApplyFolderChildren replaces a folder's children list, sets its HasChildren
// flag, and transitions it to Expanded. Ancestors and siblings are
// structurally shared; only the path from the root to the folder is copied.
func (s Store) ApplyFolderChildren(folderID string, folders []models.FolderNode, hasChildren bool) (Store, bool) {
	return s.updateFolder(folderID, func(n models.FolderNode) models.FolderNode {
		n.Children = folders
		n.HasChildren = hasChildren
		n.Status = models.StatusExpanded
		n.Expanded = true
		return n
	})
}

// ApplyFilePage replaces a folder's file page and pagination cursor wholesale.
// Load status is not altered.
func (s Store) ApplyFilePage(folderID string, files []models.FileLeaf, cursor models.PageCursor) (Store, bool) {
	return s.updateFolder(folderID, func(n models.FolderNode) models.FolderNode {
		n.Files = files
		n.Cursor = cursor
		return n
	})
}

// SetLoadStatus transitions a folder's load status. Used to show a loading
// spinner before a fetch resolves and to roll back to Collapsed on failure.
func (s Store) SetLoadStatus(folderID string, status models.LoadStatus) (Store, bool) {
	return s.updateFolder(folderID, func(n models.FolderNode) models.FolderNode {
		n.Status = status
		return n
	})
}

// SetExpanded toggles a folder's display expand flag without touching its
// materialized children.
func (s Store) SetExpanded(folderID string, expanded bool) (Store, bool) {
	return s.updateFolder(folderID, func(n models.FolderNode) models.FolderNode {
		n.Expanded = expanded
		return n
	})
}

// ClearProject resets a project back to an unmaterialized root, discarding
// its entire materialized subtree.
func (s Store) ClearProject(projectID string) (Store, bool) {
	return s.updateProject(projectID, func(p models.ProjectNode) models.ProjectNode {
		p.Folders = nil
		p.Files = nil
		p.Cursor = models.PageCursor{}
		p.Expanded = false
		return p
	})
}

// CountMaterialized returns the number of materialized folder nodes across
// all projects. Mutations are O(this number) in the worst case, which stays
// small because materialization is bounded by what the user has opened.
func (s Store) CountMaterialized() int {
	total := 0
	for _, p := range s.projects {
		total += countFolders(p.Folders)
	}
	return total
}

func countFolders(folders []models.FolderNode) int {
	n := len(folders)
	for i := range folders {
		n += countFolders(folders[i].Children)
	}
	return n
}

func findFolder(folders []models.FolderNode, id string) (models.FolderNode, bool) {
	for i := range folders {
		if folders[i].ID == id {
			return folders[i], true
		}
		if node, ok := findFolder(folders[i].Children, id); ok {
			return node, true
		}
	}
	return models.FolderNode{}, false
}

// updateProject rebuilds the project slice with one project transformed.
func (s Store) updateProject(projectID string, fn func(models.ProjectNode) models.ProjectNode) (Store, bool) {
	for i := range s.projects {
		if s.projects[i].ID == projectID {
			out := make([]models.ProjectNode, len(s.projects))
			copy(out, s.projects)
			out[i] = fn(s.projects[i])
			return Store{projects: out}, true
		}
	}
	return s, false
}

// updateFolder applies fn to the folder with the given ID, copying only the
// slices along the path from the owning project down to the folder. The rest
// of the tree is shared with the previous snapshot.
func (s Store) updateFolder(folderID string, fn func(models.FolderNode) models.FolderNode) (Store, bool) {
	for i := range s.projects {
		if updated, ok := updateFolders(s.projects[i].Folders, folderID, fn); ok {
			out := make([]models.ProjectNode, len(s.projects))
			copy(out, s.projects)
			out[i].Folders = updated
			return Store{projects: out}, true
		}
	}
	return s, false
}

func updateFolders(folders []models.FolderNode, id string, fn func(models.FolderNode) models.FolderNode) ([]models.FolderNode, bool) {
	for i := range folders {
		if folders[i].ID == id {
			out := make([]models.FolderNode, len(folders))
			copy(out, folders)
			out[i] = fn(folders[i])
			return out, true
		}
		if updated, ok := updateFolders(folders[i].Children, id, fn); ok {
			out := make([]models.FolderNode, len(folders))
			copy(out, folders)
			out[i].Children = updated
			return out, true
		}
	}
	return nil, false
}
