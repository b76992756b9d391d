// Package loader defines the NodeLoader contract the navigation engine uses
// to fetch pieces of the remote hierarchy, and an HTTP implementation against
// the Loftdrive REST API.
//
// All response normalization happens here: endpoints that can answer with
// either a bare JSON array or a paginated envelope are flattened into the
// typed page structs before anything downstream sees them.
package loader

import "context"

// ProjectInfo is one project as returned by the project listing endpoint.
type ProjectInfo struct {
	ID          string
	Name        string
	FileCount   int
	FolderCount int
}

// FolderInfo is one child folder in a folder page. SubfolderCount lets the
// client distinguish "no children" from "children not loaded yet".
type FolderInfo struct {
	ID             string
	Name           string
	FileCount      int
	SubfolderCount int
}

// FolderPage is one page of child folders.
type FolderPage struct {
	Folders []FolderInfo
	HasMore bool
}

// FileInfo is one file entry in a file page.
type FileInfo struct {
	ID          string
	Name        string
	Size        int64
	ContentType string
}

// FilePage is one page of files plus the cursor metadata needed for
// pagination bookkeeping.
type FilePage struct {
	Files      []FileInfo
	Page       int
	TotalPages int
	TotalCount int
}

// Ancestor is one hop of a server-computed ancestor chain, ordered
// root-to-node. The first entry is always the owning project.
type Ancestor struct {
	ID        string
	Name      string
	IsProject bool
}

// NodeLoader fetches pieces of the remote hierarchy on demand. An empty
// folderID means "root of the given project". Implementations must be safe
// for concurrent use; the controller may have fetches for disjoint folders
// in flight at once.
type NodeLoader interface {
	// ListProjects returns the projects visible to the caller.
	ListProjects(ctx context.Context) ([]ProjectInfo, error)

	// ListChildFolders returns one page of child folders of folderID within
	// projectID. An empty folderID lists the project's top-level folders.
	ListChildFolders(ctx context.Context, projectID, folderID string, page int) (*FolderPage, error)

	// ListFiles returns one page of files in folderID within projectID. An
	// empty folderID lists the project's root-level files.
	ListFiles(ctx context.Context, projectID, folderID string, page, pageSize int) (*FilePage, error)

	// GetAncestorChain returns the ordered ancestor chain (project first)
	// for a folder, computed server-side.
	GetAncestorChain(ctx context.Context, folderID string) ([]Ancestor, error)
}
