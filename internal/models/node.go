// Package models defines the node types that make up the client-side mirror
// of the Loftdrive hierarchy (projects, folders, files) plus the breadcrumb
// and pagination value types shared across the navigation packages.
package models

// LoadStatus tracks where a folder is in its lazy-load lifecycle.
type LoadStatus int

const (
	// StatusCollapsed means the folder's children have never been fetched
	// (or a fetch failed and was rolled back).
	StatusCollapsed LoadStatus = iota

	// StatusLoading means a children fetch is in flight.
	StatusLoading

	// StatusExpanded means children have been fetched at least once and are
	// held in the store.
	StatusExpanded
)

func (s LoadStatus) String() string {
	switch s {
	case StatusCollapsed:
		return "collapsed"
	case StatusLoading:
		return "loading"
	case StatusExpanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// PageCursor is the per-folder pagination bookkeeping for its file listing.
// The zero value means "nothing fetched yet".
type PageCursor struct {
	CurrentPage int
	TotalPages  int
	TotalFiles  int
}

// HasMorePages reports whether a further file page can be requested.
func (c PageCursor) HasMorePages() bool {
	return c.CurrentPage > 0 && c.CurrentPage < c.TotalPages
}

// FileLeaf is a single file entry. Leaves are immutable once fetched and
// never hold children.
type FileLeaf struct {
	ID          string
	Name        string
	Size        int64
	ContentType string
}

// FolderNode is one folder in the mirror. Children and Files hold only what
// has been fetched; an empty Children slice is disambiguated from "not yet
// loaded" by HasChildren, which is derived from the server-reported subfolder
// count. ParentID and ProjectID are back-references only, never ownership
// edges, so the value tree stays acyclic and safe to copy.
type FolderNode struct {
	ID        string
	Name      string
	ParentID  string // empty for top-level folders
	ProjectID string

	HasChildren bool
	Children    []FolderNode

	// Files holds the current page only; replaced wholesale on every page
	// fetch, never merged.
	Files  []FileLeaf
	Cursor PageCursor

	Status   LoadStatus
	Expanded bool
}

// ProjectNode is the root of one tree. The aggregate counts come from the
// project listing endpoint and are informational only.
type ProjectNode struct {
	ID   string
	Name string

	FileCount   int
	FolderCount int

	Folders []FolderNode

	// Root-level files, paginated like a folder's.
	Files  []FileLeaf
	Cursor PageCursor

	Expanded bool
}

// EntryKind distinguishes the two breadcrumb entry kinds.
type EntryKind string

const (
	KindProject EntryKind = "project"
	KindFolder  EntryKind = "folder"
)

// BreadcrumbEntry is one hop of a breadcrumb trail. A trail is always a
// strict ancestor chain: entry 0 is a project, every later entry's parent is
// the entry before it, and the last entry is the current position.
type BreadcrumbEntry struct {
	ID        string
	Name      string
	Kind      EntryKind
	ProjectID string // owning project; set for folder entries
}
