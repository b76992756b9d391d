package nav

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/loftdrive/loft-nav/internal/events"
	"github.com/loftdrive/loft-nav/internal/loader"
	"github.com/loftdrive/loft-nav/internal/logging"
	"github.com/loftdrive/loft-nav/internal/models"
	"github.com/loftdrive/loft-nav/internal/tree"
)

// Controller orchestrates user intents against the tree store. It is the
// single writer: every mutation happens under its mutex, network fetches are
// the only suspension points and run outside the lock, and responses are
// applied only if no newer request for the same node has been issued in the
// meantime. Disjoint nodes may load concurrently.
type Controller struct {
	mu     sync.Mutex
	store  tree.Store
	state  NavigationState
	closed bool

	loader   loader.NodeLoader
	bus      *events.Bus
	logger   *logging.Logger
	pageSize int

	// seq holds a per-node request sequence number. A fetch captures the
	// sequence at issue time; a response whose sequence no longer matches is
	// stale and discarded without touching the store.
	seq map[string]uint64

	// busy marks nodes with a file-page fetch or project expansion in
	// flight, so duplicate intents are no-ops.
	busy map[string]bool

	// inflight tracks cancel functions for outstanding fetches so Close can
	// abandon them on teardown.
	inflight map[uint64]context.CancelFunc
	nextOp   uint64
}

// NewController creates a controller over an empty store.
func NewController(ldr loader.NodeLoader, bus *events.Bus, pageSize int) *Controller {
	if pageSize < 1 {
		pageSize = 25
	}
	return &Controller{
		store:    tree.NewStore(),
		loader:   ldr,
		bus:      bus,
		logger:   logging.NewLogger("nav"),
		pageSize: pageSize,
		seq:      make(map[string]uint64),
		busy:     make(map[string]bool),
		inflight: make(map[uint64]context.CancelFunc),
	}
}

// Close abandons all outstanding fetches. Their results are discarded on
// arrival instead of being applied to a store nobody owns anymore.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	cancels := make([]context.CancelFunc, 0, len(c.inflight))
	for _, cancel := range c.inflight {
		cancels = append(cancels, cancel)
	}
	c.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Store returns the current store snapshot. Snapshots are immutable; the
// caller may read it without coordination.
func (c *Controller) Store() tree.Store {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store
}

// State returns a read-only copy of the current navigation state.
func (c *Controller) State() NavigationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Events returns the bus the controller publishes change notifications on.
func (c *Controller) Events() *events.Bus {
	return c.bus
}

// beginFetch registers an in-flight operation and returns a derived context
// that Close can cancel, plus a release func to call when the fetch settles.
func (c *Controller) beginFetch(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.nextOp++
	op := c.nextOp
	c.inflight[op] = cancel
	c.mu.Unlock()

	return ctx, func() {
		c.mu.Lock()
		delete(c.inflight, op)
		c.mu.Unlock()
		cancel()
	}
}

func (c *Controller) publish(evts ...events.Event) {
	if c.bus == nil {
		return
	}
	for _, e := range evts {
		c.bus.Publish(e)
	}
}

func base(t events.EventType) events.BaseEvent {
	return events.BaseEvent{EventType: t, Time: time.Now()}
}

// LoadProjects fetches the project listing and creates a root for every
// project not yet in the store. Existing roots keep their materialized
// subtrees.
func (c *Controller) LoadProjects(ctx context.Context) error {
	ctx, done := c.beginFetch(ctx)
	defer done()

	projects, err := c.loader.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	for _, p := range projects {
		if _, exists := c.store.FindProject(p.ID); exists {
			continue
		}
		c.store = c.store.CreateRoot(models.ProjectNode{
			ID:          p.ID,
			Name:        p.Name,
			FileCount:   p.FileCount,
			FolderCount: p.FolderCount,
		})
	}
	c.mu.Unlock()

	c.logger.Debug().Int("projects", len(projects)).Msg("Project roots loaded")
	return nil
}

// Expand materializes a folder's children. No-op if the folder is already
// Loading or Expanded; a folder with no children just flips its local expand
// flag without any network call. On fetch failure the folder reverts to
// Collapsed and breadcrumbs/address stay unchanged.
func (c *Controller) Expand(ctx context.Context, folderID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	node, ok := c.store.Find(folderID)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: folder %s is not materialized", ErrNotFound, folderID)
	}

	switch {
	case node.Status == models.StatusLoading:
		// A fetch is already in flight for this node.
		c.mu.Unlock()
		return nil
	case node.Status == models.StatusExpanded:
		c.store, _ = c.store.SetExpanded(folderID, true)
		c.mu.Unlock()
		return nil
	case !node.HasChildren:
		// Nothing to fetch. Local flag only.
		c.store, _ = c.store.SetExpanded(folderID, true)
		c.mu.Unlock()
		c.publish(&events.FolderExpandedEvent{
			BaseEvent: base(events.EventFolderExpanded),
			FolderID:  folderID,
		})
		return nil
	}

	c.store, _ = c.store.SetLoadStatus(folderID, models.StatusLoading)
	c.seq[folderID]++
	mySeq := c.seq[folderID]
	projectID := node.ProjectID
	c.mu.Unlock()

	c.publish(&events.FolderLoadingEvent{
		BaseEvent: base(events.EventFolderLoading),
		FolderID:  folderID,
		Loading:   true,
	})

	ctx, done := c.beginFetch(ctx)
	defer done()

	folderPage, err := c.loader.ListChildFolders(ctx, projectID, folderID, 1)
	var filePage *loader.FilePage
	if err == nil {
		filePage, err = c.loader.ListFiles(ctx, projectID, folderID, 1, c.pageSize)
	}

	c.mu.Lock()
	if c.isStale(folderID, mySeq) {
		c.mu.Unlock()
		c.logger.Debug().Str("folder_id", folderID).Msg("Discarding stale expand response")
		return nil
	}

	if err != nil {
		// Roll back; the store must be left in its previous valid state.
		c.store, _ = c.store.SetLoadStatus(folderID, models.StatusCollapsed)
		c.mu.Unlock()
		c.publish(
			&events.FolderLoadingEvent{
				BaseEvent: base(events.EventFolderLoading),
				FolderID:  folderID,
				Loading:   false,
			},
			&events.LoadErrorEvent{
				BaseEvent: base(events.EventLoadError),
				FolderID:  folderID,
				Op:        "expand",
				Err:       err,
			},
		)
		c.logger.Error().Err(err).Str("folder_id", folderID).Msg("Expand failed, rolled back")
		return &LoadFailureError{Op: "expand", FolderID: folderID, Err: err}
	}

	children := childNodes(folderPage.Folders, projectID, folderID)
	hasChildren := len(children) > 0 || folderPage.HasMore
	c.store, _ = c.store.ApplyFolderChildren(folderID, children, hasChildren)
	cursor := cursorFromPage(filePage)
	c.store, _ = c.store.ApplyFilePage(folderID, fileLeaves(filePage.Files), cursor)

	trail, berr := BuildFromTree(folderID, c.store)
	if berr == nil {
		c.state = newNavigationState(trail)
	}
	state := c.state.clone()
	c.mu.Unlock()

	evts := []events.Event{
		&events.FolderLoadingEvent{
			BaseEvent: base(events.EventFolderLoading),
			FolderID:  folderID,
			Loading:   false,
		},
		&events.FolderExpandedEvent{
			BaseEvent:   base(events.EventFolderExpanded),
			FolderID:    folderID,
			ChildCount:  len(children),
			HasChildren: hasChildren,
		},
		&events.FilePageChangedEvent{
			BaseEvent:  base(events.EventFilePageChanged),
			FolderID:   folderID,
			Page:       cursor.CurrentPage,
			TotalPages: cursor.TotalPages,
			TotalFiles: cursor.TotalFiles,
		},
	}
	if berr == nil {
		evts = append(evts, &events.NavigationChangedEvent{
			BaseEvent:  base(events.EventNavigationChanged),
			Address:    state.Address,
			TrailNames: state.TrailNames(),
		})
	}
	c.publish(evts...)

	c.logger.Debug().
		Str("folder_id", folderID).
		Int("children", len(children)).
		Int("files", len(filePage.Files)).
		Msg("Folder expanded")
	return nil
}

// ExpandProject materializes a project's top-level folders and root file
// page. If the project is already materialized it just flips the expand flag.
func (c *Controller) ExpandProject(ctx context.Context, projectID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	project, ok := c.store.FindProject(projectID)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: project %s", ErrNotFound, projectID)
	}
	if c.busy[projectID] {
		c.mu.Unlock()
		return nil
	}
	if project.Folders != nil {
		c.store, _ = c.store.SetProjectExpanded(projectID, true)
		c.mu.Unlock()
		return nil
	}

	c.busy[projectID] = true
	c.seq[projectID]++
	mySeq := c.seq[projectID]
	c.mu.Unlock()

	c.publish(&events.FolderLoadingEvent{
		BaseEvent: base(events.EventFolderLoading),
		FolderID:  projectID,
		Loading:   true,
	})

	ctx, done := c.beginFetch(ctx)
	defer done()

	folderPage, err := c.loader.ListChildFolders(ctx, projectID, "", 1)
	var filePage *loader.FilePage
	if err == nil {
		filePage, err = c.loader.ListFiles(ctx, projectID, "", 1, c.pageSize)
	}

	c.mu.Lock()
	delete(c.busy, projectID)
	if c.closed || c.seq[projectID] != mySeq {
		c.mu.Unlock()
		c.logger.Debug().Str("project_id", projectID).Msg("Discarding stale project expand response")
		return nil
	}

	if err != nil {
		c.mu.Unlock()
		c.publish(
			&events.FolderLoadingEvent{
				BaseEvent: base(events.EventFolderLoading),
				FolderID:  projectID,
				Loading:   false,
			},
			&events.LoadErrorEvent{
				BaseEvent: base(events.EventLoadError),
				FolderID:  projectID,
				Op:        "expand",
				Err:       err,
			},
		)
		c.logger.Error().Err(err).Str("project_id", projectID).Msg("Project expand failed")
		return &LoadFailureError{Op: "expand", FolderID: projectID, Err: err}
	}

	children := childNodes(folderPage.Folders, projectID, "")
	c.store, _ = c.store.ApplyProjectChildren(projectID, children)
	cursor := cursorFromPage(filePage)
	c.store, _ = c.store.ApplyProjectFilePage(projectID, fileLeaves(filePage.Files), cursor)
	c.mu.Unlock()

	c.publish(
		&events.FolderLoadingEvent{
			BaseEvent: base(events.EventFolderLoading),
			FolderID:  projectID,
			Loading:   false,
		},
		&events.FolderExpandedEvent{
			BaseEvent:   base(events.EventFolderExpanded),
			FolderID:    projectID,
			ChildCount:  len(children),
			HasChildren: len(children) > 0,
		},
	)

	c.logger.Debug().
		Str("project_id", projectID).
		Int("folders", len(children)).
		Msg("Project root expanded")
	return nil
}

// Collapse clears a folder's expand flag without discarding materialized
// children, so re-expanding is free. A collapse while a fetch is in flight
// reverts the status to Collapsed and invalidates the outstanding request;
// its response will be discarded as stale. If the collapsed folder was the
// current navigation target, the state resets to the project root.
func (c *Controller) Collapse(folderID string) {
	c.mu.Lock()
	node, ok := c.store.Find(folderID)
	if !ok {
		c.mu.Unlock()
		return
	}

	if node.Status == models.StatusLoading {
		c.store, _ = c.store.SetLoadStatus(folderID, models.StatusCollapsed)
		c.seq[folderID]++
	}
	c.store, _ = c.store.SetExpanded(folderID, false)

	navChanged := false
	if current, ok := c.state.Current(); ok && current.ID == folderID {
		if project, ok := c.store.FindProject(node.ProjectID); ok {
			c.state = newNavigationState([]models.BreadcrumbEntry{{
				ID:        project.ID,
				Name:      project.Name,
				Kind:      models.KindProject,
				ProjectID: project.ID,
			}})
			navChanged = true
		}
	}
	state := c.state.clone()
	c.mu.Unlock()

	if navChanged {
		c.publish(&events.NavigationChangedEvent{
			BaseEvent:  base(events.EventNavigationChanged),
			Address:    state.Address,
			TrailNames: state.TrailNames(),
		})
	}
}

// LoadNextPage fetches the next file page of a node and replaces the current
// page wholesale. The node may be a folder or a project root; project roots
// page their root-level files. No-op if a page fetch is already in flight for
// the node or no further pages exist.
func (c *Controller) LoadNextPage(ctx context.Context, nodeID string) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}

	var (
		cursor    models.PageCursor
		projectID string
		isProject bool
	)
	if node, ok := c.store.Find(nodeID); ok {
		cursor = node.Cursor
		projectID = node.ProjectID
	} else if project, ok := c.store.FindProject(nodeID); ok {
		cursor = project.Cursor
		projectID = project.ID
		isProject = true
	} else {
		c.mu.Unlock()
		return fmt.Errorf("%w: node %s is not materialized", ErrNotFound, nodeID)
	}

	pageKey := nodeID + "/page"
	if c.busy[pageKey] || !cursor.HasMorePages() {
		c.mu.Unlock()
		return nil
	}
	nextPage := cursor.CurrentPage + 1
	c.busy[pageKey] = true
	mySeq := c.seq[nodeID]
	c.mu.Unlock()

	ctx, done := c.beginFetch(ctx)
	defer done()

	// The loader addresses a project root as an empty folder ID.
	loaderFolderID := nodeID
	if isProject {
		loaderFolderID = ""
	}
	filePage, err := c.loader.ListFiles(ctx, projectID, loaderFolderID, nextPage, c.pageSize)

	c.mu.Lock()
	delete(c.busy, pageKey)
	if c.closed || c.seq[nodeID] != mySeq {
		c.mu.Unlock()
		c.logger.Debug().Str("node_id", nodeID).Msg("Discarding stale page response")
		return nil
	}
	if isProject {
		if _, ok := c.store.FindProject(nodeID); !ok {
			c.mu.Unlock()
			return nil
		}
	} else if _, ok := c.store.Find(nodeID); !ok {
		c.mu.Unlock()
		return nil
	}

	if err != nil {
		// Previous page and cursor are retained untouched.
		c.mu.Unlock()
		c.publish(&events.LoadErrorEvent{
			BaseEvent: base(events.EventLoadError),
			FolderID:  nodeID,
			Op:        "page",
			Err:       err,
		})
		c.logger.Error().Err(err).Str("node_id", nodeID).Int("page", nextPage).Msg("Page load failed")
		return &LoadFailureError{Op: "page", FolderID: nodeID, Err: err}
	}

	cursor = cursorFromPage(filePage)
	if isProject {
		c.store, _ = c.store.ApplyProjectFilePage(nodeID, fileLeaves(filePage.Files), cursor)
	} else {
		c.store, _ = c.store.ApplyFilePage(nodeID, fileLeaves(filePage.Files), cursor)
	}
	c.mu.Unlock()

	c.publish(&events.FilePageChangedEvent{
		BaseEvent:  base(events.EventFilePageChanged),
		FolderID:   nodeID,
		Page:       cursor.CurrentPage,
		TotalPages: cursor.TotalPages,
		TotalFiles: cursor.TotalFiles,
	})

	c.logger.Debug().
		Str("node_id", nodeID).
		Int("page", cursor.CurrentPage).
		Int("total_pages", cursor.TotalPages).
		Msg("File page replaced")
	return nil
}

// NavigateToAddress resolves a typed address against the tree, expanding
// unmaterialized hops on demand, and sets the navigation state to the
// resolved trail. On ErrInvalidPathSyntax or ErrNotFound the state is left
// untouched. The expand-and-retry loop is bounded by the token count, so a
// pathological address cannot loop forever.
func (c *Controller) NavigateToAddress(ctx context.Context, rawInput string) error {
	tokens, err := Parse(rawInput)
	if err != nil {
		return err
	}

	// Each retry materializes at least one more hop.
	maxAttempts := len(tokens) + 1
	for attempt := 0; attempt < maxAttempts; attempt++ {
		c.mu.Lock()
		store := c.store
		c.mu.Unlock()

		trail, rerr := Resolve(tokens, store)
		if rerr == nil {
			c.mu.Lock()
			c.state = newNavigationState(trail)
			state := c.state.clone()
			c.mu.Unlock()

			c.publish(&events.NavigationChangedEvent{
				BaseEvent:  base(events.EventNavigationChanged),
				Address:    state.Address,
				TrailNames: state.TrailNames(),
			})
			return nil
		}

		var re *RequiresExpansionError
		if errors.As(rerr, &re) {
			if re.FolderID == "" {
				err = c.ExpandProject(ctx, re.ProjectID)
			} else {
				err = c.Expand(ctx, re.FolderID)
			}
			if err != nil {
				return err
			}
			continue
		}
		return rerr
	}
	return ErrNotFound
}

// NavigateToBreadcrumb jumps to an entry of the current trail. Project
// entries reset the state to the project root (expanding it if collapsed);
// folder entries expand the folder (idempotent) and truncate the trail to end
// at it.
func (c *Controller) NavigateToBreadcrumb(ctx context.Context, entry models.BreadcrumbEntry) error {
	if entry.Kind == models.KindProject {
		if err := c.ExpandProject(ctx, entry.ID); err != nil {
			return err
		}

		c.mu.Lock()
		project, ok := c.store.FindProject(entry.ID)
		if !ok {
			c.mu.Unlock()
			return fmt.Errorf("%w: project %s", ErrNotFound, entry.ID)
		}
		c.state = newNavigationState([]models.BreadcrumbEntry{{
			ID:        project.ID,
			Name:      project.Name,
			Kind:      models.KindProject,
			ProjectID: project.ID,
		}})
		state := c.state.clone()
		c.mu.Unlock()

		c.publish(&events.NavigationChangedEvent{
			BaseEvent:  base(events.EventNavigationChanged),
			Address:    state.Address,
			TrailNames: state.TrailNames(),
		})
		return nil
	}

	if err := c.Expand(ctx, entry.ID); err != nil {
		return err
	}

	c.mu.Lock()
	trail, err := BuildFromTree(entry.ID, c.store)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.state = newNavigationState(trail)
	state := c.state.clone()
	c.mu.Unlock()

	c.publish(&events.NavigationChangedEvent{
		BaseEvent:  base(events.EventNavigationChanged),
		Address:    state.Address,
		TrailNames: state.TrailNames(),
	})
	return nil
}

// Refresh discards a project's materialized subtree, resetting it to an
// unmaterialized root. If the current navigation target was inside the
// project, the state resets to the empty trail.
func (c *Controller) Refresh(projectID string) {
	c.mu.Lock()
	c.store, _ = c.store.ClearProject(projectID)
	// Invalidate any in-flight expand or root page fetch for the project.
	c.seq[projectID]++

	navChanged := false
	if current, ok := c.state.Current(); ok && current.ProjectID == projectID {
		c.state = newNavigationState(nil)
		navChanged = true
	}
	state := c.state.clone()
	c.mu.Unlock()

	if navChanged {
		c.publish(&events.NavigationChangedEvent{
			BaseEvent:  base(events.EventNavigationChanged),
			Address:    state.Address,
			TrailNames: state.TrailNames(),
		})
	}
}

// isStale reports whether a folder response should be discarded: the node
// vanished, a newer request superseded this one, or the node is no longer
// waiting for data. Callers must hold the mutex.
func (c *Controller) isStale(folderID string, mySeq uint64) bool {
	if c.closed || c.seq[folderID] != mySeq {
		return true
	}
	node, ok := c.store.Find(folderID)
	if !ok {
		return true
	}
	return node.Status != models.StatusLoading
}

func childNodes(folders []loader.FolderInfo, projectID, parentID string) []models.FolderNode {
	children := make([]models.FolderNode, 0, len(folders))
	for _, f := range folders {
		children = append(children, models.FolderNode{
			ID:          f.ID,
			Name:        f.Name,
			ParentID:    parentID,
			ProjectID:   projectID,
			HasChildren: f.SubfolderCount > 0,
			Status:      models.StatusCollapsed,
		})
	}
	return children
}

func fileLeaves(files []loader.FileInfo) []models.FileLeaf {
	leaves := make([]models.FileLeaf, 0, len(files))
	for _, f := range files {
		leaves = append(leaves, models.FileLeaf{
			ID:          f.ID,
			Name:        f.Name,
			Size:        f.Size,
			ContentType: f.ContentType,
		})
	}
	return leaves
}

func cursorFromPage(p *loader.FilePage) models.PageCursor {
	if p == nil {
		return models.PageCursor{}
	}
	return models.PageCursor{
		CurrentPage: p.Page,
		TotalPages:  p.TotalPages,
		TotalFiles:  p.TotalCount,
	}
}
