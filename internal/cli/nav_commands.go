package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/loftdrive/loft-nav/internal/events"
	"github.com/loftdrive/loft-nav/internal/loader"
	"github.com/loftdrive/loft-nav/internal/models"
	"github.com/loftdrive/loft-nav/internal/nav"
)

// newNavController builds a controller connected to the platform and seeds
// it with the project listing.
func newNavController() (*nav.Controller, *events.Bus, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	ldr, err := loader.NewHTTPLoader(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create loader: %w", err)
	}

	bus := events.NewBus(0)
	ctrl := nav.NewController(ldr, bus, cfg.Browser.PageSize)

	if err := ctrl.LoadProjects(GetContext()); err != nil {
		ctrl.Close()
		bus.Close()
		return nil, nil, err
	}
	return ctrl, bus, nil
}

// newProjectsCmd creates the 'projects' command.
func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List projects visible to the configured account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, bus, err := newNavController()
			if err != nil {
				return err
			}
			defer ctrl.Close()
			defer bus.Close()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID\tFOLDERS\tFILES")
			for _, p := range ctrl.Store().Projects() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", p.Name, p.ID, p.FolderCount, p.FileCount)
			}
			return w.Flush()
		},
	}
}

// newResolveCmd creates the 'resolve' command.
func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <address>",
		Short: "Resolve an address into a breadcrumb trail",
		Long: `Resolve a slash-delimited address into its breadcrumb trail,
expanding unmaterialized folders on demand.

Examples:
  loft-nav resolve /Alpha
  loft-nav resolve "/Alpha/Images/Raw Scans"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, bus, err := newNavController()
			if err != nil {
				return err
			}
			defer ctrl.Close()
			defer bus.Close()

			if err := ctrl.NavigateToAddress(GetContext(), args[0]); err != nil {
				return err
			}

			state := ctrl.State()
			for i, entry := range state.Trail {
				indent := ""
				for j := 0; j < i; j++ {
					indent += "  "
				}
				fmt.Printf("%s%s  (%s %s)\n", indent, entry.Name, entry.Kind, entry.ID)
			}
			fmt.Printf("address: %s\n", state.Address)
			return nil
		},
	}
}

// newLsCmd creates the 'ls' command.
func newLsCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "ls <address>",
		Short: "List folders and files at an address",
		Long: `Navigate to an address and print the folder's subfolders and the
requested file page.

Examples:
  loft-nav ls /Alpha
  loft-nav ls /Alpha/Images --page 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, bus, err := newNavController()
			if err != nil {
				return err
			}
			defer ctrl.Close()
			defer bus.Close()

			ctx := GetContext()
			if err := ctrl.NavigateToAddress(ctx, args[0]); err != nil {
				return err
			}

			state := ctrl.State()
			current, ok := state.Current()
			if !ok {
				return fmt.Errorf("address %q resolves to the root; give a project or folder", args[0])
			}

			// The resolved target may not be expanded yet.
			if current.Kind == models.KindFolder {
				if err := ctrl.Expand(ctx, current.ID); err != nil {
					return err
				}
				for p := 1; p < page; p++ {
					if err := ctrl.LoadNextPage(ctx, current.ID); err != nil {
						return err
					}
				}
				folder, found := ctrl.Store().Find(current.ID)
				if !found {
					return fmt.Errorf("folder %s disappeared from the store", current.ID)
				}
				printFolder(state.Address, folder.Children, folder.Files, folder.Cursor)
				return nil
			}

			if err := ctrl.ExpandProject(ctx, current.ID); err != nil {
				return err
			}
			for p := 1; p < page; p++ {
				if err := ctrl.LoadNextPage(ctx, current.ID); err != nil {
					return err
				}
			}
			project, found := ctrl.Store().FindProject(current.ID)
			if !found {
				return fmt.Errorf("project %s disappeared from the store", current.ID)
			}
			printFolder(state.Address, project.Folders, project.Files, project.Cursor)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "File page to display")
	return cmd
}

func printFolder(address string, folders []models.FolderNode, files []models.FileLeaf, cursor models.PageCursor) {
	fmt.Printf("%s\n", address)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, f := range folders {
		marker := ""
		if f.HasChildren {
			marker = "+"
		}
		fmt.Fprintf(w, "  %s/%s\t\t\n", f.Name, marker)
	}
	for _, f := range files {
		fmt.Fprintf(w, "  %s\t%d\t%s\n", f.Name, f.Size, f.ContentType)
	}
	w.Flush()

	if cursor.TotalPages > 1 {
		fmt.Printf("  page %d/%d (%d files total)\n", cursor.CurrentPage, cursor.TotalPages, cursor.TotalFiles)
	}
}
