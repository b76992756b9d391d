package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/loftdrive/loft-nav/internal/events"
	"github.com/loftdrive/loft-nav/internal/models"
	"github.com/loftdrive/loft-nav/internal/nav"
)

// newBrowseCmd creates the interactive 'browse' command: a small REPL over
// the controller's intents, re-rendering from its event stream the way the
// desktop clients do.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactively browse the Loftdrive hierarchy",
		Long: `Open an interactive prompt over the navigation engine.

Commands:
  cd <address>    navigate to an address (e.g. /Alpha/Images)
  up              jump to the previous breadcrumb entry
  open <name>     expand a subfolder of the current position
  close <name>    collapse a subfolder
  next            load the next file page of the current folder
  ls              show the current folder
  pwd             show the breadcrumb trail
  refresh         reload the current project from the server
  quit            exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return fmt.Errorf("browse requires an interactive terminal; use 'ls' or 'resolve' in scripts")
			}

			ctrl, bus, err := newNavController()
			if err != nil {
				return err
			}
			defer ctrl.Close()
			defer bus.Close()

			errCh := bus.Subscribe(events.EventLoadError)
			go func() {
				for e := range errCh {
					if le, ok := e.(*events.LoadErrorEvent); ok {
						fmt.Fprintf(os.Stderr, "load error on %s: %v (retry the command)\n", le.FolderID, le.Err)
					}
				}
			}()

			return runBrowseLoop(ctrl)
		},
	}
}

func runBrowseLoop(ctrl *nav.Controller) error {
	scanner := bufio.NewScanner(os.Stdin)
	ctx := GetContext()

	for {
		state := ctrl.State()
		fmt.Printf("%s> ", state.Address)
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "quit", "exit", "q":
			return nil

		case "cd":
			if err := ctrl.NavigateToAddress(ctx, arg); err != nil {
				fmt.Println(err)
			}

		case "up":
			trail := ctrl.State().Trail
			if len(trail) < 2 {
				continue
			}
			if err := ctrl.NavigateToBreadcrumb(ctx, trail[len(trail)-2]); err != nil {
				fmt.Println(err)
			}

		case "open", "close":
			child, ok := findChildByName(ctrl, arg)
			if !ok {
				fmt.Printf("no subfolder named %q here\n", arg)
				continue
			}
			if verb == "open" {
				target := ctrl.State().Address + "/" + child.Name
				if err := ctrl.NavigateToAddress(ctx, target); err != nil {
					fmt.Println(err)
				}
			} else {
				ctrl.Collapse(child.ID)
			}

		case "next":
			current, ok := ctrl.State().Current()
			if !ok {
				fmt.Println("next works inside a project or folder")
				continue
			}
			if err := ctrl.LoadNextPage(ctx, current.ID); err != nil {
				fmt.Println(err)
			}

		case "ls":
			showCurrent(ctrl)

		case "pwd":
			for _, name := range ctrl.State().TrailNames() {
				fmt.Printf("%s / ", name)
			}
			fmt.Println()

		case "refresh":
			current, ok := ctrl.State().Current()
			if !ok {
				continue
			}
			ctrl.Refresh(current.ProjectID)
			if err := ctrl.LoadProjects(ctx); err != nil {
				fmt.Println(err)
			}

		default:
			fmt.Printf("unknown command %q\n", verb)
		}
	}
}

// findChildByName looks up a subfolder of the current position by display
// name.
func findChildByName(ctrl *nav.Controller, name string) (models.FolderNode, bool) {
	current, ok := ctrl.State().Current()
	if !ok {
		// At the root: match against project top-level folders is not
		// meaningful without a project selected.
		return models.FolderNode{}, false
	}

	store := ctrl.Store()
	var children []models.FolderNode
	if current.Kind == models.KindProject {
		if p, found := store.FindProject(current.ID); found {
			children = p.Folders
		}
	} else if f, found := store.Find(current.ID); found {
		children = f.Children
	}

	for _, c := range children {
		if c.Name == name {
			return c, true
		}
	}
	return models.FolderNode{}, false
}

func showCurrent(ctrl *nav.Controller) {
	state := ctrl.State()
	current, ok := state.Current()
	if !ok {
		for _, p := range ctrl.Store().Projects() {
			fmt.Printf("  %s/\n", p.Name)
		}
		return
	}

	store := ctrl.Store()
	if current.Kind == models.KindProject {
		if p, found := store.FindProject(current.ID); found {
			printFolder(state.Address, p.Folders, p.Files, p.Cursor)
		}
		return
	}
	if f, found := store.Find(current.ID); found {
		printFolder(state.Address, f.Children, f.Files, f.Cursor)
	}
}
