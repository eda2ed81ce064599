package main

import (
	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/draft"
	"github.com/gorewood/echopost/internal/output"
)

const draftTitleLen = 50

// newDraftCmd creates the draft command group.
func newDraftCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "List, open and delete saved drafts",
		Long: `Manage saved drafts.

Drafts are saved automatically while you write. Exactly one draft is active:
it is the one the editor opens and the one removed after a successful publish.

Examples:
  echopost draft list           # All drafts, newest first
  echopost draft show           # The active draft
  echopost draft use <id>       # Make a draft active
  echopost draft new            # Start an empty draft
  echopost draft delete <id>    # Delete a draft`,
	}
	cmd.AddCommand(newDraftListCmd(d))
	cmd.AddCommand(newDraftShowCmd(d))
	cmd.AddCommand(newDraftNewCmd(d))
	cmd.AddCommand(newDraftUseCmd(d))
	cmd.AddCommand(newDraftDeleteCmd(d))
	return cmd
}

func newDraftListCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List drafts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, runDraftList)
		},
	}
}

// withApp opens an app, runs fn and closes the app. The first error wins.
func withApp(cmd *cobra.Command, d *deps, fn func(*cobra.Command, *app) error) error {
	a, err := openApp(cmd, d)
	if err != nil {
		return err
	}
	runErr := fn(cmd, a)
	closeErr := a.close()
	if runErr != nil {
		return runErr
	}
	return closeErr
}

func runDraftList(cmd *cobra.Command, a *app) error {
	var drafts []draft.Draft
	var activeID string
	err := a.do(cmd.Context(), func() error {
		var err error
		if drafts, err = a.sess.Drafts().List(); err != nil {
			return err
		}
		activeID, err = a.sess.Drafts().ActiveID()
		return err
	})
	if err != nil {
		return a.fail(err)
	}

	if a.printer.IsJSON() {
		items := make([]map[string]any, 0, len(drafts))
		for _, dr := range drafts {
			items = append(items, draftJSON(dr, activeID))
		}
		return a.printer.WriteJSON(map[string]any{"drafts": items, "active": activeID})
	}

	if len(drafts) == 0 {
		a.printer.Println("No drafts.")
		return nil
	}
	rows := make([][]string, 0, len(drafts))
	for _, dr := range drafts {
		marker := ""
		if dr.ID == activeID {
			marker = "*"
		}
		rows = append(rows, []string{marker, dr.ID, formatTime(dr.UpdatedAt), dr.Title(draftTitleLen)})
	}
	a.printer.Table([]string{"", "ID", "UPDATED", "TITLE"}, rows)
	return nil
}

func draftJSON(dr draft.Draft, activeID string) map[string]any {
	images := make([]map[string]any, 0, len(dr.Images))
	for _, img := range dr.Images {
		images = append(images, map[string]any{"id": img.ID, "url": img.URL, "path": img.Path})
	}
	return map[string]any{
		"id":         dr.ID,
		"content":    dr.Content,
		"images":     images,
		"updated_at": dr.UpdatedAt,
		"active":     dr.ID == activeID,
	}
}

func newDraftShowCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show [<id>]",
		Short: "Show a draft (default: the active one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				return runDraftShow(cmd, a, args)
			})
		},
	}
}

func runDraftShow(cmd *cobra.Command, a *app, args []string) error {
	var dr draft.Draft
	var activeID string
	err := a.do(cmd.Context(), func() error {
		var err error
		if activeID, err = a.sess.Drafts().ActiveID(); err != nil {
			return err
		}
		id := activeID
		if len(args) > 0 {
			id = args[0]
		}
		if id == "" {
			return output.NewUserError("no active draft; pass a draft id")
		}
		dr, err = a.sess.Drafts().Get(id)
		return err
	})
	if err != nil {
		return a.fail(err)
	}

	if a.printer.IsJSON() {
		return a.printer.WriteJSON(draftJSON(dr, activeID))
	}

	title := "Draft " + dr.ID
	if dr.ID == activeID {
		title += " (active)"
	}
	a.printer.Box(title, dr.Content)
	a.printer.KeyValue("Updated", formatTime(dr.UpdatedAt))
	a.printer.KeyValue("Length", describeCounter(a.printer, dr.Content, a.sess.Limits()))
	if len(dr.Images) > 0 {
		a.printer.Section("Images")
		printImages(a.printer, dr.Images)
	}
	return nil
}

func newDraftNewCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new empty draft and make it active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				var dr draft.Draft
				err := a.do(cmd.Context(), func() error {
					var err error
					dr, err = a.sess.NewDraft()
					return err
				})
				if err != nil {
					return a.fail(err)
				}
				return a.result(map[string]any{"message": "Created draft " + dr.ID, "id": dr.ID})
			})
		},
	}
}

func newDraftUseCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Make a draft active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				var dr draft.Draft
				err := a.do(cmd.Context(), func() error {
					var err error
					dr, err = a.sess.LoadDraft(args[0])
					return err
				})
				if err != nil {
					return a.fail(err)
				}
				return a.result(map[string]any{"message": "Now editing draft " + dr.ID, "id": dr.ID})
			})
		},
	}
}

func newDraftDeleteCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				if err := a.do(cmd.Context(), func() error { return a.sess.DeleteDraft(args[0]) }); err != nil {
					return a.fail(err)
				}
				return a.result(map[string]any{"message": "Deleted draft " + args[0], "id": args[0], "deleted": true})
			})
		},
	}
}
