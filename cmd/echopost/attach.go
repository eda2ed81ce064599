package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/attach"
	"github.com/gorewood/echopost/internal/output"
)

// newAttachCmd creates the attach command group.
func newAttachCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Upload, order and remove images on the active draft",
		Long: `Manage the images attached to the active draft.

Images are published in list order. Use move to put one image in front of another.

Examples:
  echopost attach upload a.png b.jpg     # Upload and append
  echopost attach list                   # Show images in order
  echopost attach move <id> <before-id>  # Move <id> in front of <before-id>
  echopost attach remove <id>            # Drop an image`,
	}
	cmd.AddCommand(newAttachUploadCmd(d))
	cmd.AddCommand(newAttachListCmd(d))
	cmd.AddCommand(newAttachRemoveCmd(d))
	cmd.AddCommand(newAttachMoveCmd(d))
	return cmd
}

func newAttachUploadCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload images and append them to the active draft",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				return runAttachUpload(cmd, a, args)
			})
		},
	}
}

func runAttachUpload(cmd *cobra.Command, a *app, paths []string) error {
	files := make([]api.File, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return a.fail(output.NewUserErrorWithCause("cannot read "+path, err))
		}
		defer f.Close()
		files = append(files, api.File{Name: filepath.Base(path), Data: f})
	}

	err := a.await(cmd.Context(), func(done func(error)) error {
		a.sess.Upload(cmd.Context(), files, done)
		return nil
	})
	if err != nil {
		return a.fail(err)
	}
	return a.imagesResult(cmd)
}

func newAttachListCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List images on the active draft, in publish order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				return a.imagesResult(cmd)
			})
		},
	}
}

func newAttachRemoveCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				err := a.do(cmd.Context(), func() error {
					if !a.sess.RemoveImage(args[0]) {
						return output.NewUserError("no image with id " + args[0])
					}
					return nil
				})
				if err != nil {
					return a.fail(err)
				}
				return a.imagesResult(cmd)
			})
		},
	}
}

func newAttachMoveCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <before-id>",
		Short: "Move an image so it sits just before another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				err := a.do(cmd.Context(), func() error {
					return moveImage(a, args[0], args[1])
				})
				if err != nil {
					return a.fail(err)
				}
				return a.imagesResult(cmd)
			})
		},
	}
}

// moveImage reorders on the loop. Moving an image before itself is
// accepted and changes nothing.
func moveImage(a *app, id, before string) error {
	images := attach.NewList(a.sess.Images()...)
	for _, want := range []string{id, before} {
		if images.Index(want) < 0 {
			return output.NewUserError("no image with id " + want)
		}
	}
	a.sess.ReorderImages(id, before)
	return nil
}

// imagesResult prints the active draft's images.
func (a *app) imagesResult(cmd *cobra.Command) error {
	var images []attach.Attachment
	_ = a.do(cmd.Context(), func() error {
		images = a.sess.Images()
		return nil
	})

	if a.printer.IsJSON() {
		items := make([]map[string]any, 0, len(images))
		for _, img := range images {
			items = append(items, map[string]any{"id": img.ID, "url": img.URL, "path": img.Path})
		}
		return a.result(map[string]any{"images": items})
	}
	if len(images) == 0 {
		a.printer.Println("No images.")
		return nil
	}
	printImages(a.printer, images)
	return nil
}

func printImages(p *output.Printer, images []attach.Attachment) {
	rows := make([][]string, 0, len(images))
	for i, img := range images {
		rows = append(rows, []string{strconv.Itoa(i + 1), img.ID, img.Path})
	}
	p.Table([]string{"#", "ID", "PATH"}, rows)
}
