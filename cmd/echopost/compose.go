package main

import (
	"bufio"
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/attach"
	"github.com/gorewood/echopost/internal/output"
	"github.com/gorewood/echopost/internal/publish"
)

const composeHelp = `Type lines to add them to the post. Commands:
  :show                 show the post
  :clear                clear the text
  :save                 save now
  :new                  start a new draft
  :use <id>             open another draft
  :images               list images
  :move <id> <before>   move an image in front of another
  :rm <id>              remove an image
  :publish [platform]...
  :cancel               cancel the running publish
  :quit                 save and exit
`

// newComposeCmd creates the interactive compose command.
func newComposeCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "compose",
		Short: "Write the active draft interactively",
		Long: `Open the active draft in a line editor.

Each line you type is appended to the post. The draft is saved a moment after
you stop typing, and again on exit. Lines starting with ":" are commands; type
:help to list them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				return runCompose(cmd, a, d)
			})
		},
	}
}

// editor is the state of one interactive compose run.
type editor struct {
	ctx context.Context
	a   *app
}

func runCompose(cmd *cobra.Command, a *app, d *deps) error {
	e := &editor{ctx: cmd.Context(), a: a}

	var stopObserving func()
	err := a.do(e.ctx, func() error {
		stopObserving = a.sess.Publisher().Observe(a.stepPrinter(nil))
		return nil
	})
	if err != nil {
		return a.fail(err)
	}
	defer func() {
		_ = a.loop.Call(context.Background(), stopObserving)
	}()

	a.printer.Stderr("Editing the active draft. Type :help for commands.\n")
	e.show()

	scanner := bufio.NewScanner(stdin(cmd, d))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, ":") {
			quit, err := e.command(strings.Fields(line[1:]))
			if err != nil {
				a.printer.Warn("%s", commandError(err).Message)
			}
			if quit {
				break
			}
			continue
		}
		e.appendLine(line)
	}
	if err := scanner.Err(); err != nil {
		return a.fail(output.NewSystemErrorWithCause("reading input", err))
	}

	e.waitForPublish()
	if err := e.a.do(e.ctx, func() error {
		if !e.a.sess.AutosavePending() {
			return nil
		}
		_, _, err := e.a.sess.SaveNow()
		return err
	}); err != nil {
		return a.fail(err)
	}
	return e.summary()
}

func (e *editor) appendLine(line string) {
	var text string
	_ = e.a.do(e.ctx, func() error {
		text = e.a.sess.Text()
		if text != "" {
			text += "\n"
		}
		text += line
		e.a.sess.Edit(text)
		return nil
	})
	e.a.printer.Stderr("%s\n", describeCounter(e.a.printer, text, e.a.sess.Limits()))
}

// command runs one ":" command. It reports whether the editor should exit.
func (e *editor) command(fields []string) (bool, error) {
	if len(fields) == 0 {
		return false, output.NewUserError("empty command; type :help")
	}
	name, args := fields[0], fields[1:]
	sess := e.a.sess

	switch name {
	case "q", "quit", "exit":
		return true, nil
	case "help", "h":
		e.a.printer.Stderr("%s", composeHelp)
	case "show":
		e.show()
	case "clear":
		return false, e.a.do(e.ctx, func() error {
			sess.Edit("")
			return nil
		})
	case "save":
		return false, e.a.do(e.ctx, func() error {
			_, _, err := sess.SaveNow()
			return err
		})
	case "new":
		return false, e.a.do(e.ctx, func() error {
			_, err := sess.NewDraft()
			return err
		})
	case "use":
		if len(args) != 1 {
			return false, output.NewUserError("usage: :use <id>")
		}
		if err := e.a.do(e.ctx, func() error {
			_, err := sess.LoadDraft(args[0])
			return err
		}); err != nil {
			return false, err
		}
		e.show()
	case "images":
		var images []attach.Attachment
		_ = e.a.do(e.ctx, func() error {
			images = sess.Images()
			return nil
		})
		if len(images) == 0 {
			e.a.printer.Stderr("no images\n")
			return false, nil
		}
		printImages(e.a.printer, images)
	case "move":
		if len(args) != 2 {
			return false, output.NewUserError("usage: :move <id> <before-id>")
		}
		return false, e.a.do(e.ctx, func() error { return moveImage(e.a, args[0], args[1]) })
	case "rm":
		if len(args) != 1 {
			return false, output.NewUserError("usage: :rm <id>")
		}
		return false, e.a.do(e.ctx, func() error {
			if !sess.RemoveImage(args[0]) {
				return output.NewUserError("no image with id " + args[0])
			}
			return nil
		})
	case "publish":
		platforms := e.a.platformsOrDefault(args)
		return false, e.a.do(e.ctx, func() error { return sess.Publish(e.ctx, platforms) })
	case "cancel":
		return false, e.a.do(e.ctx, func() error { return sess.Cancel(e.ctx) })
	default:
		return false, output.NewUserError("unknown command :" + name + "; type :help")
	}
	return false, nil
}

func (e *editor) show() {
	var text string
	_ = e.a.do(e.ctx, func() error {
		text = e.a.sess.Text()
		return nil
	})
	if e.a.printer.IsJSON() {
		return
	}
	e.a.printer.Box("", text)
	e.a.printer.Stderr("%s\n", describeCounter(e.a.printer, text, e.a.sess.Limits()))
}

// waitForPublish blocks until a publish started in this run finishes, so
// its result is reconciled with the drafts before exit.
func (e *editor) waitForPublish() {
	finished := make(chan publish.State, 1)
	var running bool
	var stop func()
	_ = e.a.do(e.ctx, func() error {
		running = e.a.sess.Publisher().State().Phase != publish.Idle
		if running {
			stop = e.a.sess.Publisher().Observe(terminalObserver(finished))
		}
		return nil
	})
	if !running {
		return
	}
	e.a.printer.Stderr("waiting for the running publish to finish\n")
	select {
	case <-finished:
	case <-e.ctx.Done():
	}
	_ = e.a.loop.Call(context.Background(), stop)
}

// summary prints the final state in JSON mode.
func (e *editor) summary() error {
	if !e.a.printer.IsJSON() {
		return nil
	}
	var text string
	var draftID string
	err := e.a.do(e.ctx, func() error {
		text = e.a.sess.Text()
		active, err := e.a.sess.Drafts().ActiveID()
		draftID = active
		return err
	})
	if err != nil {
		return e.a.fail(err)
	}
	return e.a.result(map[string]any{"text": text, "draft_id": draftID})
}
