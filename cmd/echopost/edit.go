package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/compose"
	"github.com/gorewood/echopost/internal/draft"
	"github.com/gorewood/echopost/internal/output"
)

// newEditCmd creates the edit command.
func newEditCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <text>",
		Short: "Replace the text of the active draft",
		Long: `Replace the text of the active draft and save it.

A draft is created when none is active. Pass "-" to read the text from stdin.

Examples:
  echopost edit "Shipping echopost 1.0 today"
  echo "from a pipe" | echopost edit -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				return runEdit(cmd, a, d, args[0])
			})
		},
	}
}

func runEdit(cmd *cobra.Command, a *app, d *deps, text string) error {
	if text == "-" {
		data, err := io.ReadAll(stdin(cmd, d))
		if err != nil {
			return a.fail(output.NewUserErrorWithCause("failed to read stdin", err))
		}
		text = strings.TrimRight(string(data), "\n")
	}

	var saved draft.Draft
	var wrote bool
	err := a.do(cmd.Context(), func() error {
		a.sess.Edit(text)
		var err error
		saved, wrote, err = a.sess.SaveNow()
		return err
	})
	if err != nil {
		return a.fail(err)
	}

	limits := a.sess.Limits()
	count := limits.Count(text)
	if limits.State(count) == compose.CounterError {
		a.printer.Warn("%d characters, over the %d character limit", count, limits.Max)
	}

	data := map[string]any{
		"count":   count,
		"limit":   limits.Max,
		"counter": limits.State(count).String(),
		"saved":   wrote,
	}
	if wrote {
		data["draft_id"] = saved.ID
	}
	if !a.printer.IsJSON() {
		a.printer.Println(describeCounter(a.printer, text, limits))
		return nil
	}
	return a.result(data)
}

// stdin returns the injected reader or the command's input.
func stdin(cmd *cobra.Command, d *deps) io.Reader {
	if d.stdin != nil {
		return d.stdin
	}
	return cmd.InOrStdin()
}
