package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// newRefineCmd creates the refine command.
func newRefineCmd(d *deps) *cobra.Command {
	var hashtags bool

	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Rewrite the active draft with the server's AI helper",
		Long: `Send the active draft to the server's AI helper.

By default the draft text is replaced with the rewritten version and saved.
With --hashtags the server suggests hashtags instead and the text is not changed.

Examples:
  echopost refine
  echopost refine --hashtags`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				if hashtags {
					return runHashtags(cmd, a)
				}
				return runRefine(cmd, a)
			})
		},
	}

	cmd.Flags().BoolVar(&hashtags, "hashtags", false, "Suggest hashtags instead of rewriting")

	return cmd
}

func runRefine(cmd *cobra.Command, a *app) error {
	err := a.await(cmd.Context(), func(done func(error)) error {
		return a.sess.Refine(cmd.Context(), done)
	})
	if err != nil {
		return a.fail(err)
	}

	var text string
	if err := a.do(cmd.Context(), func() error {
		text = a.sess.Text()
		_, _, err := a.sess.SaveNow()
		return err
	}); err != nil {
		return a.fail(err)
	}

	limits := a.sess.Limits()
	if !a.printer.IsJSON() {
		a.printer.Box("Refined", text)
		a.printer.KeyValue("Length", describeCounter(a.printer, text, limits))
		return nil
	}
	count := limits.Count(text)
	return a.result(map[string]any{
		"content": text,
		"count":   count,
		"limit":   limits.Max,
		"counter": limits.State(count).String(),
	})
}

func runHashtags(cmd *cobra.Command, a *app) error {
	var tags []string
	err := a.await(cmd.Context(), func(done func(error)) error {
		return a.sess.SuggestHashtags(cmd.Context(), func(got []string, err error) {
			tags = got
			done(err)
		})
	})
	if err != nil {
		return a.fail(err)
	}
	if tags == nil {
		tags = []string{}
	}

	if !a.printer.IsJSON() {
		if len(tags) == 0 {
			a.printer.Println("No suggestions.")
			return nil
		}
		a.printer.Println(strings.Join(tags, " "))
		return nil
	}
	return a.result(map[string]any{"hashtags": tags})
}
