package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/output"
	"github.com/gorewood/echopost/internal/publish"
)

// newPublishCmd creates the publish command.
func newPublishCmd(d *deps) *cobra.Command {
	var platforms []string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish the active draft and wait for the job to finish",
		Long: `Publish the active draft to one or more platforms.

The server runs the publish as a job. Progress steps are printed as they
arrive. Press Ctrl-C once to ask the server to cancel; the command keeps
waiting for the job's final status. Press Ctrl-C again to stop waiting.

On success the draft is deleted and the editor is cleared. On failure the
text is kept so you can retry.

Examples:
  echopost publish                        # Configured default platforms
  echopost publish -p twitter             # One platform
  echopost publish -p twitter -p zhihu --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				return runPublish(cmd, a, platforms)
			})
		},
	}

	cmd.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "Target platform (repeatable; default from config)")

	return cmd
}

func runPublish(cmd *cobra.Command, a *app, platforms []string) error {
	ctx := cmd.Context()
	platforms = a.platformsOrDefault(platforms)

	finished := make(chan publish.State, 1)
	var stopObserving func()
	err := a.do(ctx, func() error {
		stopObserving = a.sess.Publisher().Observe(a.stepPrinter(finished))
		if err := a.sess.Publish(ctx, platforms); err != nil {
			stopObserving()
			return err
		}
		return nil
	})
	if err != nil {
		return a.fail(err)
	}
	defer func() {
		_ = a.loop.Call(context.Background(), stopObserving)
	}()
	a.printer.Stderr("Publishing to %s\n", strings.Join(platforms, ", "))

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	cancelSent := false
	for {
		select {
		case s := <-finished:
			return a.publishResult(s)
		case <-interrupts:
			if cancelSent {
				return a.fail(output.NewSystemError("stopped waiting; the publish job may still be running"))
			}
			err := a.do(ctx, func() error { return a.sess.Cancel(context.WithoutCancel(ctx)) })
			if err != nil {
				a.printer.Warn("cannot cancel yet: %v", err)
				continue
			}
			cancelSent = true
		case <-ctx.Done():
			return a.fail(ctx.Err())
		}
	}
}

// stepPrinter returns an observer that prints new progress steps and
// hands the terminal state to finished. It runs on the loop.
func (a *app) stepPrinter(finished chan<- publish.State) func(publish.State) {
	printed := 0
	return func(s publish.State) {
		if len(s.Steps) < printed {
			printed = 0
		}
		if !a.printer.IsJSON() {
			for _, step := range s.Steps[printed:] {
				a.printer.Step(step.Time, step.Message)
			}
		}
		printed = len(s.Steps)
		signalTerminal(finished, s)
	}
}

// terminalObserver hands the first terminal state to finished.
func terminalObserver(finished chan<- publish.State) func(publish.State) {
	return func(s publish.State) { signalTerminal(finished, s) }
}

// signalTerminal never blocks; a nil channel is ignored.
func signalTerminal(finished chan<- publish.State, s publish.State) {
	if s.Phase != publish.Idle || s.Outcome == nil {
		return
	}
	select {
	case finished <- s:
	default:
	}
}

// publishResult prints a terminal state. Anything but success is an error.
func (a *app) publishResult(s publish.State) error {
	outcome := s.Outcome
	if !outcome.OK() {
		msg := outcome.Message
		if msg == "" {
			msg = "publish " + outcome.Kind.String()
		}
		return a.fail(output.NewSystemError(msg))
	}

	message := outcome.Message
	if message == "" {
		message = "Published"
	}
	return a.result(map[string]any{
		"message": message,
		"result":  outcome.Kind.String(),
		"job_id":  outcome.JobID,
		"steps":   stepsJSON(s.Steps),
	})
}

func stepsJSON(steps []api.Step) []map[string]string {
	out := make([]map[string]string, 0, len(steps))
	for _, s := range steps {
		out = append(out, map[string]string{"time": s.Time, "message": s.Message})
	}
	return out
}
