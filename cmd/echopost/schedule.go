package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/output"
)

// newScheduleCmd creates the schedule command.
func newScheduleCmd(d *deps) *cobra.Command {
	var platforms []string
	var at string

	cmd := &cobra.Command{
		Use:   "schedule --at <time>",
		Short: "Queue the active draft for publishing later",
		Long: `Ask the server to publish the active draft at a future time.

The draft is kept; it is not cleared when the request is accepted.

--at accepts:
  - RFC 3339 timestamps: 2026-11-02T09:30:00+08:00
  - Local date and time: "2026-11-02 09:30"
  - An offset from now: 90m, 2h, 1h30m

Examples:
  echopost schedule --at 2h
  echopost schedule --at "2026-11-02 09:30" -p zhihu`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when, err := parseAtValue(at, time.Now())
			if err != nil {
				printer := newPrinter(cmd)
				exitErr := output.NewUserError(err.Error())
				printer.Error(exitErr)
				return exitErr
			}
			return withApp(cmd, d, func(cmd *cobra.Command, a *app) error {
				return runSchedule(cmd, a, platforms, when)
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "When to publish (required)")
	cmd.Flags().StringSliceVarP(&platforms, "platform", "p", nil, "Target platform (repeatable; default from config)")

	return cmd
}

func runSchedule(cmd *cobra.Command, a *app, platforms []string, at time.Time) error {
	platforms = a.platformsOrDefault(platforms)
	err := a.await(cmd.Context(), func(done func(error)) error {
		return a.sess.Schedule(cmd.Context(), platforms, at, done)
	})
	if err != nil {
		return a.fail(err)
	}
	return a.result(map[string]any{
		"message":      "Scheduled for " + at.Local().Format(time.DateTime),
		"scheduled_at": at.Format(time.RFC3339),
		"platforms":    platforms,
	})
}

// parseAtValue parses a --at value relative to now.
func parseAtValue(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("--at is required")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04", time.DateTime} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return now.Add(d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --at value %q; use RFC 3339, \"YYYY-MM-DD HH:MM\" or an offset like 2h", value)
}
