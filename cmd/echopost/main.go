// Package main provides the entry point for the echopost CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/config"
	"github.com/gorewood/echopost/internal/output"
)

// Build info set via ldflags at build time by goreleaser.
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123 -X main.date=2024-01-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// isJSONMode reads the --json persistent flag from the command hierarchy.
func isJSONMode(cmd *cobra.Command) bool {
	return boolFlag(cmd, "json")
}

func boolFlag(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup(name)
	}
	return flag != nil && flag.Value.String() == "true"
}

func stringFlag(cmd *cobra.Command, name string) string {
	flag := cmd.Flags().Lookup(name)
	if flag == nil {
		flag = cmd.Root().PersistentFlags().Lookup(name)
	}
	if flag == nil {
		return ""
	}
	return flag.Value.String()
}

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	shortCommit := commit
	if len(commit) > 7 {
		shortCommit = commit[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, shortCommit, date)
}

func main() {
	code := run()
	os.Exit(code)
}

func run() int {
	cmd := newRootCmd()
	err := fang.Execute(context.Background(), cmd, fang.WithVersion(buildVersion()))
	return output.GetExitCode(err)
}

// newRootCmd creates the root command for the echopost CLI.
func newRootCmd() *cobra.Command {
	return newRootCmdWith(nil)
}

// newRootCmdWith creates the root command. Non-nil fields of d replace the
// config, store, server client and stdin the commands would otherwise build.
func newRootCmdWith(d *deps) *cobra.Command {
	if d == nil {
		d = &deps{}
	}

	cmd := &cobra.Command{
		Use:   "echopost",
		Short: "Write short posts and publish them to several platforms",
		Long: `Echopost - compose short posts, keep drafts, and publish through an echopost server.

Echopost keeps your work local until you publish:
  - Drafts are saved automatically a moment after you stop typing
  - Images are uploaded once and can be reordered before publishing
  - Publishing runs as a server job whose progress is shown as it happens
  - A running publish can be cancelled with Ctrl-C

All commands support --json for structured output.`,
		Version:       buildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if isJSONMode(cmd) {
				printer := output.NewPrinter(cmd.OutOrStdout(), true, false)
				err := output.NewUserError("no command specified. Run 'echopost --help' for usage")
				printer.Error(err)
				return err
			}
			return cmd.Help()
		},
	}

	// Environment variables already set always win over file values.
	cmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		if err := config.LoadEnv(config.EnvFiles(config.Dir())...); err != nil {
			return output.NewUserErrorWithCause(err.Error(), err)
		}
		return nil
	}

	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("color", "auto", "Color output: auto, always or never")
	cmd.PersistentFlags().String("server", "", "Server base URL (overrides config and ECHOPOST_SERVER)")
	cmd.PersistentFlags().String("config", "", "Path to config.yaml")

	lipgloss.SetHasDarkBackground(true)

	addCommandGroups(cmd)
	addCommands(cmd, d)

	return cmd
}

// addCommandGroups defines the command groups for help output.
func addCommandGroups(cmd *cobra.Command) {
	cmd.AddGroup(&cobra.Group{ID: "write", Title: "Writing Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "publish", Title: "Publishing Commands:"})
	cmd.AddGroup(&cobra.Group{ID: "agent", Title: "Agent Commands:"})
}

// addCommands adds all subcommands with their group assignments.
func addCommands(cmd *cobra.Command, d *deps) {
	addGroupedCommand(cmd, newComposeCmd(d), "write")
	addGroupedCommand(cmd, newEditCmd(d), "write")
	addGroupedCommand(cmd, newDraftCmd(d), "write")
	addGroupedCommand(cmd, newAttachCmd(d), "write")
	addGroupedCommand(cmd, newRefineCmd(d), "write")

	addGroupedCommand(cmd, newPublishCmd(d), "publish")
	addGroupedCommand(cmd, newScheduleCmd(d), "publish")
	addGroupedCommand(cmd, newHistoryCmd(d), "publish")

	addGroupedCommand(cmd, newServeCmd(d), "agent")
}

// addGroupedCommand adds a subcommand with a group assignment.
func addGroupedCommand(parent *cobra.Command, child *cobra.Command, groupID string) {
	child.GroupID = groupID
	parent.AddCommand(child)
}
