// Package output renders echopost command results for people and for
// scripts.
//
// Every command builds one Printer from the --json and --color flags:
//
//	isTTY := output.ResolveColorMode(colorFlag, output.IsTTY(cmd.OutOrStdout()))
//	printer := output.NewPrinter(cmd.OutOrStdout(), jsonFlag, isTTY).WithStderr(cmd.ErrOrStderr())
//
// In JSON mode results are indented objects and errors are
// {"error": "...", "code": N}. In human mode results use lipgloss styles,
// which are plain when the output is not a terminal.
//
// Printer also implements notice.Notifier, so the publish controller and
// the session can report transient notices through it.
//
// # Exit codes
//
//	ExitSuccess     0
//	ExitUserError   1  validation, bad arguments, unknown draft
//	ExitSystemError 2  server unreachable, job failed, storage I/O
//	ExitConflict    3  a publish or refine is already running
package output
