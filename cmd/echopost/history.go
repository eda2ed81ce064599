package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/output"
)

const historyPreviewLen = 40

// newHistoryCmd creates the history command group.
func newHistoryCmd(d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and delete published posts kept by the server",
		Long: `Browse the server's record of published posts.

Examples:
  echopost history list                 # First page, newest first
  echopost history list --page 2
  echopost history delete 12            # Delete one record
  echopost history delete 12 13 14      # Delete several
  echopost history clear --yes          # Delete everything`,
	}
	cmd.AddCommand(newHistoryListCmd(d))
	cmd.AddCommand(newHistoryDeleteCmd(d))
	cmd.AddCommand(newHistoryClearCmd(d))
	return cmd
}

func newHistoryListCmd(d *deps) *cobra.Command {
	var page, perPage int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newBaseApp(cmd, d)
			if err != nil {
				return err
			}
			return runHistoryList(cmd, a, page, perPage)
		},
	}

	cmd.Flags().IntVar(&page, "page", 0, "Page number (default: server default)")
	cmd.Flags().IntVar(&perPage, "per-page", 0, "Posts per page (default: server default)")

	return cmd
}

func runHistoryList(cmd *cobra.Command, a *app, page, perPage int) error {
	resp, err := a.client.History(cmd.Context(), page, perPage)
	if err != nil {
		return a.fail(err)
	}

	if a.printer.IsJSON() {
		return a.printer.WriteJSON(resp)
	}
	if len(resp.Posts) == 0 {
		a.printer.Println("No published posts.")
		return nil
	}
	rows := make([][]string, 0, len(resp.Posts))
	for _, post := range resp.Posts {
		rows = append(rows, []string{
			strconv.Itoa(post.ID),
			post.CreatedAt,
			post.Platforms,
			platformResults(post),
			preview(post.Content, historyPreviewLen),
		})
	}
	a.printer.Table([]string{"ID", "CREATED", "PLATFORMS", "RESULT", "CONTENT"}, rows)
	a.printer.Stderr("page %d of %d (%d posts)\n", resp.CurrentPage, resp.Pages, resp.Total)
	return nil
}

// platformResults summarizes per-platform success for the requested
// platforms only.
func platformResults(post api.HistoryPost) string {
	var parts []string
	for _, p := range strings.Split(post.Platforms, ",") {
		p = strings.TrimSpace(p)
		var ok bool
		switch p {
		case "twitter":
			ok = post.TwitterSuccess
		case "zhihu":
			ok = post.ZhihuSuccess
		default:
			continue
		}
		mark := "failed"
		if ok {
			mark = "ok"
		}
		parts = append(parts, p+":"+mark)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func preview(content string, n int) string {
	line := strings.Join(strings.Fields(content), " ")
	runes := []rune(line)
	if len(runes) > n {
		return string(runes[:n]) + "…"
	}
	return line
}

func newHistoryDeleteCmd(d *deps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete history records",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newBaseApp(cmd, d)
			if err != nil {
				return err
			}
			return runHistoryDelete(cmd, a, args)
		},
	}
}

func runHistoryDelete(cmd *cobra.Command, a *app, args []string) error {
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil || id <= 0 {
			return a.fail(output.NewUserError("invalid history id " + strconv.Quote(arg)))
		}
		ids = append(ids, id)
	}

	var ack *api.Ack
	var err error
	if len(ids) == 1 {
		ack, err = a.client.DeleteHistory(cmd.Context(), ids[0])
	} else {
		ack, err = a.client.BatchDeleteHistory(cmd.Context(), ids)
	}
	if err != nil {
		return a.fail(err)
	}
	return a.ackResult(ack, "Deleted "+strconv.Itoa(len(ids))+" record(s)", map[string]any{"ids": ids})
}

func newHistoryClearCmd(d *deps) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every history record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newBaseApp(cmd, d)
			if err != nil {
				return err
			}
			if !yes {
				return a.fail(output.NewUserError("refusing to clear history without --yes"))
			}
			ack, err := a.client.ClearHistory(cmd.Context())
			if err != nil {
				return a.fail(err)
			}
			return a.ackResult(ack, "History cleared", map[string]any{})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting all records")

	return cmd
}

// ackResult turns a refused acknowledgement into a system error and
// prints an accepted one.
func (a *app) ackResult(ack *api.Ack, fallback string, data map[string]any) error {
	if !ack.Success {
		msg := ack.Message
		if msg == "" {
			msg = "the server refused the request"
		}
		return a.fail(output.NewSystemError(msg))
	}
	message := ack.Message
	if message == "" {
		message = fallback
	}
	data["message"] = message
	return a.result(data)
}
