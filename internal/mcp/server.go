// Package mcp provides a Model Context Protocol server for echopost.
// It exposes drafts, attachments and publishing as MCP tools so an agent
// can prepare and publish posts through the same session a person uses.
package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/echopost/internal/session"
)

// Caller runs fn on the session's event loop and waits for it.
// eventloop.Runner satisfies it.
type Caller interface {
	Call(ctx context.Context, fn func()) error
}

// NewServer creates an MCP server with all echopost tools registered.
func NewServer(version string, loop Caller, sess *session.Session) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "echopost",
		Version: version,
	}, nil)
	registerTools(server, &tools{loop: loop, sess: sess})
	return server
}

// tools holds what every handler needs.
type tools struct {
	loop Caller
	sess *session.Session
}

// onLoop runs fn on the loop and returns the error it produced.
func (t *tools) onLoop(ctx context.Context, fn func() error) error {
	var err error
	if callErr := t.loop.Call(ctx, func() { err = fn() }); callErr != nil {
		return callErr
	}
	return err
}

func boolPtr(b bool) *bool {
	return &b
}

func readOnlyAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  boolPtr(false),
	}
}

// writeAnnotations is for local edits that lose nothing.
func writeAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(false),
	}
}

func destructiveAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(true),
		OpenWorldHint:   boolPtr(false),
	}
}

// publishAnnotations marks tools that post to the outside world.
func publishAnnotations() *mcp.ToolAnnotations {
	return &mcp.ToolAnnotations{
		DestructiveHint: boolPtr(false),
		OpenWorldHint:   boolPtr(true),
	}
}

func registerTools(server *mcp.Server, t *tools) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_list",
		Description: "List saved drafts, newest first, marking the active one.",
		Annotations: readOnlyAnnotations(),
	}, t.handleDraftList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_show",
		Description: "Show one draft by id, or the active draft when id is omitted.",
		Annotations: readOnlyAnnotations(),
	}, t.handleDraftShow)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_new",
		Description: "Start a new empty draft and make it active. Unsaved edits to the previous draft are dropped.",
		Annotations: writeAnnotations(),
	}, t.handleDraftNew)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_use",
		Description: "Make an existing draft active and load it into the composition.",
		Annotations: writeAnnotations(),
	}, t.handleDraftUse)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "draft_delete",
		Description: "Delete a draft. Deleting the active draft also clears the composition.",
		Annotations: destructiveAnnotations(),
	}, t.handleDraftDelete)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compose_get",
		Description: "Show the composition: text, character count against the limit, and attached images in order.",
		Annotations: readOnlyAnnotations(),
	}, t.handleComposeGet)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "compose_set_text",
		Description: "Replace the composition text and save it to the active draft (creating one if needed).",
		Annotations: writeAnnotations(),
	}, t.handleComposeSetText)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "attach_reorder",
		Description: "Move an attached image so it sits immediately before another one.",
		Annotations: writeAnnotations(),
	}, t.handleAttachReorder)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "attach_remove",
		Description: "Remove an attached image from the composition.",
		Annotations: destructiveAnnotations(),
	}, t.handleAttachRemove)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "publish",
		Description: "Publish the composition to the given platforms and wait for the job to finish. Returns the outcome and the job's step log.",
		Annotations: publishAnnotations(),
	}, t.handlePublish)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "publish_status",
		Description: "Show the publish controller: phase, job id, step log and the last outcome.",
		Annotations: readOnlyAnnotations(),
	}, t.handlePublishStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "cancel",
		Description: "Ask the server to cancel the running publish. Advisory: the job may still finish first.",
		Annotations: publishAnnotations(),
	}, t.handleCancel)
}
