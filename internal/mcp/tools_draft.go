package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/echopost/internal/draft"
)

// --- Shared types ---

// Image is one attached image.
type Image struct {
	ID   string `json:"id"             jsonschema:"attachment id"`
	URL  string `json:"url,omitempty"  jsonschema:"URL the server serves the image at"`
	Path string `json:"path,omitempty" jsonschema:"server-side path submitted with a publish"`
}

// DraftSummary is a draft as listed.
type DraftSummary struct {
	ID        string `json:"id"         jsonschema:"draft id"`
	Title     string `json:"title"      jsonschema:"first line of the content, shortened"`
	Images    int    `json:"images"     jsonschema:"number of attached images"`
	UpdatedAt string `json:"updated_at" jsonschema:"last save time (RFC 3339)"`
	Active    bool   `json:"active"     jsonschema:"whether this draft is bound to the composition"`
}

// DraftDetail is a draft with its full content.
type DraftDetail struct {
	ID        string  `json:"id"         jsonschema:"draft id"`
	Content   string  `json:"content"    jsonschema:"draft text"`
	Images    []Image `json:"images"     jsonschema:"attached images in order"`
	UpdatedAt string  `json:"updated_at" jsonschema:"last save time (RFC 3339)"`
	Active    bool    `json:"active"     jsonschema:"whether this draft is bound to the composition"`
}

// --- draft_list ---

// DraftListInput is the input for draft_list (no parameters).
type DraftListInput struct{}

// DraftListOutput is the output for draft_list.
type DraftListOutput struct {
	Drafts []DraftSummary `json:"drafts" jsonschema:"drafts, newest first"`
}

func (t *tools) handleDraftList(ctx context.Context, _ *mcp.CallToolRequest, _ DraftListInput) (*mcp.CallToolResult, DraftListOutput, error) {
	var out DraftListOutput
	err := t.onLoop(ctx, func() error {
		drafts, err := t.sess.Drafts().List()
		if err != nil {
			return err
		}
		activeID, err := t.sess.Drafts().ActiveID()
		if err != nil {
			return err
		}
		out.Drafts = make([]DraftSummary, 0, len(drafts))
		for _, d := range drafts {
			out.Drafts = append(out.Drafts, toDraftSummary(d, activeID))
		}
		return nil
	})
	if err != nil {
		return nil, DraftListOutput{}, err
	}
	return nil, out, nil
}

// --- draft_show ---

// DraftShowInput is the input for draft_show.
type DraftShowInput struct {
	ID string `json:"id,omitempty" jsonschema:"draft id; omit for the active draft"`
}

// DraftShowOutput is the output for draft_show.
type DraftShowOutput struct {
	Draft *DraftDetail `json:"draft,omitempty" jsonschema:"the draft, absent when no draft is active"`
}

func (t *tools) handleDraftShow(ctx context.Context, _ *mcp.CallToolRequest, input DraftShowInput) (*mcp.CallToolResult, DraftShowOutput, error) {
	var out DraftShowOutput
	err := t.onLoop(ctx, func() error {
		activeID, err := t.sess.Drafts().ActiveID()
		if err != nil {
			return err
		}
		var d *draft.Draft
		if input.ID == "" {
			if d, err = t.sess.ActiveDraft(); err != nil {
				return err
			}
		} else {
			found, err := t.sess.Drafts().Get(input.ID)
			if err != nil {
				return err
			}
			d = &found
		}
		if d != nil {
			detail := toDraftDetail(*d, activeID)
			out.Draft = &detail
		}
		return nil
	})
	if err != nil {
		return nil, DraftShowOutput{}, err
	}
	return nil, out, nil
}

// --- draft_new / draft_use ---

// DraftNewInput is the input for draft_new (no parameters).
type DraftNewInput struct{}

// DraftUseInput is the input for draft_use.
type DraftUseInput struct {
	ID string `json:"id" jsonschema:"draft id to activate (required)"`
}

// DraftOutput returns the draft a tool acted on.
type DraftOutput struct {
	Draft DraftDetail `json:"draft" jsonschema:"the draft"`
}

func (t *tools) handleDraftNew(ctx context.Context, _ *mcp.CallToolRequest, _ DraftNewInput) (*mcp.CallToolResult, DraftOutput, error) {
	var out DraftOutput
	err := t.onLoop(ctx, func() error {
		d, err := t.sess.NewDraft()
		if err != nil {
			return err
		}
		out.Draft = toDraftDetail(d, d.ID)
		return nil
	})
	if err != nil {
		return nil, DraftOutput{}, err
	}
	return nil, out, nil
}

func (t *tools) handleDraftUse(ctx context.Context, _ *mcp.CallToolRequest, input DraftUseInput) (*mcp.CallToolResult, DraftOutput, error) {
	if input.ID == "" {
		return nil, DraftOutput{}, errRequired("id")
	}
	var out DraftOutput
	err := t.onLoop(ctx, func() error {
		d, err := t.sess.LoadDraft(input.ID)
		if err != nil {
			return err
		}
		out.Draft = toDraftDetail(d, d.ID)
		return nil
	})
	if err != nil {
		return nil, DraftOutput{}, err
	}
	return nil, out, nil
}

// --- draft_delete ---

// DraftDeleteInput is the input for draft_delete.
type DraftDeleteInput struct {
	ID string `json:"id" jsonschema:"draft id to delete (required)"`
}

// DraftDeleteOutput is the output for draft_delete.
type DraftDeleteOutput struct {
	Deleted string `json:"deleted" jsonschema:"id of the deleted draft"`
}

func (t *tools) handleDraftDelete(ctx context.Context, _ *mcp.CallToolRequest, input DraftDeleteInput) (*mcp.CallToolResult, DraftDeleteOutput, error) {
	if input.ID == "" {
		return nil, DraftDeleteOutput{}, errRequired("id")
	}
	if err := t.onLoop(ctx, func() error { return t.sess.DeleteDraft(input.ID) }); err != nil {
		return nil, DraftDeleteOutput{}, err
	}
	return nil, DraftDeleteOutput{Deleted: input.ID}, nil
}
