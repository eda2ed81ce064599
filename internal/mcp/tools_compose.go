package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func errRequired(field string) error {
	return fmt.Errorf("%s is required", field)
}

// --- compose_get ---

// ComposeGetInput is the input for compose_get (no parameters).
type ComposeGetInput struct{}

// ComposeOutput describes the composition.
type ComposeOutput struct {
	Text    string  `json:"text"     jsonschema:"current text"`
	Count   int     `json:"count"    jsonschema:"character count (Unicode code points)"`
	Limit   int     `json:"limit"    jsonschema:"maximum characters accepted by publish"`
	Counter string  `json:"counter"  jsonschema:"ok, warning or error"`
	Images  []Image `json:"images"   jsonschema:"attached images in order"`
	DraftID string  `json:"draft_id" jsonschema:"active draft id, empty when none"`
	Unsaved bool    `json:"unsaved"  jsonschema:"whether an autosave is pending"`
}

func (t *tools) composeOutput() (ComposeOutput, error) {
	count, state := t.sess.Counter()
	activeID, err := t.sess.Drafts().ActiveID()
	if err != nil {
		return ComposeOutput{}, err
	}
	return ComposeOutput{
		Text:    t.sess.Text(),
		Count:   count,
		Limit:   t.sess.Limits().Max,
		Counter: state.String(),
		Images:  toImages(t.sess.Images()),
		DraftID: activeID,
		Unsaved: t.sess.AutosavePending(),
	}, nil
}

func (t *tools) handleComposeGet(ctx context.Context, _ *mcp.CallToolRequest, _ ComposeGetInput) (*mcp.CallToolResult, ComposeOutput, error) {
	var out ComposeOutput
	err := t.onLoop(ctx, func() error {
		var err error
		out, err = t.composeOutput()
		return err
	})
	if err != nil {
		return nil, ComposeOutput{}, err
	}
	return nil, out, nil
}

// --- compose_set_text ---

// ComposeSetTextInput is the input for compose_set_text.
type ComposeSetTextInput struct {
	Text string `json:"text" jsonschema:"new text for the composition"`
}

func (t *tools) handleComposeSetText(ctx context.Context, _ *mcp.CallToolRequest, input ComposeSetTextInput) (*mcp.CallToolResult, ComposeOutput, error) {
	var out ComposeOutput
	err := t.onLoop(ctx, func() error {
		t.sess.Edit(input.Text)
		if _, _, err := t.sess.SaveNow(); err != nil {
			return fmt.Errorf("saving draft: %w", err)
		}
		var err error
		out, err = t.composeOutput()
		return err
	})
	if err != nil {
		return nil, ComposeOutput{}, err
	}
	return nil, out, nil
}

// --- attach_reorder / attach_remove ---

// AttachReorderInput is the input for attach_reorder.
type AttachReorderInput struct {
	ID     string `json:"id"     jsonschema:"attachment to move (required)"`
	Before string `json:"before" jsonschema:"attachment it should end up immediately before (required)"`
}

// AttachRemoveInput is the input for attach_remove.
type AttachRemoveInput struct {
	ID string `json:"id" jsonschema:"attachment to remove (required)"`
}

// AttachOutput lists the attachments after a change.
type AttachOutput struct {
	Changed bool    `json:"changed" jsonschema:"false when the request was a no-op"`
	Images  []Image `json:"images"  jsonschema:"attached images in order"`
}

var errUnknownImage = errors.New("no attachment with that id")

func (t *tools) handleAttachReorder(ctx context.Context, _ *mcp.CallToolRequest, input AttachReorderInput) (*mcp.CallToolResult, AttachOutput, error) {
	if input.ID == "" || input.Before == "" {
		return nil, AttachOutput{}, errRequired("id and before")
	}
	var out AttachOutput
	err := t.onLoop(ctx, func() error {
		out.Changed = t.sess.ReorderImages(input.ID, input.Before)
		out.Images = toImages(t.sess.Images())
		return nil
	})
	if err != nil {
		return nil, AttachOutput{}, err
	}
	return nil, out, nil
}

func (t *tools) handleAttachRemove(ctx context.Context, _ *mcp.CallToolRequest, input AttachRemoveInput) (*mcp.CallToolResult, AttachOutput, error) {
	if input.ID == "" {
		return nil, AttachOutput{}, errRequired("id")
	}
	var out AttachOutput
	err := t.onLoop(ctx, func() error {
		if !t.sess.RemoveImage(input.ID) {
			return fmt.Errorf("%w: %s", errUnknownImage, input.ID)
		}
		out.Changed = true
		out.Images = toImages(t.sess.Images())
		return nil
	})
	if err != nil {
		return nil, AttachOutput{}, err
	}
	return nil, out, nil
}
