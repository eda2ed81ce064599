package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gorewood/echopost/internal/publish"
)

// Step is one line of a job's progress log.
type Step struct {
	Time    string `json:"time"    jsonschema:"server timestamp"`
	Message string `json:"message" jsonschema:"progress message"`
}

// Outcome is how the last publish ended.
type Outcome struct {
	Result  string `json:"result"           jsonschema:"succeeded, failed, cancelled, rejected or transport_failed"`
	JobID   string `json:"job_id,omitempty" jsonschema:"server job id, empty if the job never started"`
	Message string `json:"message"          jsonschema:"server or client message"`
}

// PublishState is a snapshot of the publish controller.
type PublishState struct {
	Phase     string   `json:"phase"             jsonschema:"idle, submitting, polling or cancelling"`
	JobID     string   `json:"job_id,omitempty"  jsonschema:"job being tracked"`
	Steps     []Step   `json:"steps"             jsonschema:"latest progress log"`
	Outcome   *Outcome `json:"outcome,omitempty" jsonschema:"result of the most recent publish"`
	CanSubmit bool     `json:"can_submit"        jsonschema:"whether publish would be accepted now"`
	CanCancel bool     `json:"can_cancel"        jsonschema:"whether cancel would be accepted now"`
}

// --- publish ---

// PublishInput is the input for publish.
type PublishInput struct {
	Platforms []string `json:"platforms" jsonschema:"target platforms, e.g. twitter or zhihu (required)"`
}

func (t *tools) handlePublish(ctx context.Context, _ *mcp.CallToolRequest, input PublishInput) (*mcp.CallToolResult, PublishState, error) {
	finished := make(chan publish.State, 1)
	var stopObserving func()

	// The job outlives this call if the client gives up waiting.
	jobCtx := context.WithoutCancel(ctx)
	err := t.onLoop(ctx, func() error {
		if err := t.sess.Publish(jobCtx, input.Platforms); err != nil {
			return err
		}
		stopObserving = t.sess.Publisher().Observe(func(s publish.State) {
			if s.Phase != publish.Idle || s.Outcome == nil {
				return
			}
			select {
			case finished <- s:
			default:
			}
		})
		return nil
	})
	if err != nil {
		return nil, PublishState{}, err
	}
	defer func() {
		_ = t.loop.Call(context.WithoutCancel(ctx), stopObserving)
	}()

	select {
	case s := <-finished:
		return nil, toPublishState(s), nil
	case <-ctx.Done():
		return nil, PublishState{}, ctx.Err()
	}
}

// --- publish_status ---

// PublishStatusInput is the input for publish_status (no parameters).
type PublishStatusInput struct{}

func (t *tools) handlePublishStatus(ctx context.Context, _ *mcp.CallToolRequest, _ PublishStatusInput) (*mcp.CallToolResult, PublishState, error) {
	var s publish.State
	if err := t.loop.Call(ctx, func() { s = t.sess.Publisher().State() }); err != nil {
		return nil, PublishState{}, err
	}
	return nil, toPublishState(s), nil
}

// --- cancel ---

// CancelInput is the input for cancel (no parameters).
type CancelInput struct{}

func (t *tools) handleCancel(ctx context.Context, _ *mcp.CallToolRequest, _ CancelInput) (*mcp.CallToolResult, PublishState, error) {
	var s publish.State
	err := t.onLoop(ctx, func() error {
		if err := t.sess.Cancel(context.WithoutCancel(ctx)); err != nil {
			return err
		}
		s = t.sess.Publisher().State()
		return nil
	})
	if err != nil {
		return nil, PublishState{}, err
	}
	return nil, toPublishState(s), nil
}
