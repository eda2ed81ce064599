package mcp

import (
	"time"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/attach"
	"github.com/gorewood/echopost/internal/draft"
	"github.com/gorewood/echopost/internal/publish"
)

const titleLen = 50

func toImages(items []attach.Attachment) []Image {
	out := make([]Image, 0, len(items))
	for _, a := range items {
		out = append(out, Image{ID: a.ID, URL: a.URL, Path: a.Path})
	}
	return out
}

func toDraftSummary(d draft.Draft, activeID string) DraftSummary {
	return DraftSummary{
		ID:        d.ID,
		Title:     d.Title(titleLen),
		Images:    len(d.Images),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
		Active:    d.ID == activeID,
	}
}

func toDraftDetail(d draft.Draft, activeID string) DraftDetail {
	return DraftDetail{
		ID:        d.ID,
		Content:   d.Content,
		Images:    toImages(d.Images),
		UpdatedAt: d.UpdatedAt.Format(time.RFC3339),
		Active:    d.ID == activeID,
	}
}

func toSteps(steps []api.Step) []Step {
	out := make([]Step, 0, len(steps))
	for _, s := range steps {
		out = append(out, Step{Time: s.Time, Message: s.Message})
	}
	return out
}

func toPublishState(s publish.State) PublishState {
	out := PublishState{
		Phase:     s.Phase.String(),
		JobID:     s.JobID,
		Steps:     toSteps(s.Steps),
		CanSubmit: s.CanSubmit(),
		CanCancel: s.CanCancel(),
	}
	if s.Outcome != nil {
		out.Outcome = &Outcome{
			Result:  s.Outcome.Kind.String(),
			JobID:   s.Outcome.JobID,
			Message: s.Outcome.Message,
		}
	}
	return out
}
