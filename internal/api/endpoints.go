package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorewood/echopost/internal/output"
)

// File is one image to upload.
type File struct {
	Name string
	Data io.Reader
}

// Upload sends images as multipart form data, one "images" part per file.
func (c *Client) Upload(ctx context.Context, files []File) (*UploadResponse, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := form.CreateFormFile("images", f.Name)
		if err != nil {
			return nil, output.NewSystemErrorWithCause("failed to build upload", err)
		}
		if _, err := io.Copy(part, f.Data); err != nil {
			return nil, output.NewSystemErrorWithCause("failed to read "+f.Name, err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, output.NewSystemErrorWithCause("failed to build upload", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "upload"), &buf)
	if err != nil {
		return nil, output.NewSystemErrorWithCause("failed to create request", err)
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	var resp UploadResponse
	if err := c.send(httpReq, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Publish submits content for immediate publishing.
func (c *Client) Publish(ctx context.Context, req PublishRequest) (*PublishResponse, error) {
	req.ImagePaths = nonNil(req.ImagePaths)
	var resp PublishResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "publish"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the current snapshot of a job.
func (c *Client) Status(ctx context.Context, jobID string) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("api", "publish", "status", jobID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel asks the server to stop a job. The request is advisory: the job
// may still finish, and only a later Status reports the outcome.
func (c *Client) Cancel(ctx context.Context, jobID string) (*Ack, error) {
	var resp Ack
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "publish", "cancel", jobID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Schedule queues a publish for a later time.
func (c *Client) Schedule(ctx context.Context, req PublishRequest, at time.Time) (*Ack, error) {
	body := ScheduleRequest{PublishRequest: req, ScheduledAt: at.Format(time.RFC3339)}
	body.ImagePaths = nonNil(body.ImagePaths)
	var resp Ack
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "scheduled"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refine asks the AI service to rewrite content.
func (c *Client) Refine(ctx context.Context, content string) (*RefineResponse, error) {
	var resp RefineResponse
	body := map[string]string{"content": content}
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "refine"), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SuggestHashtags asks the AI service for hashtags matching content.
func (c *Client) SuggestHashtags(ctx context.Context, content string) ([]string, error) {
	var resp HashtagResponse
	body := map[string]string{"content": content}
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "suggest-hashtags"), body, &resp); err != nil {
		return nil, err
	}
	return resp.Hashtags, nil
}

// History lists published posts. Non-positive page or perPage values let
// the server pick its defaults.
func (c *Client) History(ctx context.Context, page, perPage int) (*HistoryPage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	target := c.endpoint("api", "history")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var resp HistoryPage
	if err := c.doJSON(ctx, http.MethodGet, target, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteHistory removes one history record.
func (c *Client) DeleteHistory(ctx context.Context, id int) (*Ack, error) {
	var resp Ack
	target := c.endpoint("api", "history", strconv.Itoa(id))
	if err := c.doJSON(ctx, http.MethodDelete, target, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearHistory removes every history record.
func (c *Client) ClearHistory(ctx context.Context) (*Ack, error) {
	var resp Ack
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "history", "clear"), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchDeleteHistory removes the given history records.
func (c *Client) BatchDeleteHistory(ctx context.Context, ids []int) (*Ack, error) {
	if len(ids) == 0 {
		return nil, output.NewUserError("no history ids given")
	}
	var resp Ack
	body := map[string][]int{"ids": ids}
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("api", "history", "batch-delete"), body, &resp); err != nil {
		return nil, fmt.Errorf("batch delete: %w", err)
	}
	return &resp, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
