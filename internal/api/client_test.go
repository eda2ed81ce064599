//nolint:bodyclose // Test file uses mock responses with NopCloser bodies
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gorewood/echopost/internal/output"
)

type mockHTTPDoer struct {
	response *http.Response
	err      error
	request  *http.Request
}

func (m *mockHTTPDoer) Do(req *http.Request) (*http.Response, error) {
	m.request = req
	return m.response, m.err
}

func mockResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// newTestServer routes requests to handler and returns a client for it.
func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", time.Second)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestPublish_SendsPayload(t *testing.T) {
	var got PublishRequest
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/publish" {
			t.Errorf("request = %s %s, want POST /api/publish", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		writeJSON(t, w, map[string]any{"success": true, "job_id": "J1"})
	})

	resp, err := client.Publish(context.Background(), PublishRequest{
		Content:   "hello",
		Platforms: []string{"x"},
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !resp.Success || resp.JobID != "J1" {
		t.Errorf("Publish() = %+v", resp)
	}
	if got.Content != "hello" || !slices.Equal(got.Platforms, []string{"x"}) {
		t.Errorf("server received %+v", got)
	}
	if got.ImagePaths == nil {
		t.Error("image_paths should be sent as [] not null")
	}
}

func TestPublish_RefusalIsNotAnError(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"success": false, "message": "content is empty"})
	})

	resp, err := client.Publish(context.Background(), PublishRequest{})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if resp.Success || resp.Message != "content is empty" || resp.JobID != "" {
		t.Errorf("Publish() = %+v", resp)
	}
}

func TestStatus_DecodesJob(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/publish/status/J 1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"success":true,"job":{"status":"done","success":true,
			"steps":[{"time":"t1","message":"ok"},{"time":"t2","message":"posted"}],"message":"all good"}}`)
	})

	resp, err := client.Status(context.Background(), "J 1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if resp.Job == nil {
		t.Fatal("Job = nil")
	}
	if resp.Job.Status != StatusDone || !resp.Job.Success || len(resp.Job.Steps) != 2 {
		t.Errorf("Job = %+v", resp.Job)
	}
	if resp.Job.Steps[1].Message != "posted" {
		t.Errorf("Steps[1] = %+v", resp.Job.Steps[1])
	}
}

func TestStatus_UnknownJob(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{"success": false, "message": "job not found"})
	})

	resp, err := client.Status(context.Background(), "gone")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if resp.Success || resp.Job != nil {
		t.Errorf("Status() = %+v, want failure without job", resp)
	}
}

func TestCancel(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/publish/cancel/J1" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		writeJSON(t, w, Ack{Success: true, Message: "cancelling"})
	})

	ack, err := client.Cancel(context.Background(), "J1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if !ack.Success || ack.Message != "cancelling" {
		t.Errorf("Cancel() = %+v", ack)
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := map[JobStatus]bool{
		StatusRunning:   false,
		StatusDone:      true,
		StatusError:     true,
		StatusCancelled: true,
		"queued":        false,
	}
	for status, want := range tests {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%q.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestUpload_Multipart(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		files := r.MultipartForm.File["images"]
		if len(files) != 2 {
			t.Errorf("got %d image parts, want 2", len(files))
		}
		if len(files) > 0 && files[0].Filename != "a.png" {
			t.Errorf("first part = %q, want a.png", files[0].Filename)
		}
		_, _ = io.WriteString(w, `{"success":true,
			"images":[{"id":"1","url":"/static/uploads/1_a.png","path":"static/uploads/1_a.png"}],
			"errors":["b.txt: unsupported format"]}`)
	})

	resp, err := client.Upload(context.Background(), []File{
		{Name: "a.png", Data: strings.NewReader("png")},
		{Name: "b.txt", Data: strings.NewReader("txt")},
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !resp.Success || len(resp.Images) != 1 || resp.Images[0].Path != "static/uploads/1_a.png" {
		t.Errorf("Upload() = %+v", resp)
	}
	if len(resp.Errors) != 1 {
		t.Errorf("Errors = %v, want one", resp.Errors)
	}
}

func TestUpload_NullErrors(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"images":[],"errors":null}`)
	})
	resp, err := client.Upload(context.Background(), []File{{Name: "a.png", Data: strings.NewReader("x")}})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if resp.Errors != nil {
		t.Errorf("Errors = %v, want nil", resp.Errors)
	}
}

func TestSchedule_AddsTimestamp(t *testing.T) {
	var body map[string]any
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/scheduled" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(t, w, Ack{Success: true})
	})

	at := time.Date(2026, 12, 24, 18, 0, 0, 0, time.UTC)
	_, err := client.Schedule(context.Background(), PublishRequest{Content: "later", Platforms: []string{"x"}}, at)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if body["scheduled_at"] != "2026-12-24T18:00:00Z" {
		t.Errorf("scheduled_at = %v", body["scheduled_at"])
	}
	if body["content"] != "later" {
		t.Errorf("content = %v, want the publish fields inlined", body["content"])
	}
}

func TestRefineAndHashtags(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch r.URL.Path {
		case "/api/refine":
			writeJSON(t, w, RefineResponse{Success: true, Content: req["content"] + " #go"})
		case "/api/suggest-hashtags":
			writeJSON(t, w, HashtagResponse{Hashtags: []string{"#go", "#cli"}})
		default:
			http.NotFound(w, r)
		}
	})

	refined, err := client.Refine(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Refine() error = %v", err)
	}
	if refined.Content != "hello #go" {
		t.Errorf("Refine().Content = %q", refined.Content)
	}

	tags, err := client.SuggestHashtags(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SuggestHashtags() error = %v", err)
	}
	if !slices.Equal(tags, []string{"#go", "#cli"}) {
		t.Errorf("SuggestHashtags() = %v", tags)
	}
}

func TestHistory(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/history":
			if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("per_page") != "5" {
				t.Errorf("query = %q", r.URL.RawQuery)
			}
			_, _ = io.WriteString(w, `{"posts":[{"id":7,"content":"hi","platforms":"twitter,zhihu",
				"twitter_success":true,"zhihu_success":false,"image_paths":[],"created_at":"2026-01-01 10:00"}],
				"total":6,"pages":2,"current_page":2}`)
		case r.Method == http.MethodDelete && r.URL.Path == "/api/history/7":
			writeJSON(t, w, Ack{Success: true, Message: "deleted"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/history/clear":
			writeJSON(t, w, Ack{Success: true})
		case r.Method == http.MethodPost && r.URL.Path == "/api/history/batch-delete":
			var req struct{ IDs []int }
			_ = json.NewDecoder(r.Body).Decode(&req)
			if !slices.Equal(req.IDs, []int{1, 2}) {
				t.Errorf("ids = %v", req.IDs)
			}
			writeJSON(t, w, Ack{Success: true})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	page, err := client.History(ctx, 2, 5)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if page.Total != 6 || len(page.Posts) != 1 || page.Posts[0].Platforms != "twitter,zhihu" {
		t.Errorf("History() = %+v", page)
	}

	if ack, err := client.DeleteHistory(ctx, 7); err != nil || !ack.Success {
		t.Errorf("DeleteHistory() = %+v, %v", ack, err)
	}
	if ack, err := client.ClearHistory(ctx); err != nil || !ack.Success {
		t.Errorf("ClearHistory() = %+v, %v", ack, err)
	}
	if ack, err := client.BatchDeleteHistory(ctx, []int{1, 2}); err != nil || !ack.Success {
		t.Errorf("BatchDeleteHistory() = %+v, %v", ack, err)
	}
	if _, err := client.BatchDeleteHistory(ctx, nil); output.GetExitCode(err) != output.ExitUserError {
		t.Errorf("BatchDeleteHistory(nil) error = %v, want user error", err)
	}
}

func TestTransportFailures(t *testing.T) {
	tests := []struct {
		name        string
		doer        *mockHTTPDoer
		errContains string
	}{
		{
			name:        "network error",
			doer:        &mockHTTPDoer{err: errors.New("connection refused")},
			errContains: "request failed",
		},
		{
			name:        "non-200 status",
			doer:        &mockHTTPDoer{response: mockResponse(502, "bad gateway")},
			errContains: "status 502",
		},
		{
			name:        "malformed json",
			doer:        &mockHTTPDoer{response: mockResponse(200, "<html>")},
			errContains: "failed to parse response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewWithDoer("http://example.test", tt.doer)
			_, err := client.Status(context.Background(), "J1")
			if err == nil {
				t.Fatal("Status() expected error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.errContains)
			}
			if code := output.GetExitCode(err); code != output.ExitSystemError {
				t.Errorf("exit code = %d, want %d", code, output.ExitSystemError)
			}
		})
	}
}

func TestTransportFailure_TruncatesBody(t *testing.T) {
	doer := &mockHTTPDoer{response: mockResponse(500, strings.Repeat("x", 2000))}
	client := NewWithDoer("http://example.test", doer)

	_, err := client.Cancel(context.Background(), "J1")
	if err == nil {
		t.Fatal("Cancel() expected error")
	}
	if n := strings.Count(err.Error(), "x"); n != 500 {
		t.Errorf("quoted %d body bytes, want 500", n)
	}
	if doer.request.URL.String() != "http://example.test/api/publish/cancel/J1" {
		t.Errorf("URL = %s", doer.request.URL)
	}
}
