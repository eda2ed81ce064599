package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/attach"
	"github.com/gorewood/echopost/internal/config"
	"github.com/gorewood/echopost/internal/draft"
)

// fakeClient is a scripted echopost server. Responses left nil fall back
// to plain success.
type fakeClient struct {
	mu sync.Mutex

	publishResp *api.PublishResponse
	published   []api.PublishRequest
	// statuses are returned in order; the last one repeats.
	statuses []*api.StatusResponse
	cancels  int

	uploadResp  *api.UploadResponse
	uploaded    []string
	scheduleAck *api.Ack
	scheduled   []time.Time
	refineResp  *api.RefineResponse
	refined     []string
	hashtags    []string

	history  *api.HistoryPage
	deleted  []int
	batch    [][]int
	cleared  int
	ackReply *api.Ack
}

func (f *fakeClient) Publish(_ context.Context, req api.PublishRequest) (*api.PublishResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, req)
	if f.publishResp == nil {
		return &api.PublishResponse{Success: true, JobID: "J1"}, nil
	}
	return f.publishResp, nil
}

func (f *fakeClient) Status(context.Context, string) (*api.StatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch len(f.statuses) {
	case 0:
		return &api.StatusResponse{Success: true, Job: &api.Job{Status: api.StatusDone, Success: true}}, nil
	case 1:
		return f.statuses[0], nil
	}
	next := f.statuses[0]
	f.statuses = f.statuses[1:]
	return next, nil
}

func (f *fakeClient) Cancel(context.Context, string) (*api.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return &api.Ack{Success: true}, nil
}

func (f *fakeClient) Upload(_ context.Context, files []api.File) (*api.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range files {
		data, err := io.ReadAll(file.Data)
		if err != nil {
			return nil, err
		}
		f.uploaded = append(f.uploaded, file.Name+"="+string(data))
	}
	if f.uploadResp == nil {
		return &api.UploadResponse{Success: true}, nil
	}
	return f.uploadResp, nil
}

func (f *fakeClient) Schedule(_ context.Context, _ api.PublishRequest, at time.Time) (*api.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduled = append(f.scheduled, at)
	return f.ack(f.scheduleAck), nil
}

func (f *fakeClient) Refine(_ context.Context, content string) (*api.RefineResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refined = append(f.refined, content)
	if f.refineResp == nil {
		return &api.RefineResponse{Success: true, Content: content}, nil
	}
	return f.refineResp, nil
}

func (f *fakeClient) SuggestHashtags(context.Context, string) ([]string, error) {
	return f.hashtags, nil
}

func (f *fakeClient) History(context.Context, int, int) (*api.HistoryPage, error) {
	if f.history == nil {
		return &api.HistoryPage{Posts: []api.HistoryPost{}, Pages: 1, CurrentPage: 1}, nil
	}
	return f.history, nil
}

func (f *fakeClient) DeleteHistory(_ context.Context, id int) (*api.Ack, error) {
	f.deleted = append(f.deleted, id)
	return f.ack(f.ackReply), nil
}

func (f *fakeClient) ClearHistory(context.Context) (*api.Ack, error) {
	f.cleared++
	return f.ack(f.ackReply), nil
}

func (f *fakeClient) BatchDeleteHistory(_ context.Context, ids []int) (*api.Ack, error) {
	f.batch = append(f.batch, ids)
	return f.ack(f.ackReply), nil
}

func (f *fakeClient) ack(reply *api.Ack) *api.Ack {
	if reply == nil {
		return &api.Ack{Success: true}
	}
	return reply
}

// testEnv runs commands against a memory store and a fake server.
type testEnv struct {
	t      *testing.T
	deps   *deps
	client *fakeClient
	store  *draft.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("ECHOPOST_CONFIG_HOME", t.TempDir())

	cfg := config.Default(t.TempDir())
	cfg.Store.Backend = config.BackendMemory
	cfg.Timing.PollInterval = 5 * time.Millisecond
	// Long enough never to fire during a test; closing the app flushes.
	cfg.Timing.AutosaveDelay = time.Hour
	cfg.Timing.DismissDelay = time.Hour

	ids := 0
	env := &testEnv{t: t, client: &fakeClient{}, store: draft.NewMemoryStore()}
	env.deps = &deps{
		config: cfg,
		store:  env.store,
		client: env.client,
		newID: func() string {
			ids++
			return fmt.Sprintf("D%d", ids)
		},
	}
	return env
}

// seed stores drafts and makes active the active one ("" for none).
func (e *testEnv) seed(active string, drafts ...draft.Draft) {
	e.t.Helper()
	if err := e.store.SaveDrafts(drafts); err != nil {
		e.t.Fatal(err)
	}
	if err := e.store.SetActiveDraftID(active); err != nil {
		e.t.Fatal(err)
	}
}

// run executes the root command and returns stdout, stderr and the error.
func (e *testEnv) run(args ...string) (string, string, error) {
	e.t.Helper()
	cmd := newRootCmdWith(e.deps)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// runJSON runs with --json and decodes stdout as one object.
func (e *testEnv) runJSON(args ...string) (map[string]any, error) {
	e.t.Helper()
	stdout, _, err := e.run(append(args, "--json")...)
	var result map[string]any
	if jsonErr := json.Unmarshal([]byte(stdout), &result); jsonErr != nil {
		e.t.Fatalf("stdout is not one JSON object: %v\n%s", jsonErr, stdout)
	}
	return result, err
}

// drafts returns the stored drafts.
func (e *testEnv) drafts() []draft.Draft {
	e.t.Helper()
	drafts, err := e.store.ListDrafts()
	if err != nil {
		e.t.Fatal(err)
	}
	return drafts
}

func (e *testEnv) activeID() string {
	e.t.Helper()
	id, err := e.store.ActiveDraftID()
	if err != nil {
		e.t.Fatal(err)
	}
	return id
}

func img(id string) attach.Attachment {
	return attach.Attachment{ID: id, URL: "/uploads/" + id + ".png", Path: "uploads/" + id + ".png"}
}

func imageIDs(images []attach.Attachment) []string {
	ids := make([]string, 0, len(images))
	for _, a := range images {
		ids = append(ids, a.ID)
	}
	return ids
}
