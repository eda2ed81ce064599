package main

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/attach"
	"github.com/gorewood/echopost/internal/draft"
	"github.com/gorewood/echopost/internal/output"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func jsonImageIDs(t *testing.T, result map[string]any) []string {
	t.Helper()
	items, ok := result["images"].([]any)
	if !ok {
		t.Fatalf("images missing: %v", result)
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.(map[string]any)["id"].(string))
	}
	return ids
}

func TestAttachUpload(t *testing.T) {
	env := newTestEnv(t)
	env.client.uploadResp = &api.UploadResponse{Success: true, Images: []attach.Attachment{img("i1"), img("i2")}}
	first := writeFile(t, "a.png", "AAA")
	second := writeFile(t, "b.png", "BBB")

	result, err := env.runJSON("attach", "upload", first, second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := jsonImageIDs(t, result); !slices.Equal(got, []string{"i1", "i2"}) {
		t.Errorf("images = %v", got)
	}
	if !slices.Equal(env.client.uploaded, []string{"a.png=AAA", "b.png=BBB"}) {
		t.Errorf("uploaded = %v", env.client.uploaded)
	}

	// Closing the command writes the pending autosave into a new draft.
	drafts := env.drafts()
	if len(drafts) != 1 || !slices.Equal(imageIDs(drafts[0].Images), []string{"i1", "i2"}) {
		t.Errorf("stored = %+v", drafts)
	}
}

func TestAttachUpload_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.run("attach", "upload", filepath.Join(t.TempDir(), "nope.png"))
		if output.GetExitCode(err) != output.ExitUserError {
			t.Errorf("exit code = %d", output.GetExitCode(err))
		}
		if len(env.client.uploaded) != 0 {
			t.Error("nothing should be uploaded")
		}
	})

	t.Run("server refuses", func(t *testing.T) {
		env := newTestEnv(t)
		env.client.uploadResp = &api.UploadResponse{Success: false, Errors: []string{"a.png: unsupported type"}}
		_, stderr, err := env.run("attach", "upload", writeFile(t, "a.png", "x"))
		if output.GetExitCode(err) != output.ExitSystemError {
			t.Errorf("exit code = %d", output.GetExitCode(err))
		}
		if !strings.Contains(stderr, "unsupported type") {
			t.Errorf("stderr = %q", stderr)
		}
		if len(env.drafts()) != 0 {
			t.Error("a refused upload must not create a draft")
		}
	})
}

func TestAttachMoveAndRemove(t *testing.T) {
	env := newTestEnv(t)
	env.seed("p", draft.Draft{ID: "p", Content: "pics", Images: []attach.Attachment{img("A"), img("B"), img("C")}})

	result, err := env.runJSON("attach", "move", "C", "A")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := jsonImageIDs(t, result); !slices.Equal(got, []string{"C", "A", "B"}) {
		t.Errorf("after move = %v", got)
	}
	if got := imageIDs(env.drafts()[0].Images); !slices.Equal(got, []string{"C", "A", "B"}) {
		t.Errorf("persisted after move = %v", got)
	}

	_, err = env.runJSON("attach", "move", "A", "Z")
	if output.GetExitCode(err) != output.ExitUserError {
		t.Errorf("move to unknown target exit code = %d", output.GetExitCode(err))
	}

	result, err = env.runJSON("attach", "remove", "A")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := jsonImageIDs(t, result); !slices.Equal(got, []string{"C", "B"}) {
		t.Errorf("after remove = %v", got)
	}
	if got := imageIDs(env.drafts()[0].Images); !slices.Equal(got, []string{"C", "B"}) {
		t.Errorf("persisted after remove = %v", got)
	}

	_, err = env.runJSON("attach", "remove", "A")
	if output.GetExitCode(err) != output.ExitUserError {
		t.Errorf("second remove exit code = %d", output.GetExitCode(err))
	}
}

func TestAttachList_Human(t *testing.T) {
	env := newTestEnv(t)
	stdout, _, err := env.run("attach", "list")
	if err != nil || !strings.Contains(stdout, "No images.") {
		t.Errorf("empty list = %q, %v", stdout, err)
	}

	env.seed("p", draft.Draft{ID: "p", Content: "pics", Images: []attach.Attachment{img("A"), img("B")}})
	stdout, _, err = env.run("attach", "list")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[1], "1  A") || !strings.HasPrefix(lines[2], "2  B") {
		t.Errorf("list =\n%s", stdout)
	}
}
