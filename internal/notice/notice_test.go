package notice

import (
	"slices"
	"testing"
)

func TestOf(t *testing.T) {
	n := Of(Error, "upload failed: %d of %d", 1, 3)
	if n.Message != "upload failed: 1 of 3" || n.Severity != Error {
		t.Errorf("Of() = %+v", n)
	}

	if got := Of(Info, "draft saved").Message; got != "draft saved" {
		t.Errorf("Of(no args).Message = %q", got)
	}
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	if rec.Last() != (Notice{}) {
		t.Error("Last() on empty recorder should be the zero Notice")
	}

	var n Notifier = &rec
	n.Notify(Of(Info, "a"))
	n.Notify(Of(Success, "b"))

	if got := rec.Messages(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Messages() = %v", got)
	}
	if rec.Last().Severity != Success {
		t.Errorf("Last().Severity = %v, want success", rec.Last().Severity)
	}
}

func TestSeverityString(t *testing.T) {
	for sev, want := range map[Severity]string{Info: "info", Success: "success", Error: "error"} {
		if got := sev.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", sev, got, want)
		}
	}
}

func TestNew_KeepsMessageVerbatim(t *testing.T) {
	n := New(Error, "quota at 100% for %s")
	if n.Message != "quota at 100% for %s" || n.Severity != Error {
		t.Errorf("New() = %+v", n)
	}
}
