package draft

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/gorewood/echopost/internal/attach"
	"github.com/gorewood/echopost/internal/eventloop"
)

// DefaultAutosaveDelay is the quiet period after the last edit before a save.
const DefaultAutosaveDelay = 2 * time.Second

// Source is the composition being autosaved.
type Source interface {
	Snapshot() (string, []attach.Attachment)
	IsEmpty() bool
}

// Autosaver debounces edits into draft writes. Each Touch restarts a single
// timer; only the last edit in a burst produces a write. An Autosaver is
// bound to its loop and must only be used from loop callbacks.
type Autosaver struct {
	loop    eventloop.Loop
	drafts  *Manager
	source  Source
	delay   time.Duration
	log     zerolog.Logger
	pending eventloop.Timer
}

// NewAutosaver creates an Autosaver. A non-positive delay uses
// DefaultAutosaveDelay.
func NewAutosaver(loop eventloop.Loop, drafts *Manager, source Source, delay time.Duration, log zerolog.Logger) *Autosaver {
	if delay <= 0 {
		delay = DefaultAutosaveDelay
	}
	return &Autosaver{loop: loop, drafts: drafts, source: source, delay: delay, log: log}
}

// Touch records an edit and (re)starts the debounce timer.
func (a *Autosaver) Touch() {
	a.Cancel()
	a.pending = a.loop.AfterFunc(a.delay, func() {
		a.pending = nil
		if _, _, err := a.save(); err != nil {
			// Storage failures are silent; the next edit retries.
			a.log.Debug().Err(err).Msg("autosave failed")
		}
	})
}

// Cancel drops a pending save, if any.
func (a *Autosaver) Cancel() {
	if a.pending != nil {
		a.pending.Stop()
		a.pending = nil
	}
}

// Pending reports whether a save is scheduled.
func (a *Autosaver) Pending() bool {
	return a.pending != nil
}

// Flush saves immediately, cancelling any pending timer. It reports
// whether anything was written; an empty composition with no active draft
// writes nothing.
func (a *Autosaver) Flush() (Draft, bool, error) {
	a.Cancel()
	return a.save()
}

func (a *Autosaver) save() (Draft, bool, error) {
	active, err := a.drafts.Active()
	if err != nil {
		return Draft{}, false, err
	}
	text, images := a.source.Snapshot()

	if active == nil {
		if a.source.IsEmpty() {
			return Draft{}, false, nil
		}
		d, err := a.drafts.Create(text, images)
		if err != nil {
			return Draft{}, false, err
		}
		a.log.Debug().Str("draft_id", d.ID).Msg("draft created")
		return d, true, nil
	}

	d, err := a.drafts.Update(active.ID, text, images)
	if err != nil {
		return Draft{}, false, err
	}
	a.log.Debug().Str("draft_id", d.ID).Msg("draft saved")
	return d, true, nil
}
