// Package session owns one editing session: the composition, the draft it
// is bound to, the autosave timer, and the publish controller.
//
// A Session is bound to an event loop. Every method must run on that loop;
// callers on other goroutines go through eventloop.Runner.Call. Methods that
// talk to the server return immediately and report completion through a
// done callback, which also runs on the loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/attach"
	"github.com/gorewood/echopost/internal/compose"
	"github.com/gorewood/echopost/internal/draft"
	"github.com/gorewood/echopost/internal/eventloop"
	"github.com/gorewood/echopost/internal/logging"
	"github.com/gorewood/echopost/internal/notice"
	"github.com/gorewood/echopost/internal/publish"
)

// Errors returned by Session operations.
var (
	ErrAIBusy       = errors.New("an AI request is already in progress")
	ErrRejected     = errors.New("rejected by server")
	ErrScheduleTime = errors.New("scheduled time must be in the future")
	ErrNoFiles      = errors.New("no files to upload")
)

// Client is the part of the publishing service a session uses.
type Client interface {
	publish.API
	Upload(ctx context.Context, files []api.File) (*api.UploadResponse, error)
	Schedule(ctx context.Context, req api.PublishRequest, at time.Time) (*api.Ack, error)
	Refine(ctx context.Context, content string) (*api.RefineResponse, error)
	SuggestHashtags(ctx context.Context, content string) ([]string, error)
}

// Options tunes a Session. Zero values select defaults.
type Options struct {
	Limits        compose.Limits
	AutosaveDelay time.Duration
	PollInterval  time.Duration
	DismissDelay  time.Duration
	Notifier      notice.Notifier
	Logger        zerolog.Logger
	// NewID generates draft ids. Nil uses random UUIDs.
	NewID func() string
}

// Session is the owner object tying the editor pieces together.
type Session struct {
	loop      eventloop.Loop
	client    Client
	comp      *compose.Composition
	drafts    *draft.Manager
	autosave  *draft.Autosaver
	publisher *publish.Controller
	notifier  notice.Notifier
	limits    compose.Limits
	log       zerolog.Logger

	aiBusy bool
}

// Open creates a session over store and loads the active draft, if any,
// into the composition. A pointer to a missing draft is cleared.
func Open(loop eventloop.Loop, client Client, store draft.Store, opts Options) (*Session, error) {
	if opts.Limits.Max <= 0 {
		opts.Limits = compose.DefaultLimits()
	}
	if opts.Notifier == nil {
		opts.Notifier = notice.Discard
	}

	s := &Session{
		loop:     loop,
		client:   client,
		comp:     compose.New(),
		drafts:   draft.NewManager(store, loop.Now, opts.NewID),
		notifier: opts.Notifier,
		limits:   opts.Limits,
		log:      logging.Component(opts.Logger, "session"),
	}
	s.autosave = draft.NewAutosaver(loop, s.drafts, s.comp, opts.AutosaveDelay,
		logging.Component(opts.Logger, "autosave"))
	s.publisher = publish.New(loop, client, editor{s}, s.drafts, publish.Options{
		Limits:       opts.Limits,
		PollInterval: opts.PollInterval,
		DismissDelay: opts.DismissDelay,
		Notifier:     opts.Notifier,
		Logger:       opts.Logger,
	})

	active, err := s.drafts.Active()
	if err != nil {
		return nil, fmt.Errorf("loading active draft: %w", err)
	}
	if active != nil {
		s.comp.Load(active.Content, active.Images)
		s.log.Debug().Str("draft_id", active.ID).Msg("active draft loaded")
	}
	return s, nil
}

// editor adapts the composition for the publish controller. Clearing it
// after a successful publish also drops a pending autosave, so a stale
// timer cannot write the empty composition into another draft.
type editor struct{ s *Session }

func (e editor) Text() string                 { return e.s.comp.Text() }
func (e editor) SetText(text string)          { e.s.comp.SetText(text) }
func (e editor) ImagePaths() iter.Seq[string] { return e.s.comp.ImagePaths() }

func (e editor) Reset() {
	e.s.autosave.Cancel()
	e.s.comp.Reset()
}

// Text returns the current text.
func (s *Session) Text() string { return s.comp.Text() }

// Images returns a copy of the attachments in order.
func (s *Session) Images() []attach.Attachment { return s.comp.Images().Items() }

// Limits returns the character limits in effect.
func (s *Session) Limits() compose.Limits { return s.limits }

// Counter returns the character count of the text and its counter state.
func (s *Session) Counter() (int, compose.CounterState) {
	n := s.limits.Count(s.comp.Text())
	return n, s.limits.State(n)
}

// Drafts returns the draft manager backing the session.
func (s *Session) Drafts() *draft.Manager { return s.drafts }

// Publisher returns the publish controller.
func (s *Session) Publisher() *publish.Controller { return s.publisher }

// AutosavePending reports whether an autosave is scheduled.
func (s *Session) AutosavePending() bool { return s.autosave.Pending() }

// ActiveDraft returns the draft bound to the composition, or nil.
func (s *Session) ActiveDraft() (*draft.Draft, error) { return s.drafts.Active() }

// Edit replaces the text and restarts the autosave debounce.
func (s *Session) Edit(text string) {
	s.comp.SetText(text)
	s.autosave.Touch()
}

// NewDraft creates an empty draft, makes it active and clears the
// composition. A pending autosave for the previous draft is dropped.
func (s *Session) NewDraft() (draft.Draft, error) {
	s.autosave.Cancel()
	d, err := s.drafts.Create("", nil)
	if err != nil {
		return draft.Draft{}, err
	}
	s.comp.Reset()
	return d, nil
}

// LoadDraft binds the composition to an existing draft.
func (s *Session) LoadDraft(id string) (draft.Draft, error) {
	d, err := s.drafts.Get(id)
	if err != nil {
		return draft.Draft{}, err
	}
	s.autosave.Cancel()
	if err := s.drafts.Activate(id); err != nil {
		return draft.Draft{}, err
	}
	s.comp.Load(d.Content, d.Images)
	return d, nil
}

// DeleteDraft removes a draft. Deleting the active draft also clears the
// composition.
func (s *Session) DeleteDraft(id string) error {
	wasActive, err := s.drafts.Delete(id)
	if wasActive {
		s.autosave.Cancel()
		s.comp.Reset()
	}
	if err != nil {
		return err
	}
	s.notifier.Notify(notice.Of(notice.Success, "draft deleted"))
	return nil
}

// SaveNow saves immediately instead of waiting for the debounce. It
// reports whether anything was written.
func (s *Session) SaveNow() (draft.Draft, bool, error) {
	d, saved, err := s.autosave.Flush()
	if err != nil {
		return draft.Draft{}, false, err
	}
	if saved {
		s.notifier.Notify(notice.Of(notice.Success, "draft saved"))
	}
	return d, saved, nil
}

// RemoveImage drops an attachment. It reports whether one was removed.
func (s *Session) RemoveImage(id string) bool {
	if !s.comp.Images().Remove(id) {
		return false
	}
	s.autosave.Touch()
	return true
}

// ReorderImages moves dragged to just before target. It reports whether
// the order changed.
func (s *Session) ReorderImages(draggedID, targetID string) bool {
	if !s.comp.Images().Reorder(draggedID, targetID) {
		return false
	}
	s.autosave.Touch()
	return true
}

// Upload sends files to the server and appends the accepted images. A
// partial success appends what was accepted and reports the rest as a
// notice; done receives nil in that case.
func (s *Session) Upload(ctx context.Context, files []api.File, done func(error)) {
	if len(files) == 0 {
		complete(done, ErrNoFiles)
		return
	}
	var resp *api.UploadResponse
	var err error
	s.loop.Go(func() {
		resp, err = s.client.Upload(ctx, files)
	}, func() {
		complete(done, s.onUploaded(resp, err))
	})
}

func (s *Session) onUploaded(resp *api.UploadResponse, err error) error {
	if err != nil {
		s.notifier.Notify(notice.Of(notice.Error, "image upload failed, check the network connection"))
		return err
	}
	if !resp.Success {
		msg := "image upload failed"
		switch {
		case len(resp.Errors) > 0:
			msg = strings.Join(resp.Errors, "\n")
		case resp.Message != "":
			msg = resp.Message
		}
		s.notifier.Notify(notice.New(notice.Error, msg))
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}

	added := s.comp.Images().Append(resp.Images...)
	if added > 0 {
		s.autosave.Touch()
	}
	if len(resp.Errors) > 0 {
		s.notifier.Notify(notice.New(notice.Error, strings.Join(resp.Errors, "\n")))
	} else {
		s.notifier.Notify(notice.Of(notice.Success, "uploaded %d image(s)", len(resp.Images)))
	}
	return nil
}

// Refine asks the AI service to rewrite the text and replaces it with the
// result. Only one AI request runs at a time.
func (s *Session) Refine(ctx context.Context, done func(error)) error {
	content := s.comp.Text()
	if err := s.startAI(content); err != nil {
		return err
	}
	var resp *api.RefineResponse
	var err error
	s.loop.Go(func() {
		resp, err = s.client.Refine(ctx, content)
	}, func() {
		s.aiBusy = false
		complete(done, s.onRefined(resp, err))
	})
	return nil
}

func (s *Session) onRefined(resp *api.RefineResponse, err error) error {
	if err != nil {
		s.notifier.Notify(notice.Of(notice.Error, "refine failed: %v", err))
		return err
	}
	if !resp.Success || resp.Content == "" {
		msg := resp.Message
		if msg == "" {
			msg = "AI returned an unexpected response"
		}
		s.notifier.Notify(notice.New(notice.Error, msg))
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	}
	s.Edit(resp.Content)
	s.notifier.Notify(notice.Of(notice.Success, "refine complete"))
	return nil
}

// SuggestHashtags asks the AI service for hashtags matching the text. It
// shares the single-flight guard with Refine.
func (s *Session) SuggestHashtags(ctx context.Context, done func([]string, error)) error {
	content := s.comp.Text()
	if err := s.startAI(content); err != nil {
		return err
	}
	var tags []string
	var err error
	s.loop.Go(func() {
		tags, err = s.client.SuggestHashtags(ctx, content)
	}, func() {
		s.aiBusy = false
		if err != nil {
			s.notifier.Notify(notice.Of(notice.Error, "hashtag suggestion failed: %v", err))
		}
		if done != nil {
			done(tags, err)
		}
	})
	return nil
}

func (s *Session) startAI(content string) error {
	if strings.TrimSpace(content) == "" {
		return compose.ErrEmptyContent
	}
	if s.aiBusy {
		return ErrAIBusy
	}
	s.aiBusy = true
	return nil
}

// AIBusy reports whether a refine or hashtag request is in flight.
func (s *Session) AIBusy() bool { return s.aiBusy }

// Publish submits the composition to platforms. See publish.Controller.Submit.
func (s *Session) Publish(ctx context.Context, platforms []string) error {
	return s.publisher.Submit(ctx, platforms)
}

// Cancel sends an advisory cancel for the running publish.
func (s *Session) Cancel(ctx context.Context) error {
	return s.publisher.Cancel(ctx)
}

// Schedule queues the composition for publishing at a future time. It
// validates like Publish. The composition is left as is.
func (s *Session) Schedule(ctx context.Context, platforms []string, at time.Time, done func(error)) error {
	content := s.comp.Text()
	platforms = compose.NormalizePlatforms(platforms)
	if err := compose.Validate(content, platforms, s.limits); err != nil {
		return err
	}
	if !at.After(s.loop.Now()) {
		return ErrScheduleTime
	}
	req := api.PublishRequest{Content: content, Platforms: platforms}
	for p := range s.comp.ImagePaths() {
		req.ImagePaths = append(req.ImagePaths, p)
	}

	var ack *api.Ack
	var err error
	s.loop.Go(func() {
		ack, err = s.client.Schedule(ctx, req, at)
	}, func() {
		switch {
		case err != nil:
			s.notifier.Notify(notice.Of(notice.Error, "schedule failed: %v", err))
		case !ack.Success:
			msg := ack.Message
			if msg == "" {
				msg = "schedule failed"
			}
			s.notifier.Notify(notice.New(notice.Error, msg))
			err = fmt.Errorf("%w: %s", ErrRejected, msg)
		default:
			msg := ack.Message
			if msg == "" {
				msg = "publish scheduled for " + at.Local().Format(time.DateTime)
			}
			s.notifier.Notify(notice.New(notice.Success, msg))
		}
		complete(done, err)
	})
	return nil
}

// Close stops the publish controller and writes a pending autosave.
func (s *Session) Close() error {
	s.publisher.Stop()
	if !s.autosave.Pending() {
		return nil
	}
	if _, _, err := s.autosave.Flush(); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return nil
}

func complete(done func(error), err error) {
	if done != nil {
		done(err)
	}
}
