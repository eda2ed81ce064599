// Package publish drives a publish job from submission to a terminal status.
//
// The Controller submits the composition, polls the job on a fixed interval,
// forwards advisory cancel requests, and reconciles the editor and the draft
// store when the job ends. All of its methods must be called on the event
// loop it was created with.
package publish

import (
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/compose"
	"github.com/gorewood/echopost/internal/draft"
	"github.com/gorewood/echopost/internal/eventloop"
	"github.com/gorewood/echopost/internal/logging"
	"github.com/gorewood/echopost/internal/notice"
)

// Default timings.
const (
	DefaultPollInterval = time.Second
	DefaultDismissDelay = 3 * time.Second
)

// Errors returned synchronously by Submit and Cancel.
var (
	ErrBusy          = errors.New("a publish is already in progress")
	ErrNotRunning    = errors.New("no running publish job")
	ErrCancelPending = errors.New("a cancel request is already pending")
)

// Messages used when the server gives none.
const (
	msgSubmitFailed  = "publish failed"
	msgNoJobID       = "no job id returned"
	msgStatusFailed  = "status retrieval failed"
	msgJobDone       = "publish complete"
	msgJobFailed     = "publish failed"
	msgJobCancelled  = "publish cancelled"
	msgCancelSent    = "cancelling publish..."
	msgCancelRefused = "cancel failed"
	msgCancelFailed  = "cancel request failed"
)

// API is the part of the publishing service the controller uses.
type API interface {
	Publish(ctx context.Context, req api.PublishRequest) (*api.PublishResponse, error)
	Status(ctx context.Context, jobID string) (*api.StatusResponse, error)
	Cancel(ctx context.Context, jobID string) (*api.Ack, error)
}

// Editor is the composition being published.
type Editor interface {
	Text() string
	SetText(text string)
	ImagePaths() iter.Seq[string]
	Reset()
}

// Drafts is the draft store as seen by the controller.
type Drafts interface {
	ActiveID() (string, error)
	Delete(id string) (wasActive bool, err error)
}

// Options tunes a Controller. Zero values select defaults.
type Options struct {
	Limits       compose.Limits
	PollInterval time.Duration
	DismissDelay time.Duration
	Notifier     notice.Notifier
	Logger       zerolog.Logger
}

// activeJob is everything the controller holds while a publish is in
// flight. The controller is Idle exactly when it holds none.
type activeJob struct {
	ctx context.Context
	// id is empty until the submission is acknowledged.
	id string
	// draftID and content are captured at submission; reconciliation
	// uses them rather than whatever the editor shows by then.
	draftID      string
	content      string
	cancelling   bool
	pollInFlight bool
	timer        eventloop.Timer
}

// Controller is the publish job state machine.
type Controller struct {
	loop   eventloop.Loop
	api    API
	editor Editor
	drafts Drafts
	opts   Options
	log    zerolog.Logger

	job             *activeJob
	steps           []api.Step
	outcome         *Outcome
	progressVisible bool
	dismiss         eventloop.Timer

	observers map[int]func(State)
	nextObs   int
}

// New creates an idle Controller.
func New(loop eventloop.Loop, client API, editor Editor, drafts Drafts, opts Options) *Controller {
	if opts.Limits.Max <= 0 {
		opts.Limits = compose.DefaultLimits()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.DismissDelay <= 0 {
		opts.DismissDelay = DefaultDismissDelay
	}
	if opts.Notifier == nil {
		opts.Notifier = notice.Discard
	}
	return &Controller{
		loop:      loop,
		api:       client,
		editor:    editor,
		drafts:    drafts,
		opts:      opts,
		log:       logging.Component(opts.Logger, "publish"),
		observers: make(map[int]func(State)),
	}
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	s := State{
		Phase:           c.phase(),
		Steps:           c.steps,
		Outcome:         c.outcome,
		ProgressVisible: c.progressVisible,
	}
	if c.job != nil {
		s.JobID = c.job.id
	}
	return s.clone()
}

// Observe registers fn to be called on the loop after every state change.
// The returned function unregisters it.
func (c *Controller) Observe(fn func(State)) (cancel func()) {
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() { delete(c.observers, id) }
}

func (c *Controller) phase() Phase {
	switch {
	case c.job == nil:
		return Idle
	case c.job.id == "":
		return Submitting
	case c.job.cancelling:
		return Cancelling
	default:
		return Polling
	}
}

func (c *Controller) changed() {
	if len(c.observers) == 0 {
		return
	}
	s := c.State()
	ids := make([]int, 0, len(c.observers))
	for id := range c.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		if fn, ok := c.observers[id]; ok {
			fn(s)
		}
	}
}

// Submit validates the composition and starts a publish to platforms.
// Validation errors and ErrBusy are returned before any request is made;
// everything after that is reported through State. ctx governs every
// request made for this job.
func (c *Controller) Submit(ctx context.Context, platforms []string) error {
	if c.job != nil {
		return ErrBusy
	}
	content := c.editor.Text()
	platforms = compose.NormalizePlatforms(platforms)
	if err := compose.Validate(content, platforms, c.opts.Limits); err != nil {
		return err
	}

	draftID, err := c.drafts.ActiveID()
	if err != nil {
		c.log.Debug().Err(err).Msg("reading active draft failed; nothing will be deleted on success")
		draftID = ""
	}
	req := api.PublishRequest{
		Content:    content,
		Platforms:  platforms,
		ImagePaths: slices.Collect(c.editor.ImagePaths()),
	}

	// The guard is taken before the request leaves.
	job := &activeJob{ctx: ctx, draftID: draftID, content: content}
	c.job = job
	c.stopDismiss()
	c.steps = nil
	c.outcome = nil
	c.progressVisible = true
	c.log.Debug().Str("phase", Submitting.String()).Str("draft_id", draftID).Msg("submitting publish")
	c.changed()

	var resp *api.PublishResponse
	var reqErr error
	c.loop.Go(func() {
		resp, reqErr = c.api.Publish(ctx, req)
	}, func() {
		c.onSubmitted(job, resp, reqErr)
	})
	return nil
}

func (c *Controller) onSubmitted(job *activeJob, resp *api.PublishResponse, err error) {
	if c.job != job {
		return
	}
	switch {
	case err != nil:
		c.log.Debug().Err(err).Msg("publish request failed")
		c.finish(job, Outcome{Kind: TransportFailed, Message: msgSubmitFailed + ": " + err.Error()})
	case !resp.Success:
		c.finish(job, Outcome{Kind: Rejected, Message: orDefault(resp.Message, msgSubmitFailed)})
	case resp.JobID == "":
		c.finish(job, Outcome{Kind: Rejected, Message: msgNoJobID})
	default:
		job.id = resp.JobID
		c.log.Debug().Str("job_id", job.id).Str("phase", Polling.String()).Msg("job accepted")
		c.schedulePoll(job)
		c.changed()
	}
}

// schedulePoll arms the next tick. Ticks keep a fixed cadence; a tick
// that finds the previous status request still outstanding sends nothing.
func (c *Controller) schedulePoll(job *activeJob) {
	job.timer = c.loop.AfterFunc(c.opts.PollInterval, func() { c.tick(job) })
}

func (c *Controller) tick(job *activeJob) {
	if c.job != job {
		return
	}
	c.schedulePoll(job)
	if job.pollInFlight {
		c.log.Debug().Str("job_id", job.id).Msg("previous status request outstanding; skipping tick")
		return
	}
	job.pollInFlight = true

	var resp *api.StatusResponse
	var err error
	id := job.id
	c.loop.Go(func() {
		resp, err = c.api.Status(job.ctx, id)
	}, func() {
		c.onStatus(job, resp, err)
	})
}

func (c *Controller) onStatus(job *activeJob, resp *api.StatusResponse, err error) {
	job.pollInFlight = false
	if c.job != job {
		// A terminal status for this job was already applied.
		c.log.Debug().Str("job_id", job.id).Msg("dropping status for finished job")
		return
	}
	if err != nil {
		c.log.Debug().Err(err).Str("job_id", job.id).Msg("status request failed")
		c.finish(job, Outcome{Kind: TransportFailed, JobID: job.id, Message: msgStatusFailed})
		return
	}
	if !resp.Success || resp.Job == nil {
		c.finish(job, Outcome{Kind: TransportFailed, JobID: job.id, Message: orDefault(resp.Message, msgStatusFailed)})
		return
	}

	status := resp.Job
	c.steps = slices.Clone(status.Steps)
	c.log.Debug().Str("job_id", job.id).Str("status", string(status.Status)).Int("steps", len(status.Steps)).Msg("job status")

	switch status.Status {
	case api.StatusDone:
		if status.Success {
			c.succeed(job, orDefault(status.Message, msgJobDone))
			return
		}
		c.fail(job, Failed, orDefault(status.Message, msgJobFailed))
	case api.StatusError:
		c.fail(job, Failed, orDefault(status.Message, msgJobFailed))
	case api.StatusCancelled:
		c.fail(job, Cancelled, orDefault(status.Message, msgJobCancelled))
	default:
		// running, or a status this client does not know: keep polling.
		c.changed()
	}
}

// succeed clears the composition, deletes the draft captured at
// submission, and schedules the progress view to close.
func (c *Controller) succeed(job *activeJob, message string) {
	c.editor.Reset()
	if job.draftID != "" {
		if _, err := c.drafts.Delete(job.draftID); err != nil && !errors.Is(err, draft.ErrNotFound) {
			c.log.Debug().Err(err).Str("draft_id", job.draftID).Msg("deleting published draft failed")
		}
	}
	c.dismiss = c.loop.AfterFunc(c.opts.DismissDelay, func() {
		c.dismiss = nil
		c.progressVisible = false
		c.changed()
	})
	c.finish(job, Outcome{Kind: Succeeded, JobID: job.id, Message: message})
}

// fail puts the submitted text back so the user can retry. Attachments
// are left as they are.
func (c *Controller) fail(job *activeJob, kind OutcomeKind, message string) {
	c.editor.SetText(job.content)
	c.finish(job, Outcome{Kind: kind, JobID: job.id, Message: message})
}

// finish is the single exit from every non-idle phase.
func (c *Controller) finish(job *activeJob, outcome Outcome) {
	if job.timer != nil {
		job.timer.Stop()
		job.timer = nil
	}
	c.job = nil
	c.outcome = &outcome
	c.log.Debug().Str("job_id", outcome.JobID).Str("outcome", outcome.Kind.String()).Msg("publish finished")
	c.changed()
}

// Cancel asks the server to stop the running job. It is advisory: the
// controller keeps polling and whatever terminal status arrives first is
// final. The reply only produces a notice.
func (c *Controller) Cancel(ctx context.Context) error {
	job := c.job
	if job == nil || job.id == "" {
		return ErrNotRunning
	}
	if job.cancelling {
		return ErrCancelPending
	}
	job.cancelling = true
	c.changed()

	var ack *api.Ack
	var err error
	id := job.id
	c.loop.Go(func() {
		ack, err = c.api.Cancel(ctx, id)
	}, func() {
		job.cancelling = false
		switch {
		case err != nil:
			c.log.Debug().Err(err).Str("job_id", id).Msg("cancel request failed")
			c.opts.Notifier.Notify(notice.Of(notice.Error, msgCancelFailed))
		case ack.Success:
			c.opts.Notifier.Notify(notice.New(notice.Success, orDefault(ack.Message, msgCancelSent)))
		default:
			c.opts.Notifier.Notify(notice.New(notice.Error, orDefault(ack.Message, msgCancelRefused)))
		}
		if c.job == job {
			c.changed()
		}
	})
	return nil
}

// Dismiss hides the progress view and drops a pending auto-dismiss.
// It does not affect a running job.
func (c *Controller) Dismiss() {
	c.stopDismiss()
	if c.progressVisible {
		c.progressVisible = false
		c.changed()
	}
}

// Stop abandons the current job without contacting the server and clears
// every timer. Use it when the owner shuts down.
func (c *Controller) Stop() {
	c.stopDismiss()
	if job := c.job; job != nil {
		if job.timer != nil {
			job.timer.Stop()
		}
		c.job = nil
	}
}

func (c *Controller) stopDismiss() {
	if c.dismiss != nil {
		c.dismiss.Stop()
		c.dismiss = nil
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
