package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gorewood/echopost/internal/api"
	"github.com/gorewood/echopost/internal/compose"
	"github.com/gorewood/echopost/internal/config"
	"github.com/gorewood/echopost/internal/draft"
	"github.com/gorewood/echopost/internal/eventloop"
	"github.com/gorewood/echopost/internal/logging"
	"github.com/gorewood/echopost/internal/notice"
	"github.com/gorewood/echopost/internal/output"
	"github.com/gorewood/echopost/internal/publish"
	"github.com/gorewood/echopost/internal/session"
)

// serverClient is everything the commands ask of the echopost server.
// *api.Client satisfies it.
type serverClient interface {
	session.Client
	History(ctx context.Context, page, perPage int) (*api.HistoryPage, error)
	DeleteHistory(ctx context.Context, id int) (*api.Ack, error)
	ClearHistory(ctx context.Context) (*api.Ack, error)
	BatchDeleteHistory(ctx context.Context, ids []int) (*api.Ack, error)
}

// deps replaces parts of the environment in tests. Nil fields are built
// from the config.
type deps struct {
	config *config.Config
	store  draft.Store
	client serverClient
	stdin  io.Reader
	newID  func() string
}

// app is one command invocation: config, output, server client and,
// once opened, an editing session running on its own event loop.
type app struct {
	cfg     *config.Config
	printer *output.Printer
	log     zerolog.Logger
	client  serverClient

	loop       *eventloop.Runner
	sess       *session.Session
	notices    *notice.Recorder
	stopLoop   context.CancelFunc
	loopDone   chan struct{}
	closeStore func() error
}

// newPrinter builds the printer for cmd from the --json and --color flags.
func newPrinter(cmd *cobra.Command) *output.Printer {
	out := cmd.OutOrStdout()
	isTTY := output.ResolveColorMode(stringFlag(cmd, "color"), output.IsTTY(out))
	return output.NewPrinter(out, isJSONMode(cmd), isTTY).WithStderr(cmd.ErrOrStderr())
}

// newBaseApp loads config and builds the printer, logger and client. It
// prints and returns any error.
func newBaseApp(cmd *cobra.Command, d *deps) (*app, error) {
	a := &app{printer: newPrinter(cmd)}

	cfg, err := loadConfig(cmd, d)
	if err != nil {
		return nil, a.fail(err)
	}
	a.cfg = cfg
	a.log = logging.New(cfg.LogLevel, cmd.ErrOrStderr())

	a.client = d.client
	if a.client == nil {
		a.client = api.New(cfg.Server, cfg.Timing.RequestTimeout)
	}
	return a, nil
}

func loadConfig(cmd *cobra.Command, d *deps) (*config.Config, error) {
	cfg := d.config
	if cfg == nil {
		path := stringFlag(cmd, "config")
		if path == "" {
			path = config.Path()
		}
		loaded, err := config.Load(path)
		if err != nil {
			return nil, output.NewUserErrorWithCause(err.Error(), err)
		}
		cfg = loaded
	}
	if server := stringFlag(cmd, "server"); server != "" {
		cfg.Server = server
		if err := cfg.Validate(); err != nil {
			return nil, output.NewUserErrorWithCause(err.Error(), err)
		}
	}
	return cfg, nil
}

// openApp is newBaseApp plus the draft store and a running session. The
// caller must call close.
func openApp(cmd *cobra.Command, d *deps) (*app, error) {
	a, err := newBaseApp(cmd, d)
	if err != nil {
		return nil, err
	}

	store := d.store
	a.closeStore = func() error { return nil }
	if store == nil {
		opened, closeFn, err := openStore(a.cfg)
		if err != nil {
			return nil, a.fail(err)
		}
		store, a.closeStore = opened, closeFn
	}

	var notifier notice.Notifier = a.printer
	if a.printer.IsJSON() {
		a.notices = &notice.Recorder{}
		notifier = a.notices
	}

	a.loop = eventloop.New()
	loopCtx, stop := context.WithCancel(context.Background())
	a.stopLoop = stop
	a.loopDone = make(chan struct{})
	go func() {
		defer close(a.loopDone)
		_ = a.loop.Run(loopCtx)
	}()

	opts := session.Options{
		Limits:        compose.Limits{Max: a.cfg.Limits.Max, Warn: a.cfg.Limits.Warn},
		AutosaveDelay: a.cfg.Timing.AutosaveDelay,
		PollInterval:  a.cfg.Timing.PollInterval,
		DismissDelay:  a.cfg.Timing.DismissDelay,
		Notifier:      notifier,
		Logger:        a.log,
		NewID:         d.newID,
	}
	err = a.do(cmd.Context(), func() error {
		sess, err := session.Open(a.loop, a.client, store, opts)
		a.sess = sess
		return err
	})
	if err != nil {
		a.shutdown()
		return nil, a.fail(output.NewSystemErrorWithCause("failed to open drafts: "+err.Error(), err))
	}
	a.log.Debug().Str("backend", a.cfg.Store.Backend).Str("server", a.cfg.Server).Msg("session opened")
	return a, nil
}

// openStore opens the configured draft store.
func openStore(cfg *config.Config) (draft.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Store.Backend {
	case config.BackendMemory:
		return draft.NewMemoryStore(), noop, nil
	case config.BackendSQLite:
		store, err := draft.OpenSQLite(cfg.StorePath())
		if err != nil {
			return nil, nil, output.NewSystemErrorWithCause("failed to open draft database", err)
		}
		return store, store.Close, nil
	default:
		return draft.NewFileStore(cfg.StorePath()), noop, nil
	}
}

// close writes a pending autosave, stops the loop and closes the store.
func (a *app) close() error {
	if a.sess == nil {
		return nil
	}
	err := a.do(context.Background(), a.sess.Close)
	a.shutdown()
	if err != nil {
		return a.fail(output.NewSystemErrorWithCause(err.Error(), err))
	}
	return nil
}

func (a *app) shutdown() {
	a.stopLoop()
	<-a.loopDone
	if err := a.closeStore(); err != nil {
		a.log.Warn().Err(err).Msg("closing draft store")
	}
}

// do runs fn on the session loop and returns its error.
func (a *app) do(ctx context.Context, fn func() error) error {
	var err error
	if callErr := a.loop.Call(ctx, func() { err = fn() }); callErr != nil {
		return callErr
	}
	return err
}

// await starts an asynchronous session operation on the loop and waits
// for its done callback.
func (a *app) await(ctx context.Context, start func(done func(error)) error) error {
	result := make(chan error, 1)
	err := a.do(ctx, func() error {
		return start(func(err error) { result <- err })
	})
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail prints err in the printer's format and returns it as an exit error.
func (a *app) fail(err error) error {
	exitErr := commandError(err)
	a.printer.Error(exitErr)
	return exitErr
}

// result prints data. In JSON mode, notices raised while the command ran
// are included under "notices".
func (a *app) result(data map[string]any) error {
	if a.printer.IsJSON() && a.notices != nil {
		var messages []string
		_ = a.loop.Call(context.Background(), func() {
			messages = a.notices.Messages()
			a.notices.Notices = nil
		})
		if len(messages) > 0 {
			data["notices"] = messages
		}
	}
	return a.printer.Success(data)
}

// commandError maps library errors onto exit codes.
func commandError(err error) *output.ExitError {
	var exitErr *output.ExitError
	if errors.As(err, &exitErr) {
		if exitErr == err {
			return exitErr
		}
		return &output.ExitError{Code: exitErr.Code, Message: err.Error(), Cause: err}
	}

	switch {
	case errors.Is(err, compose.ErrEmptyContent),
		errors.Is(err, compose.ErrNoPlatform),
		errors.Is(err, compose.ErrTooLong),
		errors.Is(err, draft.ErrNotFound),
		errors.Is(err, session.ErrScheduleTime),
		errors.Is(err, session.ErrNoFiles):
		return output.NewUserErrorWithCause(err.Error(), err)
	case errors.Is(err, publish.ErrBusy),
		errors.Is(err, publish.ErrNotRunning),
		errors.Is(err, publish.ErrCancelPending),
		errors.Is(err, session.ErrAIBusy):
		return output.NewConflictErrorWithCause(err.Error(), err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return output.NewSystemErrorWithCause("interrupted", err)
	default:
		return output.NewSystemErrorWithCause(err.Error(), err)
	}
}

// formatTime renders a draft timestamp for tables.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

// platformsOrDefault returns the --platform values, or the configured
// default platforms when none were given.
func (a *app) platformsOrDefault(platforms []string) []string {
	if len(platforms) > 0 {
		return platforms
	}
	return a.cfg.Platforms
}

func describeCounter(p *output.Printer, text string, limits compose.Limits) string {
	return fmt.Sprintf("%s chars", p.Counter(limits.Count(text), limits))
}
