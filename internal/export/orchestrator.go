// Package export drives one generation attempt: upload, per-output enqueue
// with plan gating, then status polling. Every outcome is written to the
// jobstate store; nothing but ErrNotReady is returned to the caller.
package export

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mathiasric/snaptosize-app/internal/domain"
	"github.com/Mathiasric/snaptosize-app/internal/infra"
	"github.com/Mathiasric/snaptosize-app/internal/jobstate"
	"github.com/Mathiasric/snaptosize-app/internal/workerapi"
)

const (
	defaultPollInterval = time.Second
	defaultPollTimeout  = 3 * time.Minute

	msgUploadFailed = "Upload failed. Please try again."
	msgNoImageKey   = "Upload returned no image key."
	msgQuotaReached = "Free limit reached"
	msgNoJobID      = "No job_id returned"
)

// ErrNotReady is returned when there is no file, no output, an attempt is
// already running, or the last attempt hit a quota.
var ErrNotReady = errors.New("export: nothing to generate")

// Worker is the subset of the worker client an attempt needs.
type Worker interface {
	Upload(ctx context.Context, contentType string, data []byte) (string, error)
	Enqueue(ctx context.Context, req workerapi.EnqueueRequest) (string, error)
	Status(ctx context.Context, jobID string) (workerapi.StatusPayload, error)
	DownloadURL(jobID string) string
}

// EventSink receives best-effort analytics. Implementations must not block.
type EventSink interface {
	Capture(distinctID, event string, props map[string]any)
}

// Options configures an Orchestrator.
type Options struct {
	Worker       Worker
	Store        *jobstate.Store
	Events       EventSink
	PollInterval time.Duration
	PollTimeout  time.Duration
	Now          func() time.Time
	Logger       *infra.Logger
}

// Orchestrator runs at most one attempt at a time against a store.
type Orchestrator struct {
	worker   Worker
	store    *jobstate.Store
	events   EventSink
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	logger   *infra.Logger

	mu      sync.Mutex
	current *attempt
}

type attempt struct {
	ctx      context.Context
	cancel   context.CancelFunc
	canceled bool
	session  domain.Session
	mode     domain.ExportMode
}

type trackedJob struct {
	output domain.OutputSpec
	jobID  string
}

// New builds an orchestrator. Worker and Store are required.
func New(opts Options) (*Orchestrator, error) {
	if opts.Worker == nil {
		return nil, errors.New("export: worker is required")
	}
	if opts.Store == nil {
		return nil, errors.New("export: store is required")
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := opts.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		l := infra.Logger(zerolog.Nop())
		logger = &l
	}
	return &Orchestrator{
		worker:   opts.Worker,
		store:    opts.Store,
		events:   opts.Events,
		interval: interval,
		timeout:  timeout,
		now:      now,
		logger:   logger,
	}, nil
}

// Store returns the state store the orchestrator writes to.
func (o *Orchestrator) Store() *jobstate.Store {
	return o.store
}

// Generate runs one attempt under session and returns when it reaches done,
// error or idle. Canceling ctx behaves like Abort.
func (o *Orchestrator) Generate(ctx context.Context, session domain.Session) error {
	a, state, ok := o.begin(ctx, session)
	if !ok {
		return ErrNotReady
	}
	defer o.end(a)

	o.run(a, state)
	return nil
}

// Abort cancels the running attempt and returns the phase to idle without
// recording errors. It does nothing when no attempt is running, so a done or
// error phase stays as it is.
func (o *Orchestrator) Abort() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil {
		return
	}
	o.cancelLocked()
	o.store.Dispatch(jobstate.SetPhase{Phase: domain.PhaseIdle})
}

// Reset cancels the running attempt and clears its jobs, keeping the file,
// the selection and the recent downloads.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancelLocked()
	o.store.Dispatch(jobstate.Reset{})
}

func (o *Orchestrator) cancelLocked() {
	if a := o.current; a != nil && !a.canceled {
		a.canceled = true
		a.cancel()
	}
}

func (o *Orchestrator) begin(ctx context.Context, session domain.Session) (*attempt, jobstate.State, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	state := o.store.State()
	if o.current != nil || !state.CanGenerate() {
		return nil, state, false
	}

	actx, cancel := context.WithCancel(ctx)
	a := &attempt{ctx: actx, cancel: cancel, session: session, mode: state.Selection.Mode}
	o.current = a

	o.store.Dispatch(jobstate.Reset{})
	state = o.store.Dispatch(jobstate.SetPhase{Phase: domain.PhaseUploading})
	return a, state, true
}

func (o *Orchestrator) end(a *attempt) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// The caller's context ended without Abort: treat it as a cancel.
	if !a.canceled && a.ctx.Err() != nil {
		a.canceled = true
		o.store.Dispatch(jobstate.SetPhase{Phase: domain.PhaseIdle})
	}
	a.cancel()
	if o.current == a {
		o.current = nil
	}
}

// dispatch applies action unless the attempt was canceled. It reports
// whether the attempt may continue.
func (o *Orchestrator) dispatch(a *attempt, action jobstate.Action) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if a.canceled || a.ctx.Err() != nil {
		return false
	}
	o.store.Dispatch(action)
	return true
}

func (o *Orchestrator) run(a *attempt, state jobstate.State) {
	file := state.File
	outputs := state.Outputs()
	log := o.logger.With().Str("user_id", a.session.UserID).Str("mode", string(a.mode)).Logger()

	o.capture(a, "export_started", map[string]any{
		"mode":    string(a.mode),
		"outputs": len(outputs),
		"plan":    string(a.session.Plan),
	})

	imageKey, err := o.worker.Upload(a.ctx, file.ContentType, file.Data)
	if err != nil {
		if a.ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Msg("export: upload failed")
		o.dispatch(a, jobstate.SetGlobalError{Message: uploadErrorMessage(err)})
		return
	}
	if !o.dispatch(a, jobstate.SetImageKey{ImageKey: imageKey}) ||
		!o.dispatch(a, jobstate.SetPhase{Phase: domain.PhaseEnqueuing}) {
		return
	}

	toEnqueue := outputs
	if !a.session.IsPro() && len(outputs) > 1 {
		toEnqueue = outputs[:1]
		for _, out := range outputs[1:] {
			if !o.dispatch(a, jobstate.SetJob{Job: domain.Job{Key: out.Key(), Status: domain.JobStatusLocked}}) {
				return
			}
		}
	}

	var tracked []trackedJob
	for _, out := range toEnqueue {
		key := out.Key()
		if !o.dispatch(a, jobstate.SetJob{Job: domain.Job{Key: key, Status: domain.JobStatusQueued}}) {
			return
		}

		jobID, err := o.worker.Enqueue(a.ctx, workerapi.NewEnqueueRequest(imageKey, out))
		if err != nil {
			if a.ctx.Err() != nil {
				return
			}
			if errors.Is(err, domain.ErrQuotaExceeded) {
				log.Info().Str("output", key).Msg("export: quota reached")
				o.dispatch(a, jobstate.SetJob{Job: domain.Job{Key: key, Status: domain.JobStatusError, Error: msgQuotaReached}})
				o.dispatch(a, jobstate.SetGlobalError{Message: domain.QuotaMarkerFor(a.mode)})
				o.capture(a, "export_quota_hit", map[string]any{"mode": string(a.mode), "output": key})
				return
			}
			log.Warn().Err(err).Str("output", key).Msg("export: enqueue failed")
			if !o.dispatch(a, jobstate.SetJob{Job: domain.Job{Key: key, Status: domain.JobStatusError, Error: enqueueErrorMessage(err)}}) {
				return
			}
			continue
		}

		tracked = append(tracked, trackedJob{output: out, jobID: jobID})
		if !o.dispatch(a, jobstate.SetJob{Job: domain.Job{Key: key, JobID: jobID, Status: domain.JobStatusQueued}}) {
			return
		}
	}

	if len(tracked) == 0 {
		o.dispatch(a, jobstate.SetPhase{Phase: domain.PhaseError})
		return
	}
	if !o.dispatch(a, jobstate.SetPhase{Phase: domain.PhasePolling}) {
		return
	}
	o.poll(a, tracked)
}

func (o *Orchestrator) capture(a *attempt, event string, props map[string]any) {
	if o.events == nil {
		return
	}
	o.events.Capture(a.session.DistinctID(), event, props)
}

func uploadErrorMessage(err error) string {
	var httpErr *workerapi.HTTPError
	switch {
	case errors.Is(err, workerapi.ErrNoImageKey):
		return msgNoImageKey
	case errors.As(err, &httpErr):
		return msgUploadFailed
	}
	return err.Error()
}

func enqueueErrorMessage(err error) string {
	if errors.Is(err, workerapi.ErrNoJobID) {
		return msgNoJobID
	}
	return err.Error()
}
