package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"att/internal/domain"
	"att/internal/format"
	"att/internal/output"
	"att/internal/transcribe"
	"att/internal/transcript"
)

// ErrSourceNotFound is returned when the picked media file does not exist.
var ErrSourceNotFound = errors.New("source file not found")

// ErrSourceUnreadable is returned when the picked media file cannot be read.
var ErrSourceUnreadable = errors.New("source file is not readable")

// Advisory progress phases published on the event bus.
const (
	PhaseStarted        = "started"
	PhaseDecoding       = "decoding"
	PhaseRecognizing    = "recognizing"
	PhaseWritingOutputs = "writing outputs"
	PhaseDone           = "done"
	PhaseCancelled      = "cancelled"
	PhaseFailed         = "failed"
)

// Decoder converts input media into recognizer audio.
type Decoder interface {
	Decode(ctx context.Context, inputPath string) (transcribe.DecodeResult, error)
}

// Recorder persists finished jobs. Recording is best-effort; a recording
// failure never changes the job outcome.
type Recorder interface {
	Record(ctx context.Context, job domain.Job, cfg domain.JobConfig, t transcript.Transcript, set domain.ArtifactSet) error
}

// Result is the completed job snapshot: the transcript the job owns and
// where its three artifacts landed.
type Result struct {
	Job        domain.Job            `json:"job"`
	Transcript transcript.Transcript `json:"-"`
	Artifacts  domain.ArtifactSet    `json:"artifacts"`
}

// Controller owns one job lifecycle at a time: source checks, decoding,
// the single synchronous recognition call, the cancellation checkpoint,
// formatting and artifact writing. Cancellation is cooperative: the flag
// set by RequestCancel takes effect only at the checkpoint right after
// recognition returns, never mid-call.
type Controller struct {
	manager    *Manager
	bus        *EventBus
	decoder    Decoder
	recognizer transcribe.Recognizer
	writer     *output.Writer
	recorder   Recorder
	newJobID   func() string
	stat       func(name string) (os.FileInfo, error)
	open       func(name string) (*os.File, error)

	cancelRequested atomic.Bool

	// startMu orders Start against RequestCancel so a cancel cannot land
	// between job creation and the flag reset.
	startMu sync.Mutex

	mu      sync.RWMutex
	last    *Result
	done    chan struct{}
	onEvent func(event Event)
}

// closedDone is what Done returns before any job has started.
var closedDone = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NewController wires the production decoder, recognizer and writer.
func NewController() *Controller {
	return &Controller{
		manager:    NewManager(),
		bus:        NewEventBus(0),
		decoder:    transcribe.NewDecoder(),
		recognizer: transcribe.NewWhisperRecognizer(),
		writer:     output.NewWriter(),
		newJobID:   uuid.NewString,
		stat:       os.Stat,
		open:       os.Open,
	}
}

// SetRecorder attaches best-effort job history recording. Call before the
// first Start.
func (c *Controller) SetRecorder(r Recorder) {
	c.recorder = r
}

// SetOnEvent attaches a push hook receiving every published event. Call
// before the first Start.
func (c *Controller) SetOnEvent(fn func(event Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = fn
}

// Start begins a new job for cfg and returns its identity. The previous
// job's result is discarded. Fails fast with ErrJobAlreadyRunning while a
// job is active.
func (c *Controller) Start(cfg domain.JobConfig, outputDir string) (domain.Job, error) {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if err := c.manager.Start(c.newJobID(), cfg.SourcePath); err != nil {
		return domain.Job{}, err
	}
	c.cancelRequested.Store(false)
	c.setLastResult(nil)

	done := make(chan struct{})
	c.mu.Lock()
	c.done = done
	c.mu.Unlock()

	job := c.manager.Current()
	c.publish(Event{
		JobID:   job.ID,
		Type:    EventTypeStatus,
		Status:  job.Status,
		Phase:   PhaseStarted,
		Message: fmt.Sprintf("job started for %s", cfg.SourcePath),
	})

	go func() {
		defer close(done)
		c.run(job, cfg, outputDir)
	}()
	return job, nil
}

// Done returns a channel closed once the most recently started job
// reaches a terminal state. Before any job has started the channel is
// already closed.
func (c *Controller) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.done == nil {
		return closedDone
	}
	return c.done
}

// RequestCancel marks the running job for cancellation at the next
// checkpoint. Recognition in flight keeps running; its result will be
// discarded. Returns ErrNoRunningJob when nothing is active.
func (c *Controller) RequestCancel() error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if !c.manager.IsRunning() {
		return ErrNoRunningJob
	}
	c.cancelRequested.Store(true)

	job := c.manager.Current()
	c.publish(Event{
		JobID:   job.ID,
		Type:    EventTypeStatus,
		Status:  job.Status,
		Message: "cancellation requested; waiting for the current step to finish",
	})
	return nil
}

// Current returns a snapshot of the current job.
func (c *Controller) Current() domain.Job {
	return c.manager.Current()
}

// LastResult returns the completed job snapshot when one exists.
func (c *Controller) LastResult() (Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return Result{}, false
	}
	return *c.last, true
}

// EventsSince returns bus events with sequence strictly greater than seq.
func (c *Controller) EventsSince(seq int64) []Event {
	return c.bus.Since(seq)
}

// run executes one job to a terminal state. The recognizer is invoked with
// a background context: the call is atomic, so no cancellation signal is
// wired into it.
func (c *Controller) run(job domain.Job, cfg domain.JobConfig, outputDir string) {
	if err := c.checkSource(cfg.SourcePath); err != nil {
		c.fail(job, err)
		return
	}

	c.publishPhase(job, PhaseDecoding, "decoding audio")
	decodeRes, err := c.decoder.Decode(context.Background(), cfg.SourcePath)
	if err != nil {
		c.fail(job, err)
		return
	}
	defer func() {
		_ = decodeRes.Cleanup()
	}()
	c.publishCommandLog(job, decodeRes.Log)

	c.publishPhase(job, PhaseRecognizing, fmt.Sprintf("recognizing speech with model %s", cfg.Model))
	tr, err := c.recognizer.Recognize(context.Background(), transcribe.Request{
		AudioPath:      decodeRes.AudioPath,
		Model:          cfg.Model,
		Language:       cfg.Language,
		Translate:      cfg.TranslateToEnglish,
		WordTimestamps: cfg.WordTimestamps,
		OnLog: func(log transcribe.CommandLog) {
			c.publishCommandLog(job, log)
		},
	})
	if err != nil {
		c.fail(job, err)
		return
	}

	// Cancellation checkpoint: the only place the flag takes effect. The
	// recognition result is discarded and nothing is written.
	if c.cancelRequested.Load() {
		c.finishCancelled(job)
		return
	}

	if err := tr.Validate(); err != nil {
		c.fail(job, err)
		return
	}

	c.publishPhase(job, PhaseWritingOutputs, "writing outputs")
	jsonBytes, err := format.JSON(tr)
	if err != nil {
		c.fail(job, err)
		return
	}
	srtBytes, err := format.SRT(tr)
	if err != nil {
		c.fail(job, err)
		return
	}

	set, err := c.writer.Write(outputDir, output.BaseName(cfg.SourcePath), output.Artifacts{
		Text: format.Text(tr),
		JSON: jsonBytes,
		SRT:  srtBytes,
	})
	if err != nil {
		c.fail(job, err)
		return
	}

	_ = c.manager.Transition(domain.JobStatusCompleted)
	job.Status = domain.JobStatusCompleted
	c.setLastResult(&Result{Job: job, Transcript: tr, Artifacts: set})
	c.publish(Event{
		JobID:    job.ID,
		Type:     EventTypeResult,
		Status:   job.Status,
		Phase:    PhaseDone,
		Message:  "transcription complete",
		TextPath: set.TextPath,
		JSONPath: set.JSONPath,
		SRTPath:  set.SRTPath,
	})
	c.record(job, cfg, tr, set)
}

// checkSource verifies the picked file exists and is readable.
func (c *Controller) checkSource(path string) error {
	info, err := c.stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
		}
		return fmt.Errorf("%w: %s", ErrSourceUnreadable, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrSourceUnreadable, path)
	}

	f, err := c.open(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSourceUnreadable, path)
	}
	_ = f.Close()
	return nil
}

// fail moves the job to failed and publishes the translated error. Command
// context travels along when the error carries one.
func (c *Controller) fail(job domain.Job, err error) {
	_ = c.manager.Transition(domain.JobStatusFailed)
	job.Status = domain.JobStatusFailed

	event := Event{
		JobID:   job.ID,
		Type:    EventTypeError,
		Status:  job.Status,
		Phase:   PhaseFailed,
		Message: err.Error(),
	}

	var log transcribe.CommandLog
	var dErr *transcribe.DecodeError
	var rErr *transcribe.RecognitionError
	switch {
	case errors.As(err, &dErr):
		log = dErr.CommandLog
	case errors.As(err, &rErr):
		log = rErr.CommandLog
	}
	if log.Command != "" {
		event.Command = log.Command
		event.Args = log.Args
		event.ExitCode = log.ExitCode
		event.Stdout = log.Stdout
		event.Stderr = log.Stderr
	}

	c.publish(event)
}

// finishCancelled moves the job to cancelled after the checkpoint fired.
func (c *Controller) finishCancelled(job domain.Job) {
	_ = c.manager.Transition(domain.JobStatusCancelled)
	job.Status = domain.JobStatusCancelled
	c.publish(Event{
		JobID:   job.ID,
		Type:    EventTypeStatus,
		Status:  job.Status,
		Phase:   PhaseCancelled,
		Message: "job cancelled; recognition result discarded",
	})
}

// record stores the finished job in history when a recorder is attached.
func (c *Controller) record(job domain.Job, cfg domain.JobConfig, tr transcript.Transcript, set domain.ArtifactSet) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(context.Background(), job, cfg, tr, set); err != nil {
		c.publish(Event{
			JobID:   job.ID,
			Type:    EventTypeLog,
			Status:  job.Status,
			Message: fmt.Sprintf("history recording failed: %v", err),
		})
	}
}

// publishPhase emits a status event for an advisory progress step.
func (c *Controller) publishPhase(job domain.Job, phase, message string) {
	c.publish(Event{
		JobID:   job.ID,
		Type:    EventTypeStatus,
		Status:  c.manager.Current().Status,
		Phase:   phase,
		Message: message,
	})
}

// publishCommandLog emits a log event for one external tool invocation.
func (c *Controller) publishCommandLog(job domain.Job, log transcribe.CommandLog) {
	c.publish(Event{
		JobID:    job.ID,
		Type:     EventTypeLog,
		Status:   c.manager.Current().Status,
		Command:  log.Command,
		Args:     log.Args,
		ExitCode: log.ExitCode,
		Stdout:   log.Stdout,
		Stderr:   log.Stderr,
	})
}

// publish appends to the bus and forwards to the push hook.
func (c *Controller) publish(event Event) {
	published := c.bus.Publish(event)

	c.mu.RLock()
	hook := c.onEvent
	c.mu.RUnlock()
	if hook != nil {
		hook(published)
	}
}

// setLastResult replaces the completed job snapshot.
func (c *Controller) setLastResult(r *Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = r
}

// NewControllerForTests constructs a controller with injectable
// dependencies.
func NewControllerForTests(
	decoder Decoder,
	recognizer transcribe.Recognizer,
	writer *output.Writer,
	newJobID func() string,
	stat func(name string) (os.FileInfo, error),
	open func(name string) (*os.File, error),
) *Controller {
	return &Controller{
		manager:    NewManager(),
		bus:        NewEventBus(0),
		decoder:    decoder,
		recognizer: recognizer,
		writer:     writer,
		newJobID:   newJobID,
		stat:       stat,
		open:       open,
	}
}
