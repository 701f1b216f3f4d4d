package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abendrothj/lao/internal/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// tracer is the package-level tracer used for per-step spans. It resolves
// to the global TracerProvider, which is a noop until telemetry.Init
// registers a real one, so span creation is free when telemetry is
// disabled.
var tracer = otel.Tracer("github.com/abendrothj/lao/workflow")

// PluginRunner is the subset of the plugin host the executor needs:
// resolving a plugin by name (for Validate, via the embedded
// PluginResolver) and invoking it.
type PluginRunner interface {
	PluginResolver
	Run(ctx context.Context, name, input string) (string, error)
}

// CacheStore is the subset of the content-addressed cache the executor
// needs.
type CacheStore interface {
	Get(cacheKey, digest string) (string, bool)
	Put(cacheKey, digest, value string)
}

// Sink receives events in emission order. Implementations must not block
// indefinitely; a slow sink stalls the run.
type Sink func(Event)

// ExecutorConfig controls the run-time execution mode.
type ExecutorConfig struct {
	Parallel       bool
	MaxParallelism int // effective only when Parallel is true; default 1
	Logger         *zap.Logger

	// Metrics receives per-step outcome, duration, and retry counts. A
	// nil Metrics is safe — every Collector method absorbs calls on a
	// nil receiver.
	Metrics *metrics.Collector
}

// Executor realizes a validated workflow as a sequence of plugin calls,
// respecting dependencies, retries, caching, and conditions, and streaming
// events to a Sink.
type Executor struct {
	host    PluginRunner
	cache   CacheStore
	cfg     ExecutorConfig
	logger  *zap.Logger
	metrics *metrics.Collector

	mu    sync.RWMutex
	state map[string]*stepRunState
}

type stepRunState struct {
	state  StepState
	output string
	errMsg string
}

// NewExecutor constructs an Executor bound to a plugin host and cache.
func NewExecutor(host PluginRunner, cache CacheStore, cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxParallelism <= 0 {
		cfg.MaxParallelism = 1
	}
	return &Executor{
		host:    host,
		cache:   cache,
		cfg:     cfg,
		logger:  logger.With(zap.String("component", "executor")),
		metrics: cfg.Metrics,
		state:   make(map[string]*stepRunState),
	}
}

// Run executes w to completion, streaming events to sink, and returns the
// terminal summary. ctx cancellation is honored per the cancellation
// semantics: in-flight plugin calls run to completion, but no pending step
// transitions to running once cancellation is observed.
func (e *Executor) Run(ctx context.Context, w *Workflow, sink Sink) (*RunSummary, error) {
	graph := BuildGraph(w)
	runID := uuid.NewString()
	start := time.Now()
	summary := newSummary(runID)

	e.mu.Lock()
	e.state = make(map[string]*stepRunState, len(w.Steps))
	e.mu.Unlock()

	cancelled := false

	for _, layer := range graph.Layers() {
		if ctxDone(ctx) {
			cancelled = true
		}
		if cancelled {
			for _, id := range layer {
				e.finish(id, StateSkipped, "", "")
				sink(Event{Kind: EventStepSkipped, StepSkipped: &StepSkippedPayload{StepID: id, Reason: SkipReasonCancelled}})
			}
			continue
		}

		if e.cfg.Parallel {
			e.runLayerParallel(ctx, w, layer, sink, &cancelled)
		} else {
			e.runLayerSequential(ctx, w, layer, sink, &cancelled)
		}
	}

	for _, s := range w.Steps {
		e.mu.RLock()
		st, ok := e.state[s.ID]
		e.mu.RUnlock()
		if !ok {
			continue
		}
		summary.record(s.ID, st.state, st.errMsg)
	}
	summary.Cancelled = cancelled
	summary.WallTime = time.Since(start)

	sink(Event{Kind: EventWorkflowDone, WorkflowDone: summary})
	return summary, nil
}

func ctxDone(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

func (e *Executor) runLayerSequential(ctx context.Context, w *Workflow, layer []string, sink Sink, cancelled *bool) {
	for _, id := range layer {
		if ctxDone(ctx) {
			*cancelled = true
		}
		if *cancelled {
			e.finish(id, StateSkipped, "", "")
			sink(Event{Kind: EventStepSkipped, StepSkipped: &StepSkippedPayload{StepID: id, Reason: SkipReasonCancelled}})
			continue
		}
		step := w.StepByID(id)
		e.runStep(ctx, w, step, sink)
	}
}

func (e *Executor) runLayerParallel(ctx context.Context, w *Workflow, layer []string, sink Sink, cancelled *bool) {
	sem := semaphore.NewWeighted(int64(e.cfg.MaxParallelism))
	events := make(chan Event, 64)
	var wg sync.WaitGroup

	done := make(chan struct{})
	go func() {
		for ev := range events {
			sink(ev)
		}
		close(done)
	}()

	for _, id := range layer {
		if ctxDone(ctx) {
			*cancelled = true
		}
		if *cancelled {
			e.finish(id, StateSkipped, "", "")
			events <- Event{Kind: EventStepSkipped, StepSkipped: &StepSkippedPayload{StepID: id, Reason: SkipReasonCancelled}}
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			*cancelled = true
			e.finish(id, StateSkipped, "", "")
			events <- Event{Kind: EventStepSkipped, StepSkipped: &StepSkippedPayload{StepID: id, Reason: SkipReasonCancelled}}
			continue
		}
		wg.Add(1)
		step := w.StepByID(id)
		go func(step *Step) {
			defer wg.Done()
			defer sem.Release(1)
			e.runStep(ctx, w, step, func(ev Event) { events <- ev })
		}(step)
	}

	wg.Wait()
	close(events)
	<-done
}

// runStep drives a single step through the per-step procedure: transition
// to running, evaluate its condition, resolve input, check cache, invoke
// the plugin with retries, and record the terminal outcome. It brackets
// the whole procedure in a tracing span carrying step.id/step.plugin, set
// to step.state and recorded as metrics at every exit point, so a caller
// can tell exactly which terminal state a step reached without replaying
// the event stream.
func (e *Executor) runStep(ctx context.Context, w *Workflow, s *Step, sink Sink) {
	ctx, span := tracer.Start(ctx, "step.run", oteltrace.WithAttributes(
		attribute.String("step.id", s.ID),
		attribute.String("step.plugin", s.Plugin),
	))
	start := time.Now()
	finishSpan := func(state StepState, err error) {
		span.SetAttributes(attribute.String("step.state", string(state)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		e.metrics.RecordStepOutcome(string(state))
		e.metrics.RecordStepDuration(s.Plugin, time.Since(start))
	}

	sink(Event{Kind: EventStepStarted, StepStarted: &StepStartedPayload{StepID: s.ID, Plugin: s.Plugin}})

	if s.Condition != nil {
		proceed, unknown := EvaluateCondition(w, s, e.outcomeOf)
		if unknown {
			e.logger.Warn("condition references unknown step", zap.String("step", s.ID), zap.String("field", s.Condition.Field))
		}
		if !proceed {
			e.finish(s.ID, StateSkipped, "", "")
			sink(Event{Kind: EventStepSkipped, StepSkipped: &StepSkippedPayload{StepID: s.ID, Reason: SkipReasonCondition}})
			finishSpan(StateSkipped, nil)
			return
		}
	}

	input := e.resolveInput(s)

	if s.HasCacheKey() {
		digest := InputDigest(s.CacheKey, input)
		if out, ok := e.cache.Get(s.CacheKey, digest); ok {
			e.finish(s.ID, StateCache, out, "")
			sink(Event{Kind: EventStepCached, StepCached: &StepOutputPayload{StepID: s.ID, OutputPreview: preview(out)}})
			finishSpan(StateCache, nil)
			return
		}
	}

	maxAttempts := s.Retries + 1
	var lastErr string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		out, err := e.host.Run(ctx, s.Plugin, input)
		if err == nil {
			e.finish(s.ID, StateSuccess, out, "")
			if s.HasCacheKey() {
				e.cache.Put(s.CacheKey, InputDigest(s.CacheKey, input), out)
			}
			sink(Event{Kind: EventStepSucceeded, StepSucceeded: &StepOutputPayload{StepID: s.ID, OutputPreview: preview(out)}})
			finishSpan(StateSuccess, nil)
			return
		}
		lastErr = err.Error()
		if attempt < maxAttempts {
			e.metrics.RecordStepRetry(s.Plugin)
			if s.RetryDelayMS > 0 {
				time.Sleep(time.Duration(s.RetryDelayMS) * time.Millisecond)
			}
			sink(Event{Kind: EventStepRetrying, StepRetrying: &StepRetryingPayload{
				StepID: s.ID, Attempt: attempt, MaxAttempts: maxAttempts, LastError: lastErr,
			}})
		}
	}

	e.finish(s.ID, StateError, "", lastErr)
	sink(Event{Kind: EventStepFailed, StepFailed: &StepFailedPayload{StepID: s.ID, Error: lastErr}})
	finishSpan(StateError, errors.New(lastErr))
}

// resolveInput implements step 3 of the per-step procedure.
func (e *Executor) resolveInput(s *Step) string {
	switch s.Input.Kind {
	case InputLiteral:
		return s.Input.Literal
	case InputFrom:
		e.mu.RLock()
		st, ok := e.state[s.Input.Ref]
		e.mu.RUnlock()
		if !ok {
			return ""
		}
		return st.output
	default:
		return ""
	}
}

func (e *Executor) outcomeOf(stepID string) (StepOutcome, bool) {
	e.mu.RLock()
	st, ok := e.state[stepID]
	e.mu.RUnlock()
	if !ok {
		return StepOutcome{}, false
	}
	return StepOutcome{State: st.state, Output: st.output, Error: st.errMsg}, true
}

func (e *Executor) finish(stepID string, state StepState, output, errMsg string) {
	e.mu.Lock()
	e.state[stepID] = &stepRunState{state: state, output: output, errMsg: errMsg}
	e.mu.Unlock()
}
