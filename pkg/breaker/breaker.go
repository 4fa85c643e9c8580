// Package breaker implements a three-state circuit breaker
// (closed, open, half-open) with an explicit mutex-guarded state machine.
//
// The breaker trips after a configured number of consecutive qualifying
// failures, rejects calls fast while open, and admits exactly one trial
// call once the cooldown elapses. A pluggable classifier decides which
// errors count against the failure threshold, so contract violations and
// caller cancellations can pass through without affecting breaker state.
package breaker

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrOpen is returned by Execute when the breaker rejects the call without
// invoking the wrapped operation.
var ErrOpen = errors.New("circuit breaker is open")

// State represents the current operating mode of a Breaker.
type State int

const (
	// StateClosed is the normal operating state. Calls are forwarded and
	// consecutive qualifying failures are counted.
	StateClosed State = iota

	// StateOpen rejects all calls with ErrOpen until the open duration
	// elapses.
	StateOpen

	// StateHalfOpen admits exactly one trial call to probe recovery.
	StateHalfOpen
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Outcome classifies the result of a wrapped operation.
type Outcome int

const (
	// OutcomeSuccess resets the failure counter and closes a half-open
	// breaker.
	OutcomeSuccess Outcome = iota

	// OutcomeFailure counts toward the failure threshold and re-opens a
	// half-open breaker.
	OutcomeFailure

	// OutcomeIgnore leaves the failure counter and state untouched. In the
	// half-open state it releases the trial slot so the next call becomes
	// the trial.
	OutcomeIgnore
)

// Classifier maps an operation error to an Outcome. A nil error must be
// classified OutcomeSuccess.
type Classifier func(err error) Outcome

// defaultClassify treats every non-nil error as a qualifying failure.
func defaultClassify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	return OutcomeFailure
}

// Config holds configuration for a Breaker.
type Config struct {
	// Name identifies this breaker (used in metrics and logs).
	Name string

	// FailureThreshold is the number of consecutive qualifying failures in
	// the closed state before the breaker opens. Default: 5.
	FailureThreshold int

	// OpenDuration is how long the breaker stays open before admitting a
	// trial call. Default: 30s.
	OpenDuration time.Duration

	// Classify decides which errors count against the threshold. Defaults
	// to treating every non-nil error as a failure.
	Classify Classifier

	// OnStateChange, if set, is invoked after every state transition while
	// the breaker lock is held. Callbacks must be fast and must not call
	// back into the breaker.
	OnStateChange func(name string, from, to State)
}

var (
	breakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Current state of the circuit breaker (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	breakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "to"},
	)
)

// stateToFloat maps states to prometheus gauge values.
func stateToFloat(state State) float64 {
	switch state {
	case StateClosed:
		return 0
	case StateHalfOpen:
		return 1
	case StateOpen:
		return 2
	default:
		return -1
	}
}

// Breaker is a generic three-state circuit breaker. It is safe for
// concurrent use from multiple goroutines.
type Breaker[T any] struct {
	name          string
	threshold     int
	openDuration  time.Duration
	classify      Classifier
	onStateChange func(name string, from, to State)
	logger        *slog.Logger

	mu            sync.Mutex
	state         State
	failures      int
	openedAt      time.Time
	trialInFlight bool
}

// New creates a Breaker with the supplied configuration. Zero-value config
// fields are replaced with defaults.
func New[T any](cfg Config, logger *slog.Logger) *Breaker[T] {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = 30 * time.Second
	}
	if cfg.Classify == nil {
		cfg.Classify = defaultClassify
	}
	if logger == nil {
		logger = slog.Default()
	}

	breakerState.WithLabelValues(cfg.Name).Set(stateToFloat(StateClosed))

	return &Breaker[T]{
		name:          cfg.Name,
		threshold:     cfg.FailureThreshold,
		openDuration:  cfg.OpenDuration,
		classify:      cfg.Classify,
		onStateChange: cfg.OnStateChange,
		logger:        logger,
		state:         StateClosed,
	}
}

// Execute runs op if the breaker allows it. In the open state it returns
// ErrOpen without calling op. In the half-open state only the single
// in-flight trial call is admitted; concurrent calls are rejected with
// ErrOpen.
func (b *Breaker[T]) Execute(op func() (T, error)) (T, error) {
	var zero T

	if err := b.allow(); err != nil {
		return zero, err
	}

	v, err := op()
	b.record(err)
	if err != nil {
		return zero, err
	}
	return v, nil
}

// State returns the breaker's current state. An expired open cooldown is
// reported as half-open even before the next call arrives.
func (b *Breaker[T]) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && time.Since(b.openedAt) >= b.openDuration {
		return StateHalfOpen
	}
	return b.state
}

// allow decides whether a call may proceed, performing the open→half-open
// transition when the cooldown has elapsed.
func (b *Breaker[T]) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(b.openedAt) < b.openDuration {
			return ErrOpen
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = true
		return nil

	case StateHalfOpen:
		if b.trialInFlight {
			return ErrOpen
		}
		b.trialInFlight = true
		return nil
	}

	return nil
}

// record applies the outcome of a completed call to the state machine.
func (b *Breaker[T]) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.classify(err) {
	case OutcomeSuccess:
		if b.state == StateHalfOpen {
			b.transition(StateClosed)
		}
		b.trialInFlight = false
		b.failures = 0

	case OutcomeIgnore:
		// Not a service-health signal: leave the counter and state alone,
		// but free the half-open trial slot for the next caller.
		b.trialInFlight = false

	case OutcomeFailure:
		if b.state == StateHalfOpen {
			b.trialInFlight = false
			b.openedAt = time.Now()
			b.transition(StateOpen)
			return
		}
		b.failures++
		if b.state == StateClosed && b.failures >= b.threshold {
			b.openedAt = time.Now()
			b.transition(StateOpen)
		}
	}
}

// transition moves the breaker to a new state and emits observability
// signals. Callers must hold b.mu.
func (b *Breaker[T]) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to

	breakerState.WithLabelValues(b.name).Set(stateToFloat(to))
	breakerTransitionsTotal.WithLabelValues(b.name, to.String()).Inc()

	b.logger.Warn("circuit breaker state change",
		slog.String("breaker", b.name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)

	if b.onStateChange != nil {
		b.onStateChange(b.name, from, to)
	}
}
