package breaker

import (
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errDown    = errors.New("service down")
	errIgnored = errors.New("contract violation")
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 3,
		OpenDuration:     50 * time.Millisecond,
	}
}

// failNTimes returns an operation that fails the first n calls and succeeds
// afterwards, plus a pointer to the call counter.
func failNTimes(n int) (func() (string, error), *int) {
	calls := 0
	return func() (string, error) {
		calls++
		if calls <= n {
			return "", errDown
		}
		return "ok", nil
	}, &calls
}

func TestExecute_ClosedPassesThrough(t *testing.T) {
	b := New[string](testConfig("closed-pass"), testLogger())

	got, err := b.Execute(func() (string, error) { return "value", nil })

	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, StateClosed, b.State())
}

func TestExecute_TripsAfterThresholdConsecutiveFailures(t *testing.T) {
	b := New[string](testConfig("trips"), testLogger())
	op, calls := failNTimes(100)

	for i := 0; i < 3; i++ {
		_, err := b.Execute(op)
		assert.ErrorIs(t, err, errDown)
	}
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, 3, *calls)

	// The next call must fast-fail without invoking the operation.
	_, err := b.Execute(op)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 3, *calls)
}

func TestExecute_SuccessResetsFailureCounter(t *testing.T) {
	b := New[string](testConfig("reset"), testLogger())

	// Two failures, then a success: the counter must start over.
	for i := 0; i < 2; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errDown })
	}
	_, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)

	// Two more failures are not enough to trip a threshold of three.
	for i := 0; i < 2; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errDown })
	}
	assert.Equal(t, StateClosed, b.State())

	_, _ = b.Execute(func() (string, error) { return "", errDown })
	assert.Equal(t, StateOpen, b.State())
}

func TestExecute_HalfOpenAfterCooldownThenCloses(t *testing.T) {
	b := New[string](testConfig("recovery"), testLogger())
	op, calls := failNTimes(3)

	for i := 0; i < 3; i++ {
		_, _ = b.Execute(op)
	}
	assert.Equal(t, StateOpen, b.State())

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	// The trial call is admitted and succeeds, closing the breaker.
	got, err := b.Execute(op)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 4, *calls)
	assert.Equal(t, StateClosed, b.State())

	// The failure counter was reset: re-tripping takes a fresh full threshold.
	for i := 0; i < 2; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errDown })
	}
	assert.Equal(t, StateClosed, b.State())
	_, _ = b.Execute(func() (string, error) { return "", errDown })
	assert.Equal(t, StateOpen, b.State())
}

func TestExecute_HalfOpenTrialFailureReopens(t *testing.T) {
	b := New[string](testConfig("reopen"), testLogger())
	op, calls := failNTimes(100)

	for i := 0; i < 3; i++ {
		_, _ = b.Execute(op)
	}
	time.Sleep(60 * time.Millisecond)

	// Trial fails: back to open with a restarted cooldown.
	_, err := b.Execute(op)
	assert.ErrorIs(t, err, errDown)
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, 4, *calls)

	// Still open: calls fast-fail without reaching the operation.
	_, err = b.Execute(op)
	assert.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 4, *calls)
}

func TestExecute_IgnoredErrorsDoNotCount(t *testing.T) {
	cfg := testConfig("ignored")
	cfg.Classify = func(err error) Outcome {
		switch {
		case err == nil:
			return OutcomeSuccess
		case errors.Is(err, errIgnored):
			return OutcomeIgnore
		default:
			return OutcomeFailure
		}
	}
	b := New[string](cfg, testLogger())

	// Two qualifying failures, then an ignored error. The ignored error must
	// neither increment nor reset the counter.
	for i := 0; i < 2; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errDown })
	}
	_, err := b.Execute(func() (string, error) { return "", errIgnored })
	assert.ErrorIs(t, err, errIgnored)
	assert.Equal(t, StateClosed, b.State())

	// One more qualifying failure completes the threshold of three.
	_, _ = b.Execute(func() (string, error) { return "", errDown })
	assert.Equal(t, StateOpen, b.State())
}

func TestExecute_OnlyIgnoredErrorsNeverTrip(t *testing.T) {
	cfg := testConfig("only-ignored")
	cfg.Classify = func(err error) Outcome {
		if err == nil {
			return OutcomeSuccess
		}
		return OutcomeIgnore
	}
	b := New[string](cfg, testLogger())

	for i := 0; i < 20; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errIgnored })
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestExecute_HalfOpenAdmitsExactlyOneTrial(t *testing.T) {
	b := New[string](testConfig("single-trial"), testLogger())

	for i := 0; i < 3; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errDown })
	}
	time.Sleep(60 * time.Millisecond)

	trialStarted := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := b.Execute(func() (string, error) {
			close(trialStarted)
			<-release
			return "ok", nil
		})
		assert.NoError(t, err)
	}()

	// While the trial is in flight, concurrent calls are rejected without
	// being invoked.
	<-trialStarted
	invoked := false
	_, err := b.Execute(func() (string, error) {
		invoked = true
		return "", nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, invoked)

	close(release)
	wg.Wait()
	assert.Equal(t, StateClosed, b.State())
}

func TestExecute_IgnoredTrialReleasesSlot(t *testing.T) {
	cfg := testConfig("trial-ignored")
	cfg.Classify = func(err error) Outcome {
		switch {
		case err == nil:
			return OutcomeSuccess
		case errors.Is(err, errIgnored):
			return OutcomeIgnore
		default:
			return OutcomeFailure
		}
	}
	b := New[string](cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errDown })
	}
	time.Sleep(60 * time.Millisecond)

	// The trial returns an ignored error: the breaker stays half-open and the
	// next call becomes the new trial.
	_, err := b.Execute(func() (string, error) { return "", errIgnored })
	assert.ErrorIs(t, err, errIgnored)
	assert.Equal(t, StateHalfOpen, b.State())

	got, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, StateClosed, b.State())
}

func TestOnStateChange_ObservesTransitions(t *testing.T) {
	type change struct{ from, to State }
	var mu sync.Mutex
	var changes []change

	cfg := testConfig("observed")
	cfg.OnStateChange = func(name string, from, to State) {
		assert.Equal(t, "observed", name)
		mu.Lock()
		changes = append(changes, change{from, to})
		mu.Unlock()
	}
	b := New[string](cfg, testLogger())

	for i := 0; i < 3; i++ {
		_, _ = b.Execute(func() (string, error) { return "", errDown })
	}
	time.Sleep(60 * time.Millisecond)
	_, _ = b.Execute(func() (string, error) { return "ok", nil })

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 3)
	assert.Equal(t, change{StateClosed, StateOpen}, changes[0])
	assert.Equal(t, change{StateOpen, StateHalfOpen}, changes[1])
	assert.Equal(t, change{StateHalfOpen, StateClosed}, changes[2])
}

func TestNew_DefaultsApplied(t *testing.T) {
	b := New[int](Config{Name: "defaults"}, nil)

	assert.Equal(t, 5, b.threshold)
	assert.Equal(t, 30*time.Second, b.openDuration)
	assert.NotNil(t, b.classify)
	assert.Equal(t, StateClosed, b.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
