package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedProber struct {
	mu      sync.Mutex
	results []error
	calls   int
}

func (p *scriptedProber) Probe(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.results) == 0 {
		return nil
	}
	err := p.results[0]
	p.results = p.results[1:]
	return err
}

func failures(n int) []error {
	out := make([]error, n)
	for i := range out {
		out[i] = errors.New("connection refused")
	}
	return out
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 120*time.Second, cfg.BackoffInterval)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 5, cfg.MaxRetries)
}

func TestCheckRecoversExactlyOnce(t *testing.T) {
	t.Parallel()

	var callbacks atomic.Int32
	m := New(DefaultConfig(), &scriptedProber{}, func(context.Context) error {
		callbacks.Add(1)
		return nil
	}, nil, nil)

	first := m.Check(context.Background())
	require.True(t, first.Success)
	require.True(t, first.Recovered)

	second := m.Check(context.Background())
	require.True(t, second.Success)
	assert.False(t, second.Recovered)
	assert.Equal(t, int32(1), callbacks.Load())
	assert.True(t, m.Status().Connected)
}

func TestCheckBacksOffAfterMaxRetries(t *testing.T) {
	t.Parallel()

	m := New(DefaultConfig(), &scriptedProber{results: failures(6)}, nil, nil, nil)

	for i := 1; i <= 4; i++ {
		res := m.Check(context.Background())
		require.False(t, res.Success)
		assert.Equal(t, i, m.Status().RetryCount)
		assert.Equal(t, int64(30000), m.Status().IntervalMs)
	}

	m.Check(context.Background())
	st := m.Status()
	assert.Equal(t, 0, st.RetryCount)
	assert.Equal(t, int64(120000), st.IntervalMs)

	m.Check(context.Background())
	st = m.Status()
	assert.Equal(t, 1, st.RetryCount)
	assert.Equal(t, int64(120000), st.IntervalMs)
	assert.Equal(t, "connection refused", st.LastError)
}

func TestCheckSuccessResetsRetryCount(t *testing.T) {
	t.Parallel()

	m := New(DefaultConfig(), &scriptedProber{results: failures(3)}, nil, nil, nil)
	for range 3 {
		m.Check(context.Background())
	}
	require.Equal(t, 3, m.Status().RetryCount)

	res := m.Check(context.Background())
	require.True(t, res.Recovered)
	assert.Equal(t, 0, m.Status().RetryCount)
}

func TestCheckCallbackFailureRearms(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	m := New(DefaultConfig(), &scriptedProber{}, func(context.Context) error {
		if calls.Add(1) == 1 {
			return errors.New("pool verification failed")
		}
		return nil
	}, nil, nil)

	res := m.Check(context.Background())
	require.True(t, res.Success)
	require.False(t, res.Recovered)
	require.Error(t, res.Err)
	assert.False(t, m.Status().Connected)

	res = m.Check(context.Background())
	assert.True(t, res.Recovered)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCheckAppliesProbeTimeout(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.ProbeTimeout = 20 * time.Millisecond
	prober := ProberFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	m := New(cfg, prober, nil, nil, nil)

	res := m.Check(context.Background())
	require.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Less(t, res.Duration, time.Second)
}

func TestCheckContainsPanickingProber(t *testing.T) {
	t.Parallel()

	m := New(DefaultConfig(), ProberFunc(func(context.Context) error {
		panic("boom")
	}), nil, nil, nil)

	res := m.Check(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, 1, m.Status().RetryCount)
}

type recordingObserver struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (o *recordingObserver) ObserveProbe(success bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if success {
		o.successes++
	} else {
		o.failures++
	}
}

func TestStartPollsUntilRecovered(t *testing.T) {
	t.Parallel()

	cfg := Config{Interval: 5 * time.Millisecond, BackoffInterval: 5 * time.Millisecond, ProbeTimeout: time.Second, MaxRetries: 5}
	prober := &scriptedProber{results: failures(2)}
	restored := make(chan struct{})
	obs := &recordingObserver{}
	m := New(cfg, prober, func(context.Context) error {
		close(restored)
		return nil
	}, obs, nil)

	m.Start(context.Background())
	select {
	case <-restored:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor never recovered")
	}

	require.Eventually(t, func() bool { return !m.Status().Monitoring }, time.Second, 5*time.Millisecond)
	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 2, obs.failures)
	assert.Equal(t, 1, obs.successes)
}

func TestStartIsIdempotentAndStopEndsLoop(t *testing.T) {
	t.Parallel()

	cfg := Config{Interval: 5 * time.Millisecond, BackoffInterval: 5 * time.Millisecond, ProbeTimeout: time.Second, MaxRetries: 100}
	prober := &scriptedProber{results: failures(1000)}
	m := New(cfg, prober, nil, nil, nil)

	m.Start(context.Background())
	m.Start(context.Background())
	require.Eventually(t, func() bool { return m.Status().RetryCount >= 2 }, time.Second, 5*time.Millisecond)
	assert.True(t, m.Status().Monitoring)

	m.Stop()
	assert.False(t, m.Status().Monitoring)
	m.Stop()
}

func TestResetRestoresInitialCadence(t *testing.T) {
	t.Parallel()

	m := New(DefaultConfig(), &scriptedProber{results: failures(5)}, nil, nil, nil)
	for range 5 {
		m.Check(context.Background())
	}
	require.Equal(t, int64(120000), m.Status().IntervalMs)

	m.Reset()
	assert.Equal(t, int64(30000), m.Status().IntervalMs)
	assert.False(t, m.Status().Connected)
}

type switchableProber struct {
	healthy atomic.Bool
	calls   atomic.Int32
}

func (p *switchableProber) Probe(context.Context) error {
	p.calls.Add(1)
	if p.healthy.Load() {
		return nil
	}
	return errors.New("connection refused")
}

func TestExternalCheckRecoveryStopsPolling(t *testing.T) {
	t.Parallel()

	cfg := Config{Interval: 5 * time.Millisecond, BackoffInterval: 5 * time.Millisecond, ProbeTimeout: time.Second, MaxRetries: 100}
	prober := &switchableProber{}
	var callbacks atomic.Int32
	m := New(cfg, prober, func(context.Context) error {
		callbacks.Add(1)
		return nil
	}, nil, nil)

	m.Start(context.Background())
	require.Eventually(t, func() bool { return m.Status().RetryCount >= 2 }, time.Second, time.Millisecond)

	prober.healthy.Store(true)
	m.Reset()
	res := m.Check(context.Background())
	require.True(t, res.Success)

	require.Eventually(t, func() bool { return !m.Status().Monitoring }, time.Second, time.Millisecond)
	calls := prober.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, prober.calls.Load())
	assert.Equal(t, int32(1), callbacks.Load())
	assert.True(t, m.Status().Connected)
}
