package timer

import (
	"sync"
	"testing"
	"time"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.stopped) }) }

type tickerFactory struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (tf *tickerFactory) New(time.Duration) Ticker {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
	tf.tickers = append(tf.tickers, t)
	return t
}

func (tf *tickerFactory) get(i int) *fakeTicker {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return tf.tickers[i]
}

type recorder struct {
	mu         sync.Mutex
	ticks      []time.Duration
	thresholds []time.Duration
	expired    int
	tickCh     chan time.Duration
}

func newRecorder() *recorder {
	return &recorder{tickCh: make(chan time.Duration, 64)}
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnTick: func(d time.Duration) {
			r.mu.Lock()
			r.ticks = append(r.ticks, d)
			r.mu.Unlock()
			r.tickCh <- d
		},
		OnThreshold: func(d time.Duration) {
			r.mu.Lock()
			r.thresholds = append(r.thresholds, d)
			r.mu.Unlock()
		},
		OnExpire: func() {
			r.mu.Lock()
			r.expired++
			r.mu.Unlock()
		},
	}
}

func TestTick_PauseGatesDecrement(t *testing.T) {
	rec := newRecorder()
	tf := &tickerFactory{}
	s := New(10*time.Second, nil, tf.New, rec.hooks())
	s.Start()

	s.Tick()
	s.Pause()
	s.Pause()
	s.Tick()
	s.Tick()
	s.Resume()
	s.Tick()

	if got := s.Remaining(); got != 8*time.Second {
		t.Fatalf("expected 8s remaining, got %s", got)
	}
	if !s.Running() {
		t.Fatal("expected running")
	}
}

func TestThresholdsFireOnce(t *testing.T) {
	rec := newRecorder()
	s := New(5*time.Second, []time.Duration{2 * time.Second, 4 * time.Second}, (&tickerFactory{}).New, rec.hooks())
	s.Start()
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.thresholds) != 2 || rec.thresholds[0] != 4*time.Second || rec.thresholds[1] != 2*time.Second {
		t.Fatalf("unexpected thresholds %v", rec.thresholds)
	}
	if rec.expired != 1 {
		t.Fatalf("expected one expiry, got %d", rec.expired)
	}
	if s.Running() {
		t.Fatal("expected stopped after expiry")
	}
}

func TestExpiryFiresOnce(t *testing.T) {
	rec := newRecorder()
	s := New(2*time.Second, nil, (&tickerFactory{}).New, rec.hooks())
	s.Start()
	s.Tick()
	s.Tick()
	s.Tick()
	s.Tick()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.expired != 1 {
		t.Fatalf("expected one expiry, got %d", rec.expired)
	}
	if s.Remaining() != 0 {
		t.Fatalf("expected 0 remaining, got %s", s.Remaining())
	}
}

func TestStartTwice_SingleLoop(t *testing.T) {
	rec := newRecorder()
	tf := &tickerFactory{}
	s := New(10*time.Second, nil, tf.New, rec.hooks())
	s.Start()
	s.Start()

	first, second := tf.get(0), tf.get(1)
	select {
	case <-first.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("first loop was not stopped")
	}

	second.ch <- time.Now()
	<-rec.tickCh
	select {
	case first.ch <- time.Now():
		t.Fatal("stale loop still consuming ticks")
	case <-time.After(50 * time.Millisecond):
	}
	if got := s.Remaining(); got != 9*time.Second {
		t.Fatalf("expected 9s remaining, got %s", got)
	}
}

func TestLoopTicks(t *testing.T) {
	rec := newRecorder()
	tf := &tickerFactory{}
	s := New(3*time.Second, nil, tf.New, rec.hooks())
	s.Start()
	tk := tf.get(0)
	for i := 0; i < 3; i++ {
		tk.ch <- time.Now()
		<-rec.tickCh
	}
	select {
	case <-tk.stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after expiry")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.expired != 1 {
		t.Fatalf("expected expiry, got %d", rec.expired)
	}
}

func TestReset_RestoresBudgetAndRearms(t *testing.T) {
	rec := newRecorder()
	s := New(3*time.Second, []time.Duration{2 * time.Second}, (&tickerFactory{}).New, rec.hooks())
	s.Start()
	s.Tick()
	s.Reset()
	if s.Running() || s.Remaining() != 3*time.Second {
		t.Fatalf("unexpected state after reset: running=%v remaining=%s", s.Running(), s.Remaining())
	}
	s.Tick()
	if s.Remaining() != 3*time.Second {
		t.Fatal("tick after reset must not decrement")
	}
	s.Start()
	s.Tick()
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.thresholds) != 2 {
		t.Fatalf("expected threshold to fire again after reset, got %v", rec.thresholds)
	}
}

func TestStop_KeepsRemaining(t *testing.T) {
	s := New(10*time.Second, nil, (&tickerFactory{}).New, Hooks{})
	s.Start()
	s.Tick()
	s.Stop()
	s.Tick()
	if s.Remaining() != 9*time.Second {
		t.Fatalf("expected 9s, got %s", s.Remaining())
	}
}

func TestFormat(t *testing.T) {
	cases := map[time.Duration]string{
		1200 * time.Second: "20:00",
		61 * time.Second:   "01:01",
		0:                  "00:00",
		-time.Second:       "00:00",
	}
	for d, want := range cases {
		if got := Format(d); got != want {
			t.Errorf("%s: expected %s, got %s", d, want, got)
		}
	}
}
