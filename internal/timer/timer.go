package timer

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type TickerFunc func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type Hooks struct {
	OnTick      func(remaining time.Duration)
	OnThreshold func(remaining time.Duration)
	OnExpire    func()
}

// Service counts a session budget down once per second while not paused.
// Thresholds fire once each; expiry fires once when the budget reaches zero.
type Service struct {
	budget     time.Duration
	thresholds []time.Duration
	newTicker  TickerFunc
	hooks      Hooks

	mu         sync.Mutex
	remaining  time.Duration
	paused     bool
	running    bool
	generation uint64
	fired      map[time.Duration]bool
	expired    bool
	stop       chan struct{}
}

func New(budget time.Duration, thresholds []time.Duration, newTicker TickerFunc, hooks Hooks) *Service {
	if newTicker == nil {
		newTicker = NewRealTicker
	}
	ths := append([]time.Duration(nil), thresholds...)
	sort.Slice(ths, func(i, j int) bool { return ths[i] > ths[j] })
	return &Service{
		budget:     budget,
		thresholds: ths,
		newTicker:  newTicker,
		hooks:      hooks,
		remaining:  budget,
		fired:      make(map[time.Duration]bool),
	}
}

// Start begins counting down. Any earlier loop is cancelled first.
func (s *Service) Start() {
	s.mu.Lock()
	s.stopLocked()
	s.generation++
	gen := s.generation
	stop := make(chan struct{})
	s.stop = stop
	s.running = true
	s.paused = false
	ticker := s.newTicker(time.Second)
	s.mu.Unlock()

	go s.loop(gen, ticker, stop)
}

func (s *Service) loop(gen uint64, ticker Ticker, stop chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			if !s.tick(gen) {
				return
			}
		}
	}
}

// Tick advances one second as if the loop ticked.
func (s *Service) Tick() {
	s.mu.Lock()
	gen := s.generation
	running := s.running
	s.mu.Unlock()
	if running {
		s.tick(gen)
	}
}

// tick reports whether the loop of generation gen should keep running.
func (s *Service) tick(gen uint64) bool {
	s.mu.Lock()
	if gen != s.generation || !s.running {
		s.mu.Unlock()
		return false
	}
	if s.paused {
		s.mu.Unlock()
		return true
	}
	if s.remaining > 0 {
		s.remaining -= time.Second
	}
	remaining := s.remaining
	var crossed []time.Duration
	for _, th := range s.thresholds {
		if !s.fired[th] && remaining <= th && remaining > 0 {
			s.fired[th] = true
			crossed = append(crossed, th)
		}
	}
	expire := remaining <= 0 && !s.expired
	if expire {
		s.expired = true
		s.running = false
		s.stopLocked()
	}
	s.mu.Unlock()

	if s.hooks.OnTick != nil {
		s.hooks.OnTick(remaining)
	}
	for _, th := range crossed {
		if s.hooks.OnThreshold != nil {
			s.hooks.OnThreshold(th)
		}
	}
	if expire && s.hooks.OnExpire != nil {
		s.hooks.OnExpire()
	}
	return !expire
}

// Stop halts the loop without resetting the remaining time.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Service) stopLocked() {
	s.running = false
	s.generation++
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Service) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = true
}

func (s *Service) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = false
}

func (s *Service) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Reset stops the loop and restores the full budget with thresholds re-armed.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.remaining = s.budget
	s.paused = false
	s.expired = false
	s.fired = make(map[time.Duration]bool)
}

func (s *Service) Remaining() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

func (s *Service) Budget() time.Duration {
	return s.budget
}

// Format renders d as mm:ss.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
