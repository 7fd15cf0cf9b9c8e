package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/retry"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/timeutil"
)

// Checkpoint is the state of one throttle window. A zero Until means no
// window is open.
type Checkpoint struct {
	Until       time.Time `json:"until"`
	Remaining   int       `json:"remaining"`
	LastRequest time.Time `json:"lastRequest"`
}

// Active reports whether the window is still open at now.
func (c Checkpoint) Active(now time.Time) bool {
	return !c.Until.IsZero() && now.Before(c.Until)
}

// CheckpointStore persists throttle state per engine, so budgets survive
// process restarts.
type CheckpointStore interface {
	// LoadCheckpoint returns the saved state, or nil when none exists.
	LoadCheckpoint(ctx context.Context, engine string) (*Checkpoint, error)

	// SaveCheckpoint replaces the saved state.
	SaveCheckpoint(ctx context.Context, engine string, cp Checkpoint) error
}

// MemoryCheckpointStore keeps checkpoints for the lifetime of the process.
type MemoryCheckpointStore struct {
	mu          sync.Mutex
	checkpoints map[string]Checkpoint
}

// NewMemoryCheckpointStore creates an empty store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{checkpoints: make(map[string]Checkpoint)}
}

func (s *MemoryCheckpointStore) LoadCheckpoint(_ context.Context, engine string) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp, ok := s.checkpoints[strings.ToUpper(engine)]
	if !ok {
		return nil, nil
	}
	return &cp, nil
}

func (s *MemoryCheckpointStore) SaveCheckpoint(_ context.Context, engine string, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[strings.ToUpper(engine)] = cp
	return nil
}

// ThrottleOption configures a Throttle.
type ThrottleOption func(*Throttle)

// WithThrottleClock sets the clock used for sleeping and timestamps.
func WithThrottleClock(clock timeutil.Clock) ThrottleOption {
	return func(t *Throttle) { t.clock = clock }
}

// WithCheckpointStore persists state through store.
func WithCheckpointStore(store CheckpointStore) ThrottleOption {
	return func(t *Throttle) { t.store = store }
}

// WithThrottleLogger sets the logger.
func WithThrottleLogger(log *logger.Logger) ThrottleOption {
	return func(t *Throttle) { t.log = log }
}

// WithRandom replaces the range sampler, for deterministic tests.
func WithRandom(pick func(domain.DurationRange) time.Duration) ThrottleOption {
	return func(t *Throttle) { t.pick = pick }
}

// Throttle paces the searches of one engine according to its
// ThrottleProfile. It is safe for concurrent use but is normally driven
// by a single Engine.
type Throttle struct {
	engine  string
	profile domain.ThrottleProfile
	clock   timeutil.Clock
	store   CheckpointStore
	log     *logger.Logger
	pick    func(domain.DurationRange) time.Duration

	// waiting serializes Wait; mu guards the state and is released while
	// Wait sleeps
	waiting sync.Mutex
	mu      sync.Mutex
	state   Checkpoint
	loaded  bool
}

// NewThrottle creates a throttle for engine.
func NewThrottle(engine string, profile domain.ThrottleProfile, opts ...ThrottleOption) *Throttle {
	t := &Throttle{
		engine:  strings.ToUpper(engine),
		profile: profile,
		clock:   timeutil.NewRealClock(),
		store:   NewMemoryCheckpointStore(),
		log:     logger.Nop(),
		pick:    domain.DurationRange.Random,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WindowBudget returns the number of requests allowed in a window of the
// given length: max(1, floor(requestsPerHour * window / 1h)).
func WindowBudget(requestsPerHour int, window time.Duration) int {
	budget := int(math.Floor(float64(requestsPerHour) * float64(window.Milliseconds()) / 3600000))
	if budget < 1 {
		return 1
	}
	return budget
}

// Wait blocks until the next search may start. It returns early with the
// context error when ctx ends.
func (t *Throttle) Wait(ctx context.Context) error {
	if t.profile.Disabled {
		return nil
	}

	t.waiting.Lock()
	defer t.waiting.Unlock()
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.load(ctx); err != nil {
		return err
	}

	// Spacing between two consecutive requests
	if !t.profile.DelayBetweenRequests.IsZero() && !t.state.LastRequest.IsZero() {
		next := t.state.LastRequest.Add(t.pick(t.profile.DelayBetweenRequests))
		if wait := next.Sub(t.clock.Now()); wait > 0 {
			t.log.Debug().Dur("wait", wait).Msg("delaying between requests")
			if err := t.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	// Budget of the current window is spent: rest until it ends
	now := t.clock.Now()
	if t.state.Active(now) && t.state.Remaining <= 0 {
		wait := t.state.Until.Sub(now)
		t.log.Info().Dur("rest", wait).Time("until", t.state.Until).Msg("request budget exhausted, resting")
		if err := t.sleep(ctx, wait); err != nil {
			return err
		}
		t.state.Until = time.Time{}
		now = t.clock.Now()
	}

	if !t.state.Active(now) {
		window := t.pick(t.profile.RestPeriod)
		t.state.Until = now.Add(window)
		t.state.Remaining = WindowBudget(t.profile.RequestsPerHour, window)
		t.log.Debug().
			Time("until", t.state.Until).
			Int("budget", t.state.Remaining).
			Msg("opened throttle window")
	}

	t.state.Remaining--
	t.state.LastRequest = now
	t.persist(ctx)
	return nil
}

// sleep waits for d with mu released. The caller holds mu.
func (t *Throttle) sleep(ctx context.Context, d time.Duration) error {
	t.mu.Unlock()
	defer t.mu.Lock()
	return t.clock.Sleep(ctx, d)
}

// Penalize spends the remaining budget of the open window, so the next
// Wait rests until the window ends.
func (t *Throttle) Penalize(ctx context.Context) {
	if t.profile.Disabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Until.IsZero() {
		return
	}
	t.log.Warn().Time("until", t.state.Until).Msg("throttle penalized after bad response")
	t.state.Remaining = 0
	t.persist(ctx)
}

// Checkpoint returns a copy of the current state.
func (t *Throttle) Checkpoint() Checkpoint {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Throttle) load(ctx context.Context) error {
	if t.loaded {
		return nil
	}
	cp, err := t.store.LoadCheckpoint(ctx, t.engine)
	if err != nil {
		return fmt.Errorf("load throttle checkpoint for %s: %w", t.engine, err)
	}
	if cp != nil {
		t.state = *cp
	}
	t.loaded = true
	return nil
}

// persist saves state; failures are logged since the in-memory state
// stays authoritative for this process.
func (t *Throttle) persist(ctx context.Context) {
	state := t.state
	err := retry.Do(ctx, func() error {
		return t.store.SaveCheckpoint(ctx, t.engine, state)
	}, retry.StorageConfig)
	if err != nil {
		t.log.Warn().Err(err).Msg("failed to save throttle checkpoint")
	}
}
