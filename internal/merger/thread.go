package merger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultSleepPeriod is the time between merge passes while awake.
	DefaultSleepPeriod = time.Second
	// DefaultWakeupWindow is how long a Wakeup keeps the thread awake.
	DefaultWakeupWindow = 3 * time.Second
)

// State is the activity state of a MergeThread.
type State int

const (
	Idle State = iota
	Awake
)

func (s State) String() string {
	if s == Awake {
		return "awake"
	}
	return "idle"
}

// Runner is what a MergeThread drives.
type Runner interface {
	Merge(ctx context.Context) Stats
}

// ThreadOption configures a MergeThread.
type ThreadOption func(*MergeThread)

// WithSleepPeriod sets the time between passes while awake.
func WithSleepPeriod(d time.Duration) ThreadOption {
	return func(t *MergeThread) {
		if d > 0 {
			t.sleep = d
		}
	}
}

// WithWakeupWindow sets how long each Wakeup keeps the thread awake.
func WithWakeupWindow(d time.Duration) ThreadOption {
	return func(t *MergeThread) {
		if d > 0 {
			t.window = d
		}
	}
}

// WithThreadLogger sets the logger.
func WithThreadLogger(logger *zap.Logger) ThreadOption {
	return func(t *MergeThread) {
		t.logger = logger
	}
}

// MergeThread runs merge passes in the background. After a Wakeup it
// merges once immediately and then every sleep period until the wakeup
// window has been used up; it then blocks until the next Wakeup.
type MergeThread struct {
	runner Runner
	logger *zap.Logger
	sleep  time.Duration
	window time.Duration

	mu        sync.Mutex
	remaining time.Duration

	signal   chan struct{}
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewThread creates a parked merge thread for r.
func NewThread(r Runner, opts ...ThreadOption) *MergeThread {
	t := &MergeThread{
		runner: r,
		logger: zap.NewNop(),
		sleep:  DefaultSleepPeriod,
		window: DefaultWakeupWindow,
		signal: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Wakeup re-arms the wakeup window.
func (t *MergeThread) Wakeup() {
	t.SetTimeout(t.window)
}

// SetTimeout sets the remaining awake time. Zero or less parks the thread
// after its current wait.
func (t *MergeThread) SetTimeout(d time.Duration) {
	t.mu.Lock()
	t.remaining = max(d, 0)
	t.mu.Unlock()
	select {
	case t.signal <- struct{}{}:
	default:
	}
}

// State reports whether the thread is awake.
func (t *MergeThread) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.remaining > 0 {
		return Awake
	}
	return Idle
}

// tick consumes one sleep period and reports whether a pass is due.
func (t *MergeThread) tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	due := t.remaining > 0
	t.remaining = max(t.remaining-t.sleep, 0)
	return due
}

// Start runs the thread until ctx is done or Stop is called.
func (t *MergeThread) Start(ctx context.Context) error {
	t.done = make(chan struct{})
	go t.loop(ctx)
	return nil
}

// Stop ends the thread and waits for an in-progress pass to finish.
func (t *MergeThread) Stop() error {
	t.stopOnce.Do(func() { close(t.stopCh) })
	if t.done != nil {
		<-t.done
	}
	return nil
}

func (t *MergeThread) loop(ctx context.Context) {
	defer close(t.done)
	timer := time.NewTimer(t.sleep)
	defer timer.Stop()

	for {
		var wait <-chan time.Time
		if t.State() == Awake {
			timer.Reset(t.sleep)
			wait = timer.C
		}
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case <-t.signal:
		case <-wait:
		}
		if t.tick() {
			stats := t.runner.Merge(ctx)
			t.logger.Debug("merged", zap.Int("records", stats.Records), zap.Stringer("state", t.State()))
		}
	}
}
