package client

import (
	"context"
	"sync"
	"time"

	"viralpik/internal/validation"
)

// DefaultDebounce is the quiet period after the last keystroke.
const DefaultDebounce = 400 * time.Millisecond

// AvailabilityFunc queries whether a username is free.
type AvailabilityFunc func(ctx context.Context, username string) (bool, error)

// ResultFunc receives the outcome for the value that was checked.
type ResultFunc func(username string, available bool, err error)

// Debouncer runs the username availability check once input has been quiet
// for the configured delay. Only the latest value is queried, and results
// for values that were superseded while in flight are dropped.
type Debouncer struct {
	delay    time.Duration
	check    AvailabilityFunc
	onResult ResultFunc

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	pending string
	cancel  context.CancelFunc
	stopped bool
}

func NewDebouncer(delay time.Duration, check AvailabilityFunc, onResult ResultFunc) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay, check: check, onResult: onResult}
}

// Input records a keystroke.
func (d *Debouncer) Input(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.seq++
	d.pending = value
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if d.stopped || seq != d.seq {
		d.mu.Unlock()
		return
	}
	value := d.pending
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.mu.Unlock()
	defer cancel()

	normalized := validation.NormalizeUsername(value)
	var (
		available bool
		err       error
	)
	if err = validation.ValidateUsername(normalized); err == nil {
		available, err = d.check(ctx, normalized)
	}

	d.mu.Lock()
	current := seq == d.seq && !d.stopped
	d.mu.Unlock()
	if current && d.onResult != nil {
		d.onResult(normalized, available, err)
	}
}

// Stop cancels any pending or in-flight check.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
	}
}
