package audio

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/sttkit/component"
	"github.com/kbukum/sttkit/logger"
)

// Janitor periodically removes temp files left behind by crashed or killed
// conversions. It implements component.Component.
type Janitor struct {
	conv     *Converter
	interval time.Duration
	maxAge   time.Duration
	log      *logger.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	lastErr   error
	lastRun   time.Time
	lastSwept int
}

var _ component.Component = (*Janitor)(nil)

// NewJanitor creates a janitor for conv using the intervals in conv's config.
func NewJanitor(conv *Converter) *Janitor {
	return &Janitor{
		conv:     conv,
		interval: conv.cfg.CleanupInterval(),
		maxAge:   conv.cfg.CleanupMaxAge(),
		log:      conv.log.WithComponent("audio-janitor"),
	}
}

// Name implements component.Component.
func (j *Janitor) Name() string { return "audio-janitor" }

// Start runs an initial sweep and then sweeps every interval.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.cancel != nil {
		return nil
	}

	runCtx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})

	go j.loop(runCtx, j.done)
	return nil
}

func (j *Janitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	j.Sweep()
	if j.interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep()
		}
	}
}

// Sweep removes stale files once and records the outcome.
func (j *Janitor) Sweep() int {
	n, err := j.conv.CleanupOldFiles(j.maxAge)

	j.mu.Lock()
	j.lastErr = err
	j.lastRun = time.Now()
	j.lastSwept = n
	j.mu.Unlock()

	if err != nil {
		j.log.Warn("temp sweep incomplete", logger.ErrorFields("cleanup", err))
	} else if n > 0 {
		j.log.Info("removed stale temp files", logger.Fields("removed", n))
	}
	return n
}

// Stop halts the sweep loop.
func (j *Janitor) Stop(ctx context.Context) error {
	j.mu.Lock()
	cancel, done := j.cancel, j.done
	j.cancel, j.done = nil, nil
	j.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports degraded when the transcoder is missing or the last sweep
// failed.
func (j *Janitor) Health(ctx context.Context) component.Health {
	j.mu.Lock()
	lastErr := j.lastErr
	j.mu.Unlock()

	h := component.Health{
		Name:    j.Name(),
		Status:  component.StatusHealthy,
		Details: map[string]bool{"transcoder": j.conv.Available(), "sweep": lastErr == nil},
	}
	switch {
	case !h.Details["transcoder"]:
		h.Status = component.StatusDegraded
		h.Message = "transcoder binary not found"
	case lastErr != nil:
		h.Status = component.StatusDegraded
		h.Message = lastErr.Error()
	}
	return h
}

// LastSweep returns when the last sweep ran, how many files it removed and
// its error.
func (j *Janitor) LastSweep() (time.Time, int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun, j.lastSwept, j.lastErr
}
