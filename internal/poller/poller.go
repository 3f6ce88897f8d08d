// Package poller refreshes the dashboard snapshot on a fixed schedule.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"fintrack/internal/core"
	"fintrack/internal/dashboard"
	"fintrack/internal/log"
	"fintrack/internal/source"
)

// ErrAlreadyRunning is returned by Start on a running poller.
var ErrAlreadyRunning = errors.New("poller is already running")

// Sink receives refresh outcomes.
type Sink interface {
	Apply(generation uint64, txs []core.Transaction) *dashboard.Snapshot
	RecordFailure(err error, at time.Time)
}

// Update describes an accepted refresh.
type Update struct {
	RefreshID string
	Snapshot  *dashboard.Snapshot
}

// Config holds poller settings.
type Config struct {
	Interval     time.Duration
	// FetchTimeout bounds a single fetch; zero means no limit.
	FetchTimeout time.Duration
	// OnUpdate, when set, is called after each accepted refresh.
	OnUpdate     func(ctx context.Context, u Update)
}

// Poller fetches the full transaction list every Interval and hands it to the
// sink. Fetches may overlap; whichever finishes last wins. Results landing
// after Stop, or from before the latest Start, are dropped.
type Poller struct {
	src    source.TransactionSource
	sink   Sink
	config Config
	logger *log.Logger

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	runCtx  context.Context
	epoch   uint64

	generation atomic.Uint64
	inFlight   sync.WaitGroup
}

func New(src source.TransactionSource, sink Sink, config Config, logger *log.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = 10 * time.Second
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Poller{
		src:    src,
		sink:   sink,
		config: config,
		logger: logger.WithComponent(log.ComponentPoller),
	}
}

// Start refreshes once right away and then on schedule.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return ErrAlreadyRunning
	}

	epoch := p.epoch + 1
	c := cron.New()
	schedule := fmt.Sprintf("@every %s", p.config.Interval)
	job := func() {
		p.inFlight.Add(1)
		defer p.inFlight.Done()
		p.refresh(epoch)
	}
	if _, err := c.AddFunc(schedule, job); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", schedule, err)
	}

	p.epoch = epoch
	p.running = true
	p.cron = c
	p.runCtx = context.WithoutCancel(ctx)
	c.Start()

	p.inFlight.Add(1)
	go func() {
		defer p.inFlight.Done()
		p.refresh(epoch)
	}()

	p.logger.InfoContext(ctx, "Poller started", "interval", p.config.Interval, log.FieldOperation, log.OpStartup)
	return nil
}

// Stop cancels the schedule. In-flight fetches keep going but their results
// are discarded. Stop does not wait for them.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.epoch++
	c := p.cron
	p.cron = nil
	p.mu.Unlock()

	c.Stop()
	p.logger.InfoContext(ctx, "Poller stopped", log.FieldOperation, log.OpShutdown)
	return nil
}

// Wait blocks until every refresh started by Start or Refresh has returned,
// or ctx is done.
func (p *Poller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Generation returns the number of the most recent refresh attempt.
func (p *Poller) Generation() uint64 {
	return p.generation.Load()
}

// Refresh runs one refresh in the caller's goroutine, for example after a
// write. It reports whether the result was applied.
func (p *Poller) Refresh(ctx context.Context) (bool, error) {
	p.mu.Lock()
	running, epoch := p.running, p.epoch
	p.mu.Unlock()
	if !running {
		return false, errors.New("poller is not running")
	}
	p.inFlight.Add(1)
	defer p.inFlight.Done()
	return p.run(ctx, epoch)
}

func (p *Poller) refresh(epoch uint64) {
	p.mu.Lock()
	ctx := p.runCtx
	p.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	p.run(ctx, epoch)
}

// whileLive runs fn under the lifecycle lock if results from epoch may still
// be applied, so Stop cannot land between the check and fn.
func (p *Poller) whileLive(epoch uint64, fn func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || p.epoch != epoch {
		return false
	}
	fn()
	return true
}

func (p *Poller) run(ctx context.Context, epoch uint64) (bool, error) {
	gen := p.generation.Add(1)
	refreshID := uuid.NewString()
	logger := p.logger.With(log.FieldRefreshID, refreshID, log.FieldGeneration, gen)

	fetchCtx := ctx
	if p.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, p.config.FetchTimeout)
		defer cancel()
	}

	start := time.Now()
	txs, err := p.src.FetchTransactions(fetchCtx)
	elapsed := time.Since(start)

	var snap *dashboard.Snapshot
	applied := p.whileLive(epoch, func() {
		if err != nil {
			p.sink.RecordFailure(err, time.Now())
			return
		}
		snap = p.sink.Apply(gen, txs)
	})
	if !applied {
		logger.DebugContext(ctx, "Discarding refresh result after teardown", log.FieldDuration, elapsed.Milliseconds())
		return false, nil
	}

	if err != nil {
		logger.ErrorContext(ctx, "Failed to refresh transactions",
			log.FieldOperation, log.OpFetch,
			log.FieldDuration, elapsed.Milliseconds(),
			log.FieldError, err)
		return false, err
	}

	logger.DebugContext(ctx, "Refresh applied",
		log.FieldTxCount, len(txs),
		log.FieldDuration, elapsed.Milliseconds())

	if p.config.OnUpdate != nil {
		p.config.OnUpdate(ctx, Update{RefreshID: refreshID, Snapshot: snap})
	}
	return true, nil
}
