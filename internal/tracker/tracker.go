// Package tracker drives the wallet PnL pipeline: it pulls transactions for
// each tracked wallet, derives trade events, prices them, and upserts the
// resulting aggregate into the leaderboard.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"solana-pnl-tracker/internal/domain"
	"solana-pnl-tracker/internal/normalize"
	"solana-pnl-tracker/internal/observability"
	"solana-pnl-tracker/internal/pnl"
	"solana-pnl-tracker/internal/solana"
	"solana-pnl-tracker/internal/storage"
)

const (
	// DefaultSignatureLimit bounds how many signatures a run fetches per wallet.
	DefaultSignatureLimit = 100
	// DefaultFetchPace spaces consecutive getTransaction calls to stay
	// under public RPC rate limits.
	DefaultFetchPace = 500 * time.Millisecond
)

// ErrRunInProgress is returned by TriggerRun when a cycle is already running.
var ErrRunInProgress = errors.New("tracker run already in progress")

// Options configures a Tracker.
type Options struct {
	Client     solana.RPCClient
	Aggregator *pnl.Aggregator
	Board      storage.LeaderboardStore
	Source     WalletSource

	// Archive receives every derived trade event. Optional.
	Archive storage.TradeEventArchive

	Format         normalize.Format
	SignatureLimit int
	FetchPace      time.Duration
	Workers        int
	Logger         *log.Logger
	Metrics        *observability.Metrics
}

// Tracker computes and stores per-wallet PnL aggregates.
type Tracker struct {
	client  solana.RPCClient
	agg     *pnl.Aggregator
	board   storage.LeaderboardStore
	archive storage.TradeEventArchive
	source  WalletSource

	format   normalize.Format
	sigLimit int
	pace     time.Duration
	workers  int
	logger   *log.Logger
	metrics  *observability.Metrics

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time

	mu      sync.Mutex
	running bool
	lastRun time.Time
	runs    int
}

// New creates a Tracker from options. Client, Aggregator, Board and Source
// are required.
func New(opts Options) (*Tracker, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("tracker: rpc client is required")
	}
	if opts.Aggregator == nil {
		return nil, fmt.Errorf("tracker: aggregator is required")
	}
	if opts.Board == nil {
		return nil, fmt.Errorf("tracker: leaderboard store is required")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("tracker: wallet source is required")
	}

	t := &Tracker{
		client:   opts.Client,
		agg:      opts.Aggregator,
		board:    opts.Board,
		archive:  opts.Archive,
		source:   opts.Source,
		format:   opts.Format,
		sigLimit: opts.SignatureLimit,
		pace:     opts.FetchPace,
		workers:  opts.Workers,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		sleep:    sleepCtx,
		now:      time.Now,
	}
	if t.format == "" {
		t.format = normalize.FormatBalanceDiff
	}
	if t.sigLimit <= 0 {
		t.sigLimit = DefaultSignatureLimit
	}
	if t.pace <= 0 {
		t.pace = DefaultFetchPace
	}
	if t.workers <= 0 {
		t.workers = 1
	}
	if t.logger == nil {
		t.logger = log.New(os.Stdout, "[tracker] ", log.LstdFlags)
	}

	return t, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ProcessWallet recomputes one wallet's PnL from its recent transactions
// and upserts the leaderboard entry.
func (t *Tracker) ProcessWallet(ctx context.Context, wallet string) (*domain.LeaderboardEntry, error) {
	events, err := t.fetchEvents(ctx, wallet)
	if err != nil {
		return nil, err
	}

	own := normalize.FilterByWallet(events, wallet)
	if t.metrics != nil {
		t.metrics.TradeEventsParsed.Add(float64(len(own)))
	}

	if t.archive != nil && len(own) > 0 {
		if err := t.archive.InsertBulk(ctx, own); err != nil {
			t.logger.Printf("archive events for %s: %v", wallet, err)
		}
	}

	entry := &domain.LeaderboardEntry{
		Wallet:     wallet,
		PnLUSD:     t.agg.ComputePnL(ctx, own),
		TradeCount: len(own),
		UpdatedAt:  t.now().UnixMilli(),
	}

	if err := t.board.Put(ctx, entry); err != nil {
		return nil, fmt.Errorf("store leaderboard entry for %s: %w", wallet, err)
	}
	return entry, nil
}

// fetchEvents pulls the wallet's recent transactions in the configured
// format and reduces them to trade events.
func (t *Tracker) fetchEvents(ctx context.Context, wallet string) ([]domain.TradeEvent, error) {
	if t.format == normalize.FormatTransferList {
		txs, err := t.client.SearchTransactions(ctx, wallet, t.sigLimit)
		if err != nil {
			return nil, fmt.Errorf("search transactions for %s: %w", wallet, err)
		}
		return normalize.FromEnhanced(txs), nil
	}

	sigs, err := t.client.GetSignaturesForAddress(ctx, wallet, &solana.SignaturesOpts{Limit: t.sigLimit})
	if err != nil {
		return nil, fmt.Errorf("get signatures for %s: %w", wallet, err)
	}

	var txs []*solana.Transaction
	for i, sig := range sigs {
		if sig.Err != nil {
			continue
		}
		// Pace requests after the first.
		if i > 0 {
			if err := t.sleep(ctx, t.pace); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		tx, err := t.client.GetTransaction(ctx, sig.Signature)
		if t.metrics != nil {
			t.metrics.RPCCallLatency.WithLabelValues("getTransaction").Observe(time.Since(start).Seconds())
		}
		if err != nil {
			t.logger.Printf("get transaction %s: %v", sig.Signature, err)
			continue
		}
		if tx != nil {
			txs = append(txs, tx)
		}
	}

	return normalize.FromTransactions(txs), nil
}

// RunOnce processes every wallet from the source. Per-wallet failures are
// logged and do not abort the run.
func (t *Tracker) RunOnce(ctx context.Context) error {
	wallets, err := t.source.Wallets(ctx)
	if err != nil {
		return fmt.Errorf("resolve wallet set: %w", err)
	}
	if len(wallets) == 0 {
		t.logger.Println("no wallets to process")
		return nil
	}

	if t.workers > 1 {
		t.runParallel(ctx, wallets)
		return nil
	}

	for _, wallet := range wallets {
		t.processOne(ctx, wallet)
	}
	return nil
}

// runParallel fans wallets out over a bounded worker pool. Sequential
// processing is the default; each worker paces its own RPC calls.
func (t *Tracker) runParallel(ctx context.Context, wallets []string) {
	jobs := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < t.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for wallet := range jobs {
				t.processOne(ctx, wallet)
			}
		}()
	}

	for _, wallet := range wallets {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		case jobs <- wallet:
		}
	}
	close(jobs)
	wg.Wait()
}

func (t *Tracker) processOne(ctx context.Context, wallet string) {
	entry, err := t.ProcessWallet(ctx, wallet)
	if err != nil {
		t.logger.Printf("process wallet %s: %v", wallet, err)
		if t.metrics != nil {
			t.metrics.WalletErrors.Inc()
		}
		return
	}

	t.logger.Printf("wallet %s: pnl %.4f over %d trades", entry.Wallet, entry.PnLUSD, entry.TradeCount)
	if t.metrics != nil {
		t.metrics.WalletsProcessed.Inc()
	}
}

// RunScheduled runs immediately and then on every interval tick until the
// context is cancelled. A tick that arrives while the previous run is still
// in progress is skipped.
func (t *Tracker) RunScheduled(ctx context.Context, interval time.Duration) error {
	t.logger.Printf("starting tracker scheduler (interval: %v)...", interval)

	t.runGuarded(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.runGuarded(ctx)
		}
	}
}

// TriggerRun executes one guarded run on demand. An on-demand request
// that lands while a cycle is in flight returns ErrRunInProgress.
func (t *Tracker) TriggerRun(ctx context.Context) error {
	return t.runGuarded(ctx)
}

// runGuarded executes one run unless another is already in progress.
func (t *Tracker) runGuarded(ctx context.Context) error {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		t.logger.Println("tracker run already in progress, skipping...")
		if t.metrics != nil {
			t.metrics.TrackerRunsTotal.WithLabelValues("skipped").Inc()
		}
		return ErrRunInProgress
	}
	t.running = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.running = false
		t.lastRun = t.now()
		t.runs++
		t.mu.Unlock()
	}()

	start := time.Now()
	err := t.RunOnce(ctx)

	if t.metrics != nil {
		t.metrics.TrackerDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		t.logger.Printf("tracker run failed: %v", err)
		if t.metrics != nil {
			t.metrics.TrackerRunsTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	t.logger.Printf("tracker run completed in %v", time.Since(start))
	if t.metrics != nil {
		t.metrics.TrackerRunsTotal.WithLabelValues("success").Inc()
		t.metrics.LastSuccessfulRun.SetToCurrentTime()
	}
	return nil
}

// Stats reports scheduler state for health endpoints.
func (t *Tracker) Stats() (lastRun time.Time, runs int, running bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRun, t.runs, t.running
}
