package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Options configure how summaries are computed.
type Options struct {
	Location *time.Location
	Feed     core.FeedOptions
	Now      func() time.Time
}

// Result pairs a summary with the snapshot it was computed from.
type Result struct {
	Summary  core.Summary
	Snapshot *Snapshot
}

// Service computes summaries for the current snapshot. Results are cached per
// snapshot version, calendar day and feed settings; identical concurrent
// requests share one computation.
type Service struct {
	store  *Store
	cache  cache.Cache[core.Summary]
	group  singleflight.Group
	opts   Options
	logger *log.Logger
}

func NewService(store *Store, c cache.Cache[core.Summary], opts Options, logger *log.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Feed.Order == "" {
		opts.Feed.Order = core.FeedNewestFirst
	}
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &Service{
		store:  store,
		cache:  c,
		opts:   opts,
		logger: logger.WithComponent(log.ComponentDashboard),
	}
}

func (s *Service) Store() *Store { return s.store }

// FeedOptions returns the configured recent-feed settings.
func (s *Service) FeedOptions() core.FeedOptions { return s.opts.Feed }

// Apply stores a freshly fetched list and drops summaries of older versions.
func (s *Service) Apply(generation uint64, txs []core.Transaction) *Snapshot {
	snap := s.store.Replace(generation, txs, s.opts.Now())
	if s.cache != nil {
		s.cache.Purge()
	}
	return snap
}

// RecordFailure keeps the current snapshot and remembers err.
func (s *Service) RecordFailure(err error, at time.Time) {
	s.store.RecordFailure(err, at)
}

// Summary uses the configured feed settings.
func (s *Service) Summary(ctx context.Context) (Result, error) {
	return s.SummaryWith(ctx, s.opts.Feed)
}

// SummaryWith computes the summary of the current snapshot with a custom feed.
func (s *Service) SummaryWith(ctx context.Context, feed core.FeedOptions) (Result, error) {
	snap := s.store.Current()
	if snap == nil {
		return Result{}, ErrNoSnapshot
	}
	if feed.Order == "" {
		feed.Order = s.opts.Feed.Order
	}

	now := s.opts.Now().In(s.opts.Location)
	key := fmt.Sprintf("v%d|%s|%d|%s", snap.Version, now.Format(time.DateOnly), feed.Limit, feed.Order)

	if s.cache != nil {
		if sum, ok := s.cache.Get(key); ok {
			return Result{Summary: sum, Snapshot: snap}, nil
		}
	}

	v, _, _ := s.group.Do(key, func() (any, error) {
		sum := core.Summarize(snap.Transactions, now, feed)
		if s.cache != nil {
			s.cache.Set(key, sum)
		}
		if ex := sum.Excluded; ex != (core.Exclusions{}) {
			s.logger.DebugContext(ctx, "Records excluded from summary",
				log.FieldGeneration, snap.Generation,
				"bad_amount", ex.BadAmount,
				"unknown_type", ex.UnknownType,
				"bad_date", ex.BadDate)
		}
		return sum, nil
	})
	return Result{Summary: v.(core.Summary), Snapshot: snap}, nil
}
