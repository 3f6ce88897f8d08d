// Package dashboard holds the current transaction list and serves summaries
// computed from it.
package dashboard

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/core"
)

// ErrNoSnapshot is returned before the first successful refresh.
var ErrNoSnapshot = errors.New("no transactions loaded yet")

// Snapshot is one fetched transaction list. It is never modified after it is
// stored.
type Snapshot struct {
	// Version increases with every Replace and keys cached summaries.
	Version      uint64
	// Generation is the refresh attempt that produced the list.
	Generation   uint64
	Transactions []core.Transaction
	FetchedAt    time.Time
}

// Status is what readiness checks and the UI need to know about the store.
type Status struct {
	Ready       bool      `json:"ready"`
	Generation  uint64    `json:"generation"`
	Count       int       `json:"transactionCount"`
	FetchedAt   time.Time `json:"fetchedAt"`
	LastError   string    `json:"lastError,omitempty"`
	LastErrorAt time.Time `json:"lastErrorAt"`
}

// Store holds the latest snapshot. Replace swaps the whole list; there is no
// merging. Readers never block.
type Store struct {
	current atomic.Pointer[Snapshot]
	version atomic.Uint64

	mu        sync.Mutex
	lastErr   error
	lastErrAt time.Time
}

func NewStore() *Store {
	return &Store{}
}

// Replace stores txs as the current snapshot and clears the last error.
func (s *Store) Replace(generation uint64, txs []core.Transaction, fetchedAt time.Time) *Snapshot {
	snap := &Snapshot{
		Version:      s.version.Add(1),
		Generation:   generation,
		Transactions: slices.Clone(txs),
		FetchedAt:    fetchedAt,
	}
	if snap.Transactions == nil {
		snap.Transactions = []core.Transaction{}
	}
	s.current.Store(snap)

	s.mu.Lock()
	s.lastErr = nil
	s.lastErrAt = time.Time{}
	s.mu.Unlock()
	return snap
}

// Current returns the latest snapshot or nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// RecordFailure keeps the current snapshot and remembers err.
func (s *Store) RecordFailure(err error, at time.Time) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
	s.lastErrAt = at
}

// LastError returns the error of the most recent failed refresh, cleared by
// the next successful one.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Store) Status() Status {
	var st Status
	if snap := s.Current(); snap != nil {
		st.Ready = true
		st.Generation = snap.Generation
		st.Count = len(snap.Transactions)
		st.FetchedAt = snap.FetchedAt
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
		st.LastErrorAt = s.lastErrAt
	}
	return st
}
