// Package memory provides an in-memory store implementation, used by tests
// and by callers that do not need persistence.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/treasury"
	"github.com/xraph/treasury/bank"
	"github.com/xraph/treasury/id"
	"github.com/xraph/treasury/transaction"
	"github.com/xraph/treasury/types"
)

type Store struct {
	mu sync.RWMutex

	// Transaction log, append order preserved
	transactions []*transaction.Transaction
	byID         map[string]*transaction.Transaction

	// Singleton bank aggregate, nil until the first adjustment
	bank *bank.Bank

	currency string
	closed   bool
}

// New creates an in-memory store. The currency seeds the lazily created
// bank aggregate.
func New(currency string) *Store {
	return &Store{
		transactions: make([]*transaction.Transaction, 0),
		byID:         make(map[string]*transaction.Transaction),
		currency:     currency,
	}
}

// ──────────────────────────────────────────────────
// Transaction log
// ──────────────────────────────────────────────────

func (s *Store) AppendTransaction(_ context.Context, t *transaction.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}

	cp := *t
	s.transactions = append(s.transactions, &cp)
	s.byID[t.ID.String()] = &cp
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txnID id.TransactionID) (*transaction.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.byID[txnID.String()]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, treasury.ErrTransactionNotFound
}

func (s *Store) ListTransactions(_ context.Context, opts transaction.ListOpts) (*transaction.Page, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*transaction.Transaction, 0)
	for _, t := range s.transactions {
		if matches(t, opts) {
			matched = append(matched, t)
		}
	}

	// Newest first, matching the SQL drivers' ORDER BY created_at DESC.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))

	start := opts.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(matched) {
		end = len(matched)
	}

	items := make([]*transaction.Transaction, 0, end-start)
	for _, t := range matched[start:end] {
		cp := *t
		items = append(items, &cp)
	}

	return &transaction.Page{
		Items:  items,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, nil
}

func matches(t *transaction.Transaction, opts transaction.ListOpts) bool {
	if opts.Period != "" && t.Period != opts.Period {
		return false
	}
	if opts.Direction != "" && t.Direction != opts.Direction {
		return false
	}
	if opts.Origin != "" && t.Origin != opts.Origin {
		return false
	}
	if opts.State != "" && t.State != opts.State {
		return false
	}
	if opts.OwnerRef != "" && t.OwnerRef != opts.OwnerRef {
		return false
	}
	if opts.Reference != "" && t.Reference != opts.Reference {
		return false
	}
	if !opts.CreatedFrom.IsZero() && t.CreatedAt.Before(opts.CreatedFrom) {
		return false
	}
	if !opts.CreatedTo.IsZero() && t.CreatedAt.After(opts.CreatedTo) {
		return false
	}
	return true
}

func (s *Store) SummarizePeriod(_ context.Context, period types.Period) (*transaction.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := transaction.NewSummary(period, s.currency)
	for _, t := range s.transactions {
		if t.Period == period {
			summary.Accumulate(t)
		}
	}
	return summary, nil
}

func (s *Store) MarkConsolidated(_ context.Context, period types.Period, actor string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var transitioned int64
	for _, t := range s.transactions {
		if t.Period == period && t.State == transaction.StateInFlight {
			t.State = transaction.StateConsolidated
			consolidatedAt := at
			t.ConsolidatedAt = &consolidatedAt
			t.ConsolidatedBy = actor
			t.Touch()
			transitioned++
		}
	}
	return transitioned, nil
}

func (s *Store) MarkReverted(_ context.Context, txnID, compensating id.TransactionID, reason, actor string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.byID[txnID.String()]
	if !ok {
		return treasury.ErrTransactionNotFound
	}
	switch t.State {
	case transaction.StateConsolidated:
		return treasury.ErrAlreadyConsolidated
	case transaction.StateReverted:
		return treasury.ErrAlreadyReverted
	}

	t.State = transaction.StateReverted
	revertedAt := at
	t.RevertedAt = &revertedAt
	t.RevertReason = reason
	t.RevertedBy = compensating
	t.Actor = actor
	t.Touch()
	return nil
}

// ──────────────────────────────────────────────────
// Bank aggregate
// ──────────────────────────────────────────────────

func (s *Store) GetBank(_ context.Context) (*bank.Bank, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.bank == nil {
		return nil, treasury.ErrBankNotFound
	}
	cp := *s.bank
	return &cp, nil
}

// ensureBank lazily creates the aggregate. Callers must hold the write lock.
func (s *Store) ensureBank() *bank.Bank {
	if s.bank == nil {
		b := bank.ZeroBank(s.currency)
		b.Entity = types.NewEntity()
		s.bank = b
	}
	return s.bank
}

func (s *Store) AdjustInFlight(_ context.Context, delta types.Money, period types.Period) (*bank.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.ensureBank()
	b.InFlight = b.InFlight.Add(delta)
	b.CurrentPeriod = period
	b.MovementCount++
	b.Touch()

	cp := *b
	return &cp, nil
}

func (s *Store) AdjustSimulated(_ context.Context, delta types.Money) (*bank.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.ensureBank()
	b.Simulated = b.Simulated.Add(delta)
	b.Touch()

	cp := *b
	return &cp, nil
}

func (s *Store) ResetSimulated(_ context.Context) (*bank.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.ensureBank()
	cp := *b

	b.Simulated = types.Zero(s.currency)
	b.Touch()

	return &cp, nil
}

func (s *Store) ConsolidateBank(_ context.Context, period types.Period, at time.Time) (*bank.Bank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.ensureBank()
	b.Consolidated = b.Consolidated.Add(b.InFlight)
	b.InFlight = types.Zero(s.currency)
	consolidatedAt := at
	b.LastConsolidatedAt = &consolidatedAt
	b.CurrentPeriod = period.Next()
	b.PeriodsConsolidated++
	b.Touch()

	cp := *b
	return &cp, nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return treasury.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
