package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"kesef/internal/log"
)

// Store owns the current State. Dispatch is serialised, so each message
// is applied to the state left by the previous one.
type Store struct {
	mu      sync.Mutex
	state   State
	initial State

	newID  func() string
	now    func() time.Time
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the uuid generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// NewStore starts from initial; Reset returns to the same view and theme.
func NewStore(initial State, opts ...Option) *Store {
	s := &Store{
		state:   initial,
		initial: initial,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  log.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentStore)
	return s
}

// Snapshot returns the current state. The ledger inside is immutable, so
// the caller may keep it across later dispatches.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch stamps msg where needed, applies it and returns the new state.
func (s *Store) Dispatch(ctx context.Context, msg Msg) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case SubmitForm:
		if m.ID == "" {
			m.ID = s.newID()
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = s.now()
		}
		msg = m
	case Reset:
		if m.View == "" {
			m.View = s.initial.View
		}
		if m.Theme == "" {
			m.Theme = s.initial.Theme
		}
		msg = m
	}

	prev := s.state
	s.state = Update(prev, msg)
	s.logTransition(ctx, prev, s.state, msg)
	return s.state
}

func (s *Store) logTransition(ctx context.Context, prev, next State, msg Msg) {
	switch m := msg.(type) {
	case SubmitForm:
		if next.Ledger.Len() == prev.Ledger.Len() {
			s.logger.DebugContext(ctx, "Incomplete form ignored",
				log.FieldOperation, log.OpIgnore,
				"has_description", m.Form.Description != "",
				"has_amount", m.Form.Amount != "")
			return
		}
		tx, _ := next.Ledger.Find(m.ID)
		fields := log.NewFields().
			WithOperation(log.OpAppend).
			WithTransaction(tx.ID, tx.Description, tx.Amount.String(), string(tx.Category))
		fields[log.FieldLedgerSize] = next.Ledger.Len()
		if !tx.Amount.Valid() {
			s.logger.WarnContext(ctx, "Transaction recorded with unreadable amount", fields.ToSlice()...)
			return
		}
		s.logger.InfoContext(ctx, "Transaction recorded", fields.ToSlice()...)
	case DeleteTransaction:
		removed := prev.Ledger.Len() - next.Ledger.Len()
		s.logger.InfoContext(ctx, "Transaction delete",
			log.FieldOperation, log.OpDelete,
			log.FieldTxID, m.ID,
			"removed", removed,
			log.FieldLedgerSize, next.Ledger.Len())
	case SetView:
		s.logger.DebugContext(ctx, "View changed", log.FieldOperation, log.OpSetView, log.FieldView, string(next.View))
	case ToggleTheme:
		s.logger.DebugContext(ctx, "Theme toggled", log.FieldOperation, log.OpTheme, log.FieldTheme, string(next.Theme))
	case Reset:
		s.logger.InfoContext(ctx, "State reset", log.FieldOperation, log.OpReset, "discarded", prev.Ledger.Len())
	}
}

