// Package memory implements the repository manager and transactor entirely in
// process memory. It backs the "memory" storage driver and service tests.
//
// Transactions are serialized by a single mutex and roll back by restoring a
// snapshot taken when they began, which gives the same per-user atomicity the
// PostgreSQL row lock provides.
//
// Isolation is read-uncommitted: a read made outside a transaction sees the
// writes of an in-flight transaction even if it later rolls back.
package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/dbx"
	"github.com/dmitrijs2005/taskkeeper/internal/server/models"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskkeeper/internal/server/repositories/users"
)

type tokenRow struct {
	userID string
	seq    int64
	token  models.RefreshToken
}

type taskRow struct {
	seq  int64
	task models.Task
}

type state struct {
	seq    int64
	users  map[string]models.User
	tokens map[string]tokenRow
	tasks  map[string]taskRow
}

func newState() state {
	return state{
		users:  make(map[string]models.User),
		tokens: make(map[string]tokenRow),
		tasks:  make(map[string]taskRow),
	}
}

func (s state) clone() state {
	c := state{
		seq:    s.seq,
		users:  make(map[string]models.User, len(s.users)),
		tokens: make(map[string]tokenRow, len(s.tokens)),
		tasks:  make(map[string]taskRow, len(s.tasks)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.tasks {
		c.tasks[k] = v
	}
	return c
}

// Store holds all data. The zero value is not usable; use NewStore.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data state
	now  func() time.Time
}

type Option func(*Store)

// WithClock sets the time source used for storage-assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{data: newState(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// WithTx runs fn exclusively. If fn fails or panics every write it made is
// discarded. The DBTX passed to fn is nil; memory repositories ignore it.
func (s *Store) WithTx(ctx context.Context, fn dbx.TxFunc) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		}
		if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(ctx, nil)
}

func (s *Store) restore(snapshot state) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

func (s *Store) nextSeq() int64 {
	s.data.seq++
	return s.data.seq
}

func (s *Store) RunMigrations(context.Context, *sql.DB) error { return nil }

func (s *Store) Users(dbx.DBTX) users.Repository { return &usersRepo{s: s} }

func (s *Store) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return &refreshTokensRepo{s: s} }

func (s *Store) Tasks(dbx.DBTX) tasks.Repository { return &tasksRepo{s: s} }
