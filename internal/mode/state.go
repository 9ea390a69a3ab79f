// Package mode tracks whether the service is answering from the live
// registry database or from static offline data.
package mode

import (
	"sync/atomic"
	"time"

	"github.com/JakeFAU/empresasbrasil/internal/storage/postgres"
)

// Mode is the current data source of the process.
type Mode int32

const (
	// Offline serves static reference data and the sample dataset.
	Offline Mode = iota
	// Railway serves queries from the registry database.
	Railway
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	if m == Railway {
		return "RAILWAY"
	}
	return "OFFLINE"
}

type conn struct {
	db    postgres.DB
	close func()
}

// State owns the live database handle. A nil handle means Offline, so the
// reported mode and the handle can never disagree.
type State struct {
	current  atomic.Pointer[conn]
	since    atomic.Int64
	observer func(Mode)
}

// NewState returns a State in Offline mode. observer, when non-nil, is
// called after every transition.
func NewState(observer func(Mode)) *State {
	s := &State{observer: observer}
	s.since.Store(time.Now().UnixNano())
	return s
}

// Mode reports the current mode.
func (s *State) Mode() Mode {
	if s.current.Load() != nil {
		return Railway
	}
	return Offline
}

// DB returns the live handle when in Railway mode.
func (s *State) DB() (postgres.DB, bool) {
	c := s.current.Load()
	if c == nil {
		return nil, false
	}
	return c.db, true
}

// Since reports when the last transition happened.
func (s *State) Since() time.Time {
	return time.Unix(0, s.since.Load())
}

// Promote switches to Railway using db. closer releases db on the next
// transition and may be nil. Any previously held handle is closed.
func (s *State) Promote(db postgres.DB, closer func()) {
	prev := s.current.Swap(&conn{db: db, close: closer})
	release(prev)
	s.transitioned(Railway)
}

// Demote closes the live handle, if any, and falls back to Offline.
func (s *State) Demote() {
	prev := s.current.Swap(nil)
	release(prev)
	s.transitioned(Offline)
}

func (s *State) transitioned(m Mode) {
	s.since.Store(time.Now().UnixNano())
	if s.observer != nil {
		s.observer(m)
	}
}

func release(c *conn) {
	if c != nil && c.close != nil {
		c.close()
	}
}
