package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	convCfg "github.com/sofmon/posgate/lib/cfg"
	convCtx "github.com/sofmon/posgate/lib/ctx"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"

	defaultSessionDB = "sessions.db"
)

// Entry is what a store keeps per session: the last observed token and the
// record resolved from it.
type Entry struct {
	Token     string    `json:"token"`
	Record    Record    `json:"record"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists session entries. Save replaces the whole entry in one
// operation, so readers never observe a partially updated record.
type Store interface {
	Load(ctx convCtx.Context, id convCtx.SessionID) (entry Entry, found bool, err error)
	Save(ctx convCtx.Context, id convCtx.SessionID, entry Entry) (err error)
	Delete(ctx convCtx.Context, id convCtx.SessionID) (err error)
}

func NewID() convCtx.SessionID {
	return convCtx.SessionID(uuid.NewString())
}

// NewStore creates the store named by the 'session_store' config key
// ("memory" by default, or "sqlite" backed by the 'session_db' file).
func NewStore(ctx convCtx.Context) (s Store, err error) {
	ctx = ctx.WithScope("session.NewStore")
	defer ctx.Exit(&err)

	kind := convCfg.StringOrDefault(convCfg.ConfigKeySessionStore, StoreMemory)

	switch kind {
	case StoreMemory:
		s = NewMemoryStore()
	case StoreSQLite:
		s, err = NewSQLiteStore(ctx, convCfg.StringOrDefault(convCfg.ConfigKeySessionDB, defaultSessionDB))
	default:
		err = fmt.Errorf("unknown session store: %s", kind)
	}

	return
}

type MemoryStore struct {
	mut     sync.RWMutex
	entries map[convCtx.SessionID]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[convCtx.SessionID]Entry)}
}

func (s *MemoryStore) Load(ctx convCtx.Context, id convCtx.SessionID) (entry Entry, found bool, err error) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	entry, found = s.entries[id]
	return
}

func (s *MemoryStore) Save(ctx convCtx.Context, id convCtx.SessionID, entry Entry) (err error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.entries[id] = entry
	return
}

func (s *MemoryStore) Delete(ctx convCtx.Context, id convCtx.SessionID) (err error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	delete(s.entries, id)
	return
}
