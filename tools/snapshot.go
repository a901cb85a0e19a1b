package tools

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/krakend/dex-mcp-server/internal/dataset"
	"github.com/krakend/dex-mcp-server/internal/query"
	"github.com/krakend/dex-mcp-server/internal/router"
)

// Snapshot is one immutable build of everything the tools read: the router,
// the creature table and the catalog. Rebuilding produces a new Snapshot; the
// old one stays usable until its last reader lets go.
type Snapshot struct {
	Root      *router.Node
	Creatures []dataset.Creature
	Lookup    map[string]dataset.Creature
	Ranges    router.BucketTable
	Vocab     query.Vocabulary
	Catalog   Index
	Source    string
	BuiltAt   time.Time

	folded map[string]string

	// refs counts the holder's reference plus one per in-flight reader.
	refs    atomic.Int64
	drained chan struct{}
}

func newSnapshot(root *router.Node, creatures []dataset.Creature, ranges router.BucketTable, vocab query.Vocabulary, cat Index, source string) *Snapshot {
	s := &Snapshot{
		Root:      root,
		Creatures: creatures,
		Lookup:    dataset.Lookup(creatures),
		Ranges:    ranges,
		Vocab:     vocab,
		Catalog:   cat,
		Source:    source,
		BuiltAt:   time.Now(),
		folded:    make(map[string]string, len(creatures)),
		drained:   make(chan struct{}),
	}
	for _, c := range creatures {
		key := strings.ToLower(c.Name)
		if _, ok := s.folded[key]; !ok {
			s.folded[key] = c.Name
		}
	}
	s.refs.Store(1)
	return s
}

// Find looks a creature up by name, ignoring case.
func (s *Snapshot) Find(name string) (dataset.Creature, bool) {
	if c, ok := s.Lookup[name]; ok {
		return c, true
	}
	canonical, ok := s.folded[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return dataset.Creature{}, false
	}
	return s.Lookup[canonical], true
}

// SnapshotInfo summarises a snapshot for tool output and logs.
type SnapshotInfo struct {
	Source      string `json:"source"`
	Creatures   int    `json:"creatures"`
	Categories  int    `json:"categories"`
	Leaves      int    `json:"leaves"`
	Entries     int    `json:"entries"`
	MaxHeight   int    `json:"max_height"`
	CatalogDocs uint64 `json:"catalog_docs"`
	BuiltAt     string `json:"built_at"`
}

// Info reports sizes of the router and catalog.
func (s *Snapshot) Info() SnapshotInfo {
	stats := router.Summarize(s.Root)
	info := SnapshotInfo{
		Source:     s.Source,
		Creatures:  len(s.Creatures),
		Categories: stats.Categories,
		Leaves:     stats.Leaves,
		Entries:    stats.Entries,
		MaxHeight:  stats.MaxHeight,
		BuiltAt:    s.BuiltAt.Format(time.RFC3339),
	}
	if s.Catalog != nil {
		info.CatalogDocs, _ = s.Catalog.DocCount()
	}
	return info
}

func (s *Snapshot) retain() bool {
	for {
		n := s.refs.Load()
		if n == 0 {
			return false
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// snapshotHolder publishes the current Snapshot. Reads are lock-free; only
// rebuilds take refreshMu.
type snapshotHolder struct {
	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
	log       zerolog.Logger
}

// acquire returns the current snapshot with a reader reference held, or nil
// when none is published. Callers must release it.
func (h *snapshotHolder) acquire() *Snapshot {
	for {
		s := h.current.Load()
		if s == nil {
			return nil
		}
		if s.retain() {
			return s
		}
	}
}

func (h *snapshotHolder) release(s *Snapshot) {
	if s.refs.Add(-1) == 0 {
		h.retire(s)
	}
}

// retire closes the catalog of a snapshot nobody can reach any more.
func (h *snapshotHolder) retire(s *Snapshot) {
	if s.Catalog != nil {
		if err := s.Catalog.Close(); err != nil {
			h.log.Warn().Err(err).Msg("Error closing old catalog")
		} else {
			h.log.Debug().Str("source", s.Source).Msg("✓ Old catalog closed")
		}
	}
	close(s.drained)
}

// publish makes next current. The previous snapshot is retired as soon as
// its in-flight readers finish.
func (h *snapshotHolder) publish(next *Snapshot) {
	if old := h.current.Swap(next); old != nil {
		h.release(old)
	}
}

// close unpublishes the current snapshot and waits for its readers.
func (h *snapshotHolder) close() {
	old := h.current.Swap(nil)
	if old == nil {
		return
	}
	h.release(old)
	<-old.drained
}
