package tools

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/krakend/dex-mcp-server/internal/catalog"
	"github.com/krakend/dex-mcp-server/internal/config"
	"github.com/krakend/dex-mcp-server/internal/dataset"
	"github.com/krakend/dex-mcp-server/internal/logging"
	"github.com/krakend/dex-mcp-server/internal/party"
	"github.com/krakend/dex-mcp-server/internal/query"
	"github.com/krakend/dex-mcp-server/internal/rangeindex"
	"github.com/krakend/dex-mcp-server/internal/router"
)

var (
	errNotLoaded = errors.New("creature index not loaded")
	errClosed    = errors.New("creature index closed")
)

// Dex owns the published snapshot and the user's party, and implements every
// MCP tool.
type Dex struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  *catalogStore
	holder snapshotHolder
	party  party.Party
	closed atomic.Bool
}

// New returns a Dex for cfg. Nothing is loaded until Load or the first tool
// call.
func New(cfg *config.Config, log zerolog.Logger) *Dex {
	d := &Dex{cfg: cfg, log: logging.Component(log, "dex")}
	d.holder.log = d.log
	if cfg.Catalog.IndexPath != "" {
		d.store = newCatalogStore(cfg.Catalog.IndexPath, cfg.Attributes, cfg.Catalog.BatchSize, d.log)
	}
	return d
}

// Load builds and publishes the first snapshot. It does nothing when one is
// already published.
func (d *Dex) Load() error {
	d.holder.refreshMu.Lock()
	defer d.holder.refreshMu.Unlock()

	if d.closed.Load() {
		return errClosed
	}
	if d.holder.current.Load() != nil {
		return nil
	}
	snap, err := d.build(false)
	if err != nil {
		return err
	}
	d.holder.publish(snap)
	return nil
}

// Rebuild re-reads the dataset, rebuilds router and catalog, and swaps them
// in. Readers already running finish on the previous snapshot.
func (d *Dex) Rebuild() (SnapshotInfo, error) {
	if d.closed.Load() {
		return SnapshotInfo{}, errClosed
	}

	d.holder.refreshMu.Lock()
	defer d.holder.refreshMu.Unlock()

	// Close may have won the race for refreshMu.
	if d.closed.Load() {
		return SnapshotInfo{}, errClosed
	}
	snap, err := d.build(true)
	if err != nil {
		return SnapshotInfo{}, err
	}
	info := snap.Info()
	d.holder.publish(snap)
	return info, nil
}

// Close unpublishes the snapshot and closes its catalog once in-flight tool
// calls return.
func (d *Dex) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	d.holder.refreshMu.Lock()
	d.holder.close()
	d.holder.refreshMu.Unlock()
	d.log.Info().Msg("✓ Creature index closed")
	return nil
}

// snapshot returns the current snapshot, loading it on first use. The caller
// must hand it back with d.holder.release.
func (d *Dex) snapshot() (*Snapshot, error) {
	if d.closed.Load() {
		return nil, errClosed
	}
	if s := d.holder.acquire(); s != nil {
		return s, nil
	}

	d.log.Info().Msg("Creature index not loaded, loading now...")
	if err := d.Load(); err != nil {
		if errors.Is(err, errClosed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load creature index: %w", err)
	}
	if s := d.holder.acquire(); s != nil {
		return s, nil
	}
	if d.closed.Load() {
		return nil, errClosed
	}
	return nil, errNotLoaded
}

func (d *Dex) build(rebuildCatalog bool) (*Snapshot, error) {
	start := time.Now()

	creatures, source, err := d.readDataset()
	if err != nil {
		return nil, err
	}
	if len(creatures) == 0 {
		return nil, fmt.Errorf("dataset %s has no creatures", source)
	}

	ranges, err := dataset.BucketRanges(creatures, d.cfg.Attributes, d.cfg.Buckets.LowPercentile, d.cfg.Buckets.HighPercentile)
	if err != nil {
		return nil, fmt.Errorf("failed to compute buckets: %w", err)
	}

	root := router.Build(
		dataset.Entries(creatures, d.cfg.Attributes),
		ranges,
		router.WithIndexOptions(rangeindex.WithBounds(d.cfg.RangeBounds())),
	)

	cat, err := d.openCatalog(creatures, rebuildCatalog)
	if err != nil {
		return nil, err
	}

	vocab := query.Vocabulary{
		Categories: dataset.Categories(creatures),
		Degrees:    dataset.Degrees,
		Attributes: d.cfg.Attributes,
	}
	snap := newSnapshot(root, creatures, ranges, vocab, cat, source)

	info := snap.Info()
	d.log.Info().
		Str("source", source).
		Int("creatures", info.Creatures).
		Int("categories", info.Categories).
		Int("leaves", info.Leaves).
		Int("max_height", info.MaxHeight).
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Msg("✓ Creature index built")
	return snap, nil
}

// readDataset reads dataset.path when configured and the embedded table
// otherwise.
func (d *Dex) readDataset() ([]dataset.Creature, string, error) {
	var (
		r      io.Reader
		source string
	)
	if path := d.cfg.Dataset.Path; path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, path, fmt.Errorf("failed to open dataset: %w", err)
		}
		defer f.Close()
		r, source = f, path
	} else {
		data, err := defaultDataProvider.ReadFile(embeddedDataset)
		if err != nil {
			return nil, embeddedDataset, fmt.Errorf("failed to read embedded dataset: %w", err)
		}
		r, source = bytes.NewReader(data), "embedded:"+embeddedDataset
	}

	creatures, err := dataset.ReadCSV(r, d.cfg.Attributes)
	if err != nil {
		return nil, source, fmt.Errorf("failed to parse dataset %s: %w", source, err)
	}
	return creatures, source, nil
}

func (d *Dex) openCatalog(creatures []dataset.Creature, rebuild bool) (Index, error) {
	if d.store == nil {
		index, err := catalog.NewMemIndex(creatures, d.cfg.Attributes, d.cfg.Catalog.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to build catalog: %w", err)
		}
		return NewBleveIndex(index), nil
	}
	if rebuild {
		return d.store.Rebuild(creatures)
	}
	return d.store.Open(creatures)
}

// RegisterTools adds every tool to server and returns how many were added.
func (d *Dex) RegisterTools(server *mcp.Server) int {
	n := d.registerQueryTools(server)
	n += d.registerCatalogTools(server)
	n += d.registerPartyTools(server)
	d.log.Info().Int("tools", n).Msg("✓ All tools registered")
	return n
}
