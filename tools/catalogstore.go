package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/rs/zerolog"

	"github.com/krakend/dex-mcp-server/internal/catalog"
	"github.com/krakend/dex-mcp-server/internal/dataset"
)

// catalogStore keeps the creature catalog in a bleve index on disk, next to a
// schema version file and a PID lock shared with other server processes. An
// index written by cmd/indexer is picked up as long as its version matches.
type catalogStore struct {
	path       string
	attributes []string
	batchSize  int
	lock       *pidLock
	log        zerolog.Logger
}

func newCatalogStore(path string, attributes []string, batchSize int, log zerolog.Logger) *catalogStore {
	return &catalogStore{
		path:       path,
		attributes: attributes,
		batchSize:  batchSize,
		lock:       newPIDLock(filepath.Join(filepath.Dir(path), ".catalog.lock"), log),
		log:        log,
	}
}

// Open reuses the index on disk when it has the current schema version and
// holds one document per creature, and rebuilds it otherwise.
func (s *catalogStore) Open(creatures []dataset.Creature) (Index, error) {
	if err := s.lock.Acquire(); err != nil {
		return nil, fmt.Errorf("failed to acquire catalog lock: %w", err)
	}
	defer s.lock.Release()

	if _, err := os.Stat(s.path); err == nil {
		if v := catalog.ReadVersion(s.path); v != catalog.SchemaVersion {
			s.log.Info().Int("have", v).Int("want", catalog.SchemaVersion).Msg("Catalog schema version mismatch, rebuilding")
		} else if index, err := bleve.Open(s.path); err != nil {
			s.log.Warn().Err(err).Msg("Catalog on disk is unreadable, rebuilding")
		} else if n, err := index.DocCount(); err != nil || n != uint64(len(creatures)) {
			s.log.Info().Uint64("docs", n).Int("creatures", len(creatures)).Msg("Catalog out of date, rebuilding")
			index.Close()
		} else {
			s.log.Info().Str("path", s.path).Uint64("docs", n).Msgf("✓ Catalog opened (v%d)", catalog.SchemaVersion)
			return NewBleveIndex(index), nil
		}
	}

	return s.build(creatures)
}

// Rebuild always writes a fresh index.
func (s *catalogStore) Rebuild(creatures []dataset.Creature) (Index, error) {
	if err := s.lock.Acquire(); err != nil {
		return nil, fmt.Errorf("failed to acquire catalog lock: %w", err)
	}
	defer s.lock.Release()
	return s.build(creatures)
}

// build indexes into a temporary directory and renames it over the live path,
// so a failed build leaves the previous catalog untouched.
func (s *catalogStore) build(creatures []dataset.Creature) (Index, error) {
	start := time.Now()
	tmp := s.path + ".tmp"

	os.RemoveAll(tmp)
	if err := os.MkdirAll(filepath.Dir(tmp), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	index, err := bleve.New(tmp, catalog.NewMapping(s.attributes))
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}
	err = catalog.IndexCreatures(index, creatures, s.batchSize, func(done, total int) {
		s.log.Debug().Msgf("Indexed %d/%d creatures...", done, total)
	})
	if err != nil {
		index.Close()
		os.RemoveAll(tmp)
		return nil, err
	}
	if err := index.Close(); err != nil {
		os.RemoveAll(tmp)
		return nil, fmt.Errorf("failed to close new catalog: %w", err)
	}

	if err := os.RemoveAll(s.path); err != nil {
		os.RemoveAll(tmp)
		return nil, fmt.Errorf("failed to remove old catalog: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.RemoveAll(tmp)
		return nil, fmt.Errorf("failed to move catalog into place: %w", err)
	}
	if err := catalog.WriteVersion(s.path); err != nil {
		s.log.Warn().Err(err).Msg("Failed to write catalog version")
	}

	index, err = bleve.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open new catalog: %w", err)
	}
	s.log.Info().Str("path", s.path).Int("docs", len(creatures)).
		Dur("took", time.Since(start).Round(time.Millisecond)).Msg("✓ Catalog built")
	return NewBleveIndex(index), nil
}
