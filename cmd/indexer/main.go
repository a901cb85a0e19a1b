package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blevesearch/bleve/v2"

	"github.com/krakend/dex-mcp-server/internal/catalog"
	"github.com/krakend/dex-mcp-server/internal/config"
	"github.com/krakend/dex-mcp-server/internal/dataset"
	"github.com/krakend/dex-mcp-server/internal/logging"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <creatures.csv> <index-dir>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s tools/data/creatures/pokemon.csv catalog/index\n", os.Args[0])
		os.Exit(1)
	}

	datasetFile := os.Args[1]
	indexDir := os.Args[2]

	cfg, err := config.Load(os.Getenv("DEX_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "indexer: %v\n", err)
		os.Exit(1)
	}
	log := logging.Stderr(cfg.Log.Level, "dex-indexer")

	log.Info().Msgf("Creature Catalog Indexer v%d", catalog.SchemaVersion)
	start := time.Now()

	f, err := os.Open(datasetFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open dataset")
	}
	creatures, err := dataset.ReadCSV(f, cfg.Attributes)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Str("file", datasetFile).Msg("Failed to parse dataset")
	}
	log.Info().Msgf("✓ Parsed %d creatures in %d categories", len(creatures), len(dataset.Categories(creatures)))

	if err := os.RemoveAll(indexDir); err != nil {
		log.Fatal().Err(err).Msg("Failed to remove old index")
	}
	if err := os.MkdirAll(filepath.Dir(indexDir), 0755); err != nil {
		log.Fatal().Err(err).Msg("Failed to create index directory")
	}

	log.Info().Str("path", indexDir).Msg("Creating catalog index")
	index, err := bleve.New(indexDir, catalog.NewMapping(cfg.Attributes))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create index")
	}

	err = catalog.IndexCreatures(index, creatures, cfg.Catalog.BatchSize, func(done, total int) {
		log.Info().Msgf("  Indexed %d/%d creatures...", done, total)
	})
	if err != nil {
		index.Close()
		log.Fatal().Err(err).Msg("Failed to index creatures")
	}
	if err := index.Close(); err != nil {
		log.Fatal().Err(err).Msg("Failed to close index")
	}

	if err := catalog.WriteVersion(indexDir); err != nil {
		log.Warn().Err(err).Msg("Failed to write version file")
	} else {
		log.Info().Msgf("✓ Catalog schema version: v%d", catalog.SchemaVersion)
	}

	log.Info().
		Str("location", indexDir).
		Int("creatures", len(creatures)).
		Int("batch_size", cfg.Catalog.BatchSize).
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Msg("✓ Indexing complete")
}
