package tools

import (
	"embed"
)

// embeddedDataset is the creature table compiled into the binary. It is used
// whenever dataset.path is not configured, so the server works with no files
// on disk.
const embeddedDataset = "data/creatures/pokemon.csv"

//go:embed data/creatures/pokemon.csv
var embeddedFS embed.FS

// embeddedDataProvider serves files from embeddedFS.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider returns the production DataProvider.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

// defaultDataProvider is read when a Dex loads its dataset.
var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
