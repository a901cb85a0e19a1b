package tools

// DataProvider reads the files bundled with the server. Production code reads
// from embed.FS; tests swap in MockDataProvider so a dataset can be supplied
// inline.
type DataProvider interface {
	// ReadFile returns the contents of name, relative to the data root
	// (e.g. "data/creatures/pokemon.csv").
	ReadFile(name string) ([]byte, error)
}
