// Package dataset loads the creature table and turns it into the entries and
// bucket ranges the router is built from.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/krakend/dex-mcp-server/internal/router"
)

// All selects every creature regardless of category in Values.
const All = "all"

var (
	// Attributes are the numeric columns indexed by default.
	Attributes = []string{"attack", "defense", "speed", "sp_defense", "sp_attack", "hp"}

	// Degrees are the bucket labels, lowest first.
	Degrees = []string{"low", "medium", "high"}

	// ErrMissingColumn is returned when a required header is absent.
	ErrMissingColumn = errors.New("missing column")
)

// Creature is one row of the dataset.
type Creature struct {
	Name   string             `json:"name"`
	Number int                `json:"pokedex_number"`
	Types  []string           `json:"types"`
	Stats  map[string]float64 `json:"stats"`
}

// HasType reports whether category is one of the creature's types.
func (c Creature) HasType(category string) bool {
	for _, t := range c.Types {
		if t == category {
			return true
		}
	}
	return false
}

// ReadCSV parses the creature table. The header must name the columns name,
// pokedex_number, type1, type2 and every attribute; other columns are ignored.
func ReadCSV(r io.Reader, attributes []string) ([]Creature, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read header: empty input")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	required := append([]string{"name", "pokedex_number", "type1", "type2"}, attributes...)
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	var creatures []Creature
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}

		c := Creature{
			Name:  strings.TrimSpace(record[col["name"]]),
			Stats: make(map[string]float64, len(attributes)),
		}
		if c.Name == "" {
			return nil, fmt.Errorf("row %d: empty name", line)
		}

		number, err := strconv.Atoi(strings.TrimSpace(record[col["pokedex_number"]]))
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid pokedex_number: %w", line, err)
		}
		c.Number = number

		for _, key := range []string{"type1", "type2"} {
			t := strings.ToLower(strings.TrimSpace(record[col[key]]))
			if t != "" && !c.HasType(t) {
				c.Types = append(c.Types, t)
			}
		}
		if len(c.Types) == 0 {
			return nil, fmt.Errorf("row %d: %s has no type", line, c.Name)
		}

		for _, attr := range attributes {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col[attr]]), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid %s: %w", line, attr, err)
			}
			c.Stats[attr] = v
		}

		creatures = append(creatures, c)
	}

	return creatures, nil
}

// Entries flattens creatures into router entries. A creature belongs to every
// category it has as a type, and contributes one entry per attribute there.
func Entries(creatures []Creature, attributes []string) []router.Entry {
	entries := make([]router.Entry, 0, len(creatures)*len(attributes)*2)
	for _, category := range Categories(creatures) {
		for _, attr := range attributes {
			for _, c := range creatures {
				if !c.HasType(category) {
					continue
				}
				entries = append(entries, router.Entry{
					Category:  category,
					Attribute: attr,
					Value:     c.Stats[attr],
					Name:      c.Name,
				})
			}
		}
	}
	return entries
}

// Categories returns the distinct types of creatures, sorted.
func Categories(creatures []Creature) []string {
	seen := make(map[string]struct{})
	for _, c := range creatures {
		for _, t := range c.Types {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Values returns attribute for every creature of category, in dataset order.
// Category All selects every creature.
func Values(creatures []Creature, category, attribute string) []float64 {
	var out []float64
	for _, c := range creatures {
		if category != All && !c.HasType(category) {
			continue
		}
		if v, ok := c.Stats[attribute]; ok {
			out = append(out, v)
		}
	}
	return out
}

// Lookup indexes creatures by name. Later rows win on duplicate names.
func Lookup(creatures []Creature) map[string]Creature {
	out := make(map[string]Creature, len(creatures))
	for _, c := range creatures {
		out[c.Name] = c
	}
	return out
}
