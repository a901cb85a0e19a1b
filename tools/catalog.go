package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/krakend/dex-mcp-server/internal/catalog"
	"github.com/krakend/dex-mcp-server/internal/dataset"
)

const (
	defaultMaxResults = 10
	maxResultsLimit   = 20
	suggestions       = 3
)

var errUnknownCreature = errors.New("no such creature")

// attributeLabels names attributes in creature info text.
var attributeLabels = map[string]string{
	"attack":     "Attack",
	"defense":    "Defense",
	"speed":      "Speed",
	"hp":         "HP",
	"sp_attack":  "Special Attack",
	"sp_defense": "Special Defense",
}

// SearchCreaturesInput defines input for search_creatures tool
type SearchCreaturesInput struct {
	Query      string `json:"query" jsonschema:"Creature name (typos tolerated) or category, e.g. 'charzard' or 'flying'"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10, max 20)"`
}

// SearchCreaturesOutput defines output for search_creatures tool
type SearchCreaturesOutput struct {
	Query     string        `json:"query"`
	Hits      []catalog.Hit `json:"hits"`
	TotalHits int           `json:"total_hits"`
}

// GetCreatureInput defines input for get_creature tool
type GetCreatureInput struct {
	Name string `json:"name" jsonschema:"Creature name, case-insensitive"`
}

// GetCreatureOutput defines output for get_creature tool
type GetCreatureOutput struct {
	Creature dataset.Creature `json:"creature"`
	Info     string           `json:"info"`
	InParty  bool             `json:"in_party"`
}

// Search runs a full-text search over the catalog.
func (d *Dex) Search(text string, maxResults int) (SearchCreaturesOutput, error) {
	if strings.TrimSpace(text) == "" {
		return SearchCreaturesOutput{}, fmt.Errorf("query must not be empty")
	}
	if maxResults <= 0 || maxResults > maxResultsLimit {
		maxResults = defaultMaxResults
	}

	snap, err := d.snapshot()
	if err != nil {
		return SearchCreaturesOutput{}, err
	}
	defer d.holder.release(snap)

	res, err := snap.Catalog.Search(catalog.NewSearchRequest(text, maxResults))
	if err != nil {
		return SearchCreaturesOutput{}, fmt.Errorf("search failed: %w", err)
	}
	return SearchCreaturesOutput{
		Query:     text,
		Hits:      catalog.HitsFromResult(res),
		TotalHits: int(res.Total),
	}, nil
}

// Creature returns one creature's record and info text. An unknown name
// yields an error suggesting close catalog matches.
func (d *Dex) Creature(name string) (GetCreatureOutput, error) {
	snap, err := d.snapshot()
	if err != nil {
		return GetCreatureOutput{}, err
	}
	defer d.holder.release(snap)

	c, ok := snap.Find(name)
	if !ok {
		return GetCreatureOutput{}, d.unknownCreature(snap, name)
	}
	return GetCreatureOutput{
		Creature: c,
		Info:     InfoText(c, snap.Vocab.Attributes),
		InParty:  slices.Contains(d.party.Members(), c.Name),
	}, nil
}

func (d *Dex) unknownCreature(snap *Snapshot, name string) error {
	res, err := snap.Catalog.Search(catalog.NewSearchRequest(name, suggestions))
	if err != nil || len(res.Hits) == 0 {
		return fmt.Errorf("%w: %q", errUnknownCreature, name)
	}
	var names []string
	for _, h := range catalog.HitsFromResult(res) {
		names = append(names, h.Name)
	}
	return fmt.Errorf("%w: %q (did you mean %s?)", errUnknownCreature, name, strings.Join(names, ", "))
}

// InfoText renders a creature's stats one per line, in attribute order.
func InfoText(c dataset.Creature, attributes []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d, %s)\n", c.Name, c.Number, strings.Join(c.Types, "/"))
	for _, attr := range attributes {
		label, ok := attributeLabels[attr]
		if !ok {
			label = attr
		}
		fmt.Fprintf(&b, "%s: %g\n", label, c.Stats[attr])
	}
	return b.String()
}

// SearchCreatures searches the catalog by name or category
func (d *Dex) SearchCreatures(ctx context.Context, req *mcp.CallToolRequest, input SearchCreaturesInput) (*mcp.CallToolResult, SearchCreaturesOutput, error) {
	out, err := d.Search(input.Query, input.MaxResults)
	if err != nil {
		return nil, SearchCreaturesOutput{}, err
	}
	return nil, out, nil
}

// GetCreature returns the stats of one creature
func (d *Dex) GetCreature(ctx context.Context, req *mcp.CallToolRequest, input GetCreatureInput) (*mcp.CallToolResult, GetCreatureOutput, error) {
	out, err := d.Creature(input.Name)
	if err != nil {
		return nil, GetCreatureOutput{}, err
	}
	return nil, out, nil
}

func (d *Dex) registerCatalogTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_creatures",
			Description: "Full-text search of the creature catalog by name (typos tolerated) or category",
		},
		d.SearchCreatures,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_creature",
			Description: "Show a creature's number, categories and stats",
		},
		d.GetCreature,
	)

	return 2
}
