package tools

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/krakend/dex-mcp-server/internal/dataset"
	"github.com/krakend/dex-mcp-server/internal/query"
	"github.com/krakend/dex-mcp-server/internal/router"
)

const (
	defaultBins = 10
	maxBins     = 50
)

var errUnknownColumn = errors.New("unknown category or attribute")

// QueryCreaturesInput defines input for query_creatures tool
type QueryCreaturesInput struct {
	Query string `json:"query" jsonschema:"Query of the form '<find|plot> <category> <low|medium|high> <attribute>', e.g. 'find fire high attack'"`
}

// BucketInfo describes one bucket's value range. Open ends report the
// configured domain limit and set the matching Open flag.
type BucketInfo struct {
	Bucket    string  `json:"bucket"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	LowerOpen bool    `json:"lower_open"`
	UpperOpen bool    `json:"upper_open"`
}

// QueryCreaturesOutput defines output for query_creatures tool
type QueryCreaturesOutput struct {
	Query        query.Query             `json:"query"`
	Names        []string                `json:"names"`
	Count        int                     `json:"count"`
	Range        BucketInfo              `json:"range"`
	Distribution *StatDistributionOutput `json:"distribution,omitempty"`
}

// ListCategoriesInput defines input for list_categories tool
type ListCategoriesInput struct{}

// ListCategoriesOutput defines output for list_categories tool
type ListCategoriesOutput struct {
	Categories []string     `json:"categories"`
	Degrees    []string     `json:"degrees"`
	Attributes []string     `json:"attributes"`
	Buckets    []BucketInfo `json:"buckets"`
	Index      SnapshotInfo `json:"index"`
}

// StatDistributionInput defines input for stat_distribution tool
type StatDistributionInput struct {
	Category  string `json:"category" jsonschema:"Creature category, or 'all' for every creature"`
	Attribute string `json:"attribute" jsonschema:"Attribute column, e.g. 'speed'"`
	Bins      int    `json:"bins,omitempty" jsonschema:"Number of histogram bins (optional, defaults to 10, max 50)"`
}

// StatDistributionOutput defines output for stat_distribution tool
type StatDistributionOutput struct {
	Category  string          `json:"category"`
	Attribute string          `json:"attribute"`
	Values    []float64       `json:"values"`
	Summary   dataset.Summary `json:"summary"`
	Histogram []dataset.Bin   `json:"histogram"`
}

// RebuildIndexInput defines input for rebuild_index tool
type RebuildIndexInput struct{}

// RebuildIndexOutput defines output for rebuild_index tool
type RebuildIndexOutput struct {
	Updated bool         `json:"updated"`
	Index   SnapshotInfo `json:"index"`
	Message string       `json:"message"`
}

// Find parses and evaluates a text query. Plot queries also carry the value
// distribution of the attribute within the category.
func (d *Dex) Find(text string) (QueryCreaturesOutput, error) {
	snap, err := d.snapshot()
	if err != nil {
		return QueryCreaturesOutput{}, err
	}
	defer d.holder.release(snap)

	q, err := query.Parse(text, snap.Vocab)
	if err != nil {
		return QueryCreaturesOutput{}, err
	}

	names, err := snap.Root.Evaluate(q.Tokens())
	if err != nil {
		return QueryCreaturesOutput{}, fmt.Errorf("failed to evaluate %q: %w", q.String(), err)
	}

	out := QueryCreaturesOutput{
		Query: q,
		Names: names,
		Count: len(names),
		Range: d.bucketInfo(snap, dataset.BucketKey(q.Degree, q.Attribute)),
	}
	if q.Action == query.Plot {
		dist, err := distribution(snap, q.Category, q.Attribute, defaultBins)
		if err != nil {
			return QueryCreaturesOutput{}, err
		}
		out.Distribution = &dist
	}
	return out, nil
}

// Catalogue lists the query vocabulary and every bucket range.
func (d *Dex) Catalogue() (ListCategoriesOutput, error) {
	snap, err := d.snapshot()
	if err != nil {
		return ListCategoriesOutput{}, err
	}
	defer d.holder.release(snap)

	out := ListCategoriesOutput{
		Categories: snap.Vocab.Categories,
		Degrees:    snap.Vocab.Degrees,
		Attributes: snap.Vocab.Attributes,
		Buckets:    make([]BucketInfo, 0, len(snap.Ranges)),
		Index:      snap.Info(),
	}
	for _, attr := range snap.Vocab.Attributes {
		for _, degree := range snap.Vocab.Degrees {
			out.Buckets = append(out.Buckets, d.bucketInfo(snap, dataset.BucketKey(degree, attr)))
		}
	}
	return out, nil
}

// Distribution returns the values of attribute for creatures of category.
func (d *Dex) Distribution(category, attribute string, bins int) (StatDistributionOutput, error) {
	snap, err := d.snapshot()
	if err != nil {
		return StatDistributionOutput{}, err
	}
	defer d.holder.release(snap)
	return distribution(snap, category, attribute, bins)
}

func distribution(snap *Snapshot, category, attribute string, bins int) (StatDistributionOutput, error) {
	if category != dataset.All && !slices.Contains(snap.Vocab.Categories, category) {
		return StatDistributionOutput{}, fmt.Errorf("%w: category %q", errUnknownColumn, category)
	}
	if !slices.Contains(snap.Vocab.Attributes, attribute) {
		return StatDistributionOutput{}, fmt.Errorf("%w: attribute %q", errUnknownColumn, attribute)
	}
	if bins <= 0 {
		bins = defaultBins
	}
	if bins > maxBins {
		bins = maxBins
	}

	values := dataset.Values(snap.Creatures, category, attribute)
	if values == nil {
		values = []float64{}
	}
	return StatDistributionOutput{
		Category:  category,
		Attribute: attribute,
		Values:    values,
		Summary:   dataset.Summarize(values),
		Histogram: dataset.Histogram(values, bins),
	}, nil
}

func (d *Dex) bucketInfo(snap *Snapshot, key string) BucketInfo {
	r := snap.Ranges[key]
	bounds := d.cfg.RangeBounds()
	return BucketInfo{
		Bucket:    key,
		Lower:     r.Lower.Or(bounds.Min),
		Upper:     r.Upper.Or(bounds.Max),
		LowerOpen: !r.Lower.Set,
		UpperOpen: !r.Upper.Set,
	}
}

// QueryCreatures runs a find or plot query through the category router
func (d *Dex) QueryCreatures(ctx context.Context, req *mcp.CallToolRequest, input QueryCreaturesInput) (*mcp.CallToolResult, QueryCreaturesOutput, error) {
	out, err := d.Find(input.Query)
	if err != nil {
		var rerr *router.RoutingError
		if errors.As(err, &rerr) {
			d.log.Warn().Err(err).Strs("path", rerr.Path).Msg("Query failed to route")
		}
		return nil, QueryCreaturesOutput{}, err
	}
	d.log.Debug().Str("query", out.Query.String()).Int("matches", out.Count).Msg("Query evaluated")
	return nil, out, nil
}

// ListCategories lists categories, degrees, attributes and bucket ranges
func (d *Dex) ListCategories(ctx context.Context, req *mcp.CallToolRequest, input ListCategoriesInput) (*mcp.CallToolResult, ListCategoriesOutput, error) {
	out, err := d.Catalogue()
	if err != nil {
		return nil, ListCategoriesOutput{}, err
	}
	return nil, out, nil
}

// StatDistribution returns an attribute's value distribution within a category
func (d *Dex) StatDistribution(ctx context.Context, req *mcp.CallToolRequest, input StatDistributionInput) (*mcp.CallToolResult, StatDistributionOutput, error) {
	out, err := d.Distribution(input.Category, input.Attribute, input.Bins)
	if err != nil {
		return nil, StatDistributionOutput{}, err
	}
	return nil, out, nil
}

// RebuildIndex reloads the dataset and swaps in a new snapshot
func (d *Dex) RebuildIndex(ctx context.Context, req *mcp.CallToolRequest, input RebuildIndexInput) (*mcp.CallToolResult, RebuildIndexOutput, error) {
	info, err := d.Rebuild()
	if err != nil {
		return nil, RebuildIndexOutput{}, fmt.Errorf("rebuild failed: %w", err)
	}
	return nil, RebuildIndexOutput{
		Updated: true,
		Index:   info,
		Message: fmt.Sprintf("Index rebuilt from %s: %d creatures in %d categories", info.Source, info.Creatures, info.Categories),
	}, nil
}

func (d *Dex) registerQueryTools(server *mcp.Server) int {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "query_creatures",
			Description: "Find creatures of a category whose attribute falls in a low, medium or high bucket, e.g. 'find fire high attack'. 'plot' queries also return the attribute's distribution.",
		},
		d.QueryCreatures,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_categories",
			Description: "List the categories, degrees and attributes accepted by query_creatures, with the value range of every bucket",
		},
		d.ListCategories,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "stat_distribution",
			Description: "Values, summary and histogram of one attribute across a category (or 'all')",
		},
		d.StatDistribution,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "rebuild_index",
			Description: "Reload the creature dataset and rebuild the category router and catalog without interrupting running queries",
		},
		d.RebuildIndex,
	)

	return 4
}
