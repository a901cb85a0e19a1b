package dataset

import (
	"fmt"
	"math"
	"sort"

	"github.com/krakend/dex-mcp-server/internal/rangeindex"
	"github.com/krakend/dex-mcp-server/internal/router"
)

// Percentile returns the p-th percentile (0..100) of values using linear
// interpolation between the closest ranks. It returns NaN for no values.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (rank-float64(lo))*(sorted[hi]-sorted[lo])
}

// BucketKey composes the label the router's bucket tables are keyed by.
func BucketKey(degree, attribute string) string {
	return degree + " " + attribute
}

// BucketRanges computes the low/medium/high ranges of every attribute over the
// whole dataset: low is open below the low percentile, high is open above the
// high percentile and medium sits between them. Adjacent buckets share their
// boundary value.
func BucketRanges(creatures []Creature, attributes []string, low, high float64) (router.BucketTable, error) {
	if len(creatures) == 0 {
		return nil, fmt.Errorf("no creatures to compute buckets from")
	}
	if low < 0 || high > 100 || low >= high {
		return nil, fmt.Errorf("invalid percentiles %v/%v", low, high)
	}

	table := make(router.BucketTable, len(attributes)*len(Degrees))
	for _, attr := range attributes {
		values := Values(creatures, All, attr)
		pLow := Percentile(values, low)
		pHigh := Percentile(values, high)

		table[BucketKey("low", attr)] = router.Range{Lower: rangeindex.Open(), Upper: rangeindex.At(pLow)}
		table[BucketKey("medium", attr)] = router.Range{Lower: rangeindex.At(pLow), Upper: rangeindex.At(pHigh)}
		table[BucketKey("high", attr)] = router.Range{Lower: rangeindex.At(pHigh), Upper: rangeindex.Open()}
	}
	return table, nil
}

// Summary describes a value column.
type Summary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Summarize returns count, min, max and mean of values.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{Count: len(values), Min: values[0], Max: values[0]}
	var total float64
	for _, v := range values {
		total += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = total / float64(len(values))
	return s
}

// Bin is one histogram bar covering [Lower, Upper). The last bin also holds
// values equal to its Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram splits the span of values into n equal-width bins.
func Histogram(values []float64, n int) []Bin {
	if len(values) == 0 || n <= 0 {
		return []Bin{}
	}
	s := Summarize(values)
	if s.Min == s.Max {
		return []Bin{{Lower: s.Min, Upper: s.Max, Count: len(values)}}
	}

	width := (s.Max - s.Min) / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lower = s.Min + float64(i)*width
		bins[i].Upper = s.Min + float64(i+1)*width
	}
	bins[n-1].Upper = s.Max

	for _, v := range values {
		i := int((v - s.Min) / width)
		if i >= n {
			i = n - 1
		}
		bins[i].Count++
	}
	return bins
}
