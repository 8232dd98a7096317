package sim

import (
	"fmt"
	"math"
	"sort"
)

// Weights are the contributions of the three desirability terms to the
// overall score. They must be positive and sum to 1.
type Weights struct {
	ResistantArea  float64 `yaml:"resistant_area"`
	FinalResistant float64 `yaml:"final_resistant"`
	DrugUsage      float64 `yaml:"drug_usage"`
}

// DefaultWeights favors long-run resistance suppression over drug sparing.
func DefaultWeights() Weights {
	return Weights{ResistantArea: 0.5, FinalResistant: 0.2, DrugUsage: 0.3}
}

// Validate rejects weights that are non-positive or do not sum to 1.
func (w Weights) Validate() error {
	if w.ResistantArea <= 0 || w.FinalResistant <= 0 || w.DrugUsage <= 0 {
		return fmt.Errorf("score weights must be positive, got %+v", w)
	}
	if sum := w.ResistantArea + w.FinalResistant + w.DrugUsage; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("score weights must sum to 1, got %g", sum)
	}
	return nil
}

// Rank normalizes the raw metrics over the whole catalog, computes the
// weighted composite score, and sorts descending by score. The sort is
// stable, so ties keep insertion order; failed records carry score 0 and
// rank behind every scored record, again in insertion order.
//
// Normalization bounds are shared across all scored records per metric.
// Lower raw values are better, so each desirability term is 1 - normalized.
func Rank(records []StrategyRecord, w Weights) []StrategyRecord {
	ranked := make([]StrategyRecord, len(records))
	copy(ranked, records)

	areaLo, areaHi := metricBounds(ranked, func(r StrategyRecord) float64 { return r.ResistantArea })
	finalLo, finalHi := metricBounds(ranked, func(r StrategyRecord) float64 { return r.FinalResistant })
	drugLo, drugHi := metricBounds(ranked, func(r StrategyRecord) float64 { return r.DrugUsageDays })

	for i := range ranked {
		if ranked[i].Failed {
			continue
		}
		ranked[i].NormResistantArea = normalize(ranked[i].ResistantArea, areaLo, areaHi)
		ranked[i].NormFinalResistant = normalize(ranked[i].FinalResistant, finalLo, finalHi)
		ranked[i].NormDrugUsage = normalize(ranked[i].DrugUsageDays, drugLo, drugHi)
		ranked[i].OverallScore = w.ResistantArea*(1-ranked[i].NormResistantArea) +
			w.FinalResistant*(1-ranked[i].NormFinalResistant) +
			w.DrugUsage*(1-ranked[i].NormDrugUsage)
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if ranked[a].Failed != ranked[b].Failed {
			return !ranked[a].Failed
		}
		return ranked[a].OverallScore > ranked[b].OverallScore
	})
	return ranked
}

// metricBounds returns the min and max of one metric over scored records.
func metricBounds(records []StrategyRecord, metric func(StrategyRecord) float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, r := range records {
		if r.Failed {
			continue
		}
		v := metric(r)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// normalize maps v into [0,1] over [lo,hi]. A degenerate range (all records
// identical on the metric) maps to 0 rather than dividing by zero.
func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo)
}
