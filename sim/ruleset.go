package sim

// RuleSet bundles the six rate constants governing the three-compartment
// dynamics while the drug is in one state. All rates are per hour.
type RuleSet struct {
	RS    float64 // net growth rate of the Sensitive compartment
	RP    float64 // net growth rate of the Persister compartment
	RR    float64 // net growth rate of the Resistant compartment
	Alpha float64 // S -> P switching rate (drug-induced persistence)
	Beta  float64 // P -> S reversal rate (drug withdrawal)
	Delta float64 // P -> R conversion rate (irreversible resistance)
}

// Catalog holds the two rulesets of the model. Exactly one is active at any
// instant; Policy.Active decides which. Built once from config, never mutated.
type Catalog struct {
	OnDrug  RuleSet
	OffDrug RuleSet
}

// NewCatalog constructs the immutable on/off ruleset catalog.
func NewCatalog(on, off RuleSet) Catalog {
	return Catalog{OnDrug: on, OffDrug: off}
}

// Resolve returns the ruleset active under policy p at time t (hours) and
// state s. Ties at switching boundaries resolve to off_drug because Active
// uses strict comparisons.
func (c Catalog) Resolve(p Policy, t float64, s CellState) RuleSet {
	if p.Active(t, s) {
		return c.OnDrug
	}
	return c.OffDrug
}
