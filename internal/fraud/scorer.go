package fraud

import (
	"sort"
	"time"

	"claimdesk/internal/model"

	"github.com/shopspring/decimal"
)

// Flag labels produced by the built-in rules.
const (
	FlagDuplicate = "Duplicate detection"
	FlagHighAmt   = "High amount"
	FlagWeekend   = "Weekend submission"
	FlagTaxRate   = "Inconsistent tax rate"
)

// Config holds the product-policy thresholds. These are deliberately
// configuration, not constants, so stakeholders can tune them.
type Config struct {
	DuplicateWindow      time.Duration   // window around the expense date for duplicate matching
	DuplicateTolerance   decimal.Decimal // amount tolerance for a duplicate match
	DuplicateWeight      int
	HighAmountMultiplier decimal.Decimal // claim amount vs category peer mean
	HighAmountWeight     int
	WeekendWeight        int
	TaxRate              decimal.Decimal // expected tax rate on the claim amount
	TaxTolerance         decimal.Decimal // rounding tolerance before flagging
	TaxWeight            int
	HighRiskThreshold    int // score at or above which a claim is flagged
}

// DefaultConfig returns the shipped policy values.
func DefaultConfig() Config {
	return Config{
		DuplicateWindow:      48 * time.Hour,
		DuplicateTolerance:   decimal.NewFromFloat(0.01),
		DuplicateWeight:      40,
		HighAmountMultiplier: decimal.NewFromInt(2),
		HighAmountWeight:     25,
		WeekendWeight:        10,
		TaxRate:              decimal.NewFromFloat(0.15),
		TaxTolerance:         decimal.NewFromFloat(0.01),
		TaxWeight:            15,
		HighRiskThreshold:    70,
	}
}

// Rule is one pure scoring heuristic. It reports the weight to add and the
// flag to raise, or ok=false when the rule does not apply. Rules must be
// independent of each other so the fold is order-insensitive.
type Rule func(claim model.Claim, peers []model.Claim, cfg Config) (weight int, flag string, ok bool)

// Result is the outcome of scoring one claim against its peers.
type Result struct {
	Score   int
	Flags   []string
	Flagged bool
}

// Scorer folds a rule table over a claim. Adding a heuristic is appending a
// Rule; nothing in the fold assumes a fixed rule count.
type Scorer struct {
	cfg   Config
	rules []Rule
}

// NewScorer builds a scorer with the built-in rules plus any extra
// caller-supplied rules (geo/time anomaly inputs and the like).
func NewScorer(cfg Config, extra ...Rule) *Scorer {
	rules := []Rule{duplicateRule, highAmountRule, weekendRule, taxRule}
	rules = append(rules, extra...)
	return &Scorer{cfg: cfg, rules: rules}
}

// Score evaluates every rule, sums the weights, clamps to [0,100] and
// derives the flagged bit. Flags come back sorted so permuting the rule
// table never changes the result.
func (s *Scorer) Score(claim model.Claim, peers []model.Claim) Result {
	score := 0
	flags := make([]string, 0, len(s.rules))
	for _, rule := range s.rules {
		weight, flag, ok := rule(claim, peers, s.cfg)
		if !ok {
			continue
		}
		score += weight
		if flag != "" {
			flags = append(flags, flag)
		}
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	sort.Strings(flags)
	return Result{
		Score:   score,
		Flags:   flags,
		Flagged: score >= s.cfg.HighRiskThreshold || len(flags) > 0,
	}
}

// Config exposes the policy values the scorer was built with, so other
// components (tax derivation in the store) share one source of truth.
func (s *Scorer) Config() Config { return s.cfg }
