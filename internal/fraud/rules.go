package fraud

import (
	"time"

	"claimdesk/internal/model"

	"github.com/shopspring/decimal"
)

// duplicateRule fires when another claim by the same employee has the same
// amount (within tolerance) and category within the duplicate window of this
// claim's expense date.
func duplicateRule(claim model.Claim, peers []model.Claim, cfg Config) (int, string, bool) {
	for _, peer := range peers {
		if peer.ID == claim.ID || peer.EmployeeID != claim.EmployeeID {
			continue
		}
		if peer.Category != claim.Category {
			continue
		}
		if peer.Amount.Sub(claim.Amount).Abs().GreaterThan(cfg.DuplicateTolerance) {
			continue
		}
		gap := claim.ExpenseDate.Sub(peer.ExpenseDate)
		if gap < 0 {
			gap = -gap
		}
		if gap <= cfg.DuplicateWindow {
			return cfg.DuplicateWeight, FlagDuplicate, true
		}
	}
	return 0, "", false
}

// highAmountRule fires when the claim amount exceeds the peer mean of its
// category by more than the configured multiplier.
func highAmountRule(claim model.Claim, peers []model.Claim, cfg Config) (int, string, bool) {
	sum := decimal.Zero
	count := 0
	for _, peer := range peers {
		if peer.ID == claim.ID || peer.Category != claim.Category {
			continue
		}
		sum = sum.Add(peer.Amount)
		count++
	}
	if count == 0 {
		return 0, "", false
	}
	mean := sum.Div(decimal.NewFromInt(int64(count)))
	if mean.IsZero() {
		return 0, "", false
	}
	if claim.Amount.GreaterThan(mean.Mul(cfg.HighAmountMultiplier)) {
		return cfg.HighAmountWeight, FlagHighAmt, true
	}
	return 0, "", false
}

// weekendRule fires when the submission timestamp falls on a weekend.
func weekendRule(claim model.Claim, _ []model.Claim, cfg Config) (int, string, bool) {
	switch claim.SubmittedAt.Weekday() {
	case time.Saturday, time.Sunday:
		return cfg.WeekendWeight, FlagWeekend, true
	}
	return 0, "", false
}

// taxRule fires when the stored tax amount deviates from amount * tax rate
// by more than the rounding tolerance.
func taxRule(claim model.Claim, _ []model.Claim, cfg Config) (int, string, bool) {
	expected := claim.Amount.Mul(cfg.TaxRate)
	if claim.TaxAmount.Sub(expected).Abs().GreaterThan(cfg.TaxTolerance) {
		return cfg.TaxWeight, FlagTaxRate, true
	}
	return 0, "", false
}
