/*
policy.go - Penalty computation

PURPOSE:
  Pure functions deciding how late a payment is, what penalty it earns
  and which status it should carry. Nothing here touches storage.

TWO DEFAULT FORMULAS:
  FormulaDaily (canonical):  max(rent * rate + dailyRate * days, floor)
  FormulaFlat  (legacy):     max(rent * rate, floor)

  The on-demand paths (manual penalty, bulk, emails) use FormulaDaily.
  The recurring reminder job runs FormulaFlat unless configured otherwise,
  so historical ledgers keep the amounts they were billed with.

RULED PENALTIES:
  An explicit PenaltyRule replaces the default formula. No floor is applied
  when a rule is given; floors are the caller's business.

    Percentage{rate}  -> rent * rate
    Fixed{amount}     -> amount
    Daily{rate}       -> rate * days
*/
package payments

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// DAYS OVERDUE
// =============================================================================

// DaysOverdue returns ceil((asOf - due) in days). Zero or negative means
// the payment is not yet due.
func DaysOverdue(due, asOf time.Time) int {
	return int(math.Ceil(asOf.Sub(due).Hours() / 24))
}

// =============================================================================
// PENALTY POLICY
// =============================================================================

type Formula string

const (
	FormulaDaily Formula = "daily"
	FormulaFlat  Formula = "flat"
)

// ParseFormula accepts "daily" or "flat" (case-insensitive). Empty means daily.
func ParseFormula(s string) (Formula, error) {
	switch Formula(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormulaDaily:
		return FormulaDaily, nil
	case FormulaFlat:
		return FormulaFlat, nil
	}
	return "", Invalid("formula", "unknown penalty formula %q", s)
}

// PenaltyPolicy holds the tunable numbers behind the default formulas.
type PenaltyPolicy struct {
	Rate             decimal.Decimal // share of rent, 0.05
	DailyRate        decimal.Decimal // per day overdue, 100
	Floor            decimal.Decimal // minimum penalty, 500
	OverdueAfterDays int             // status flips to OVERDUE after this many days
}

// DefaultPolicy returns the policy the product ships with.
func DefaultPolicy() PenaltyPolicy {
	return PenaltyPolicy{
		Rate:             decimal.RequireFromString("0.05"),
		DailyRate:        decimal.NewFromInt(100),
		Floor:            decimal.NewFromInt(500),
		OverdueAfterDays: 7,
	}
}

func (p PenaltyPolicy) Validate() error {
	if p.Rate.IsNegative() {
		return Invalid("rate", "must not be negative")
	}
	if p.DailyRate.IsNegative() {
		return Invalid("dailyRate", "must not be negative")
	}
	if p.Floor.IsNegative() {
		return Invalid("floor", "must not be negative")
	}
	if p.OverdueAfterDays < 0 {
		return Invalid("overdueAfterDays", "must not be negative")
	}
	return nil
}

// DefaultPenalty computes the penalty for rent that is days late.
func (p PenaltyPolicy) DefaultPenalty(rent decimal.Decimal, days int, f Formula) decimal.Decimal {
	amount := rent.Mul(p.Rate)
	if f != FormulaFlat && days > 0 {
		amount = amount.Add(p.DailyRate.Mul(decimal.NewFromInt(int64(days))))
	}
	return decimal.Max(amount, p.Floor)
}

// ResultingStatus: PAID never moves; more than OverdueAfterDays late
// becomes OVERDUE; anything else keeps its current status.
func (p PenaltyPolicy) ResultingStatus(current Status, days int) Status {
	if current == StatusPaid {
		return current
	}
	if days > p.OverdueAfterDays {
		return StatusOverdue
	}
	return current
}

// =============================================================================
// PENALTY RULES
// =============================================================================

// PenaltyRule is one of PercentageRule, FixedRule or DailyRule.
type PenaltyRule interface {
	penaltyRule()
	fmt.Stringer
}

type PercentageRule struct{ Rate decimal.Decimal }

type FixedRule struct{ Amount decimal.Decimal }

type DailyRule struct{ Rate decimal.Decimal }

func (PercentageRule) penaltyRule() {}
func (FixedRule) penaltyRule()      {}
func (DailyRule) penaltyRule()      {}

func (r PercentageRule) String() string { return "percentage(" + r.Rate.String() + ")" }
func (r FixedRule) String() string      { return "fixed(" + r.Amount.String() + ")" }
func (r DailyRule) String() string      { return "daily(" + r.Rate.String() + "/day)" }

// RuledPenalty evaluates an explicit rule. No floor is applied.
func RuledPenalty(rent decimal.Decimal, days int, rule PenaltyRule) (decimal.Decimal, error) {
	switch r := rule.(type) {
	case PercentageRule:
		return rent.Mul(r.Rate), nil
	case FixedRule:
		return r.Amount, nil
	case DailyRule:
		if days < 0 {
			days = 0
		}
		return r.Rate.Mul(decimal.NewFromInt(int64(days))), nil
	case nil:
		return decimal.Zero, Invalid("rule", "missing penalty rule")
	default:
		return decimal.Zero, Invalid("rule", "unsupported penalty rule %T", rule)
	}
}

// RuleSpec is the loose form a rule arrives in from callers. Missing
// values fall back to the product defaults.
type RuleSpec struct {
	Type       string
	Percentage *decimal.Decimal
	Amount     *decimal.Decimal
	DailyRate  *decimal.Decimal
}

var (
	defaultRulePercentage = decimal.RequireFromString("0.05")
	defaultRuleAmount     = decimal.NewFromInt(500)
	defaultRuleDailyRate  = decimal.NewFromInt(100)
)

// Rule validates s and returns the matching PenaltyRule.
func (s RuleSpec) Rule() (PenaltyRule, error) {
	pick := func(field string, v *decimal.Decimal, def decimal.Decimal) (decimal.Decimal, error) {
		if v == nil {
			return def, nil
		}
		if v.IsNegative() {
			return decimal.Zero, Invalid(field, "must not be negative")
		}
		return *v, nil
	}

	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case "percentage":
		rate, err := pick("percentage", s.Percentage, defaultRulePercentage)
		if err != nil {
			return nil, err
		}
		return PercentageRule{Rate: rate}, nil
	case "fixed":
		amount, err := pick("amount", s.Amount, defaultRuleAmount)
		if err != nil {
			return nil, err
		}
		return FixedRule{Amount: amount}, nil
	case "daily":
		rate, err := pick("dailyRate", s.DailyRate, defaultRuleDailyRate)
		if err != nil {
			return nil, err
		}
		return DailyRule{Rate: rate}, nil
	case "":
		return nil, Invalid("rule.type", "is required")
	}
	return nil, Invalid("rule.type", "unknown rule type %q", s.Type)
}
