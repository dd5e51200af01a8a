package renewal

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Method names how an estimate was derived from its reference signal.
type Method string

const (
	MethodDirectPermit    Method = "direct_permit"
	MethodTransferCycle   Method = "transfer_cycle"
	MethodAssessmentCycle Method = "assessment_cycle"
	MethodUpdateCycle     Method = "update_cycle"
	MethodGenericCycle    Method = "generic_cycle"
)

// Cycle constants encode Summit County's regulatory calendar. The biennial
// reassessment is anchored to May 1 of odd years (Colorado property tax
// cycle); all other cycles are annual anniversaries.
const (
	transferCycleYears   = 1
	assessmentCycleYears = 2
	updateCycleYears     = 1
	genericCycleYears    = 1

	assessmentAnchorMonth = time.May
	assessmentAnchorDay   = 1
)

// Estimate is a best-guess future renewal date. Reference is the signal
// date the estimate was projected from.
type Estimate struct {
	Date      time.Time `json:"date"`
	Method    Method    `json:"method"`
	Reference time.Time `json:"reference"`
}

// Category buckets an estimate by urgency relative to a reference date.
type Category string

const (
	CategoryOverdue Category = "overdue"
	CategoryDue30   Category = "due_30"
	CategoryDue60   Category = "due_60"
	CategoryDue90   Category = "due_90"
	CategoryFuture  Category = "future"
	CategoryMissing Category = "missing"
)

// Resolution pairs an estimate with its urgency category and UTC month key.
type Resolution struct {
	Estimate *Estimate `json:"estimate,omitempty"`
	Category Category  `json:"category"`
	MonthKey string    `json:"month_key,omitempty"` // YYYY-MM, empty when missing
}

// clock supplies the default reference time; tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used when no reference date is supplied.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// EstimateRenewal derives a renewal estimate from a record's signals using
// strict type precedence: permit signals are used directly, then transfer,
// assessment, update, and finally any signal at all, each projected forward
// on its cycle. Returns nil only when the record holds no signals.
// A zero reference date means "now".
func EstimateRenewal(record map[string]any, reference time.Time) *Estimate {
	reference = orNow(reference)
	signals := CollectSignals(record)
	if len(signals) == 0 {
		return nil
	}

	if permits := filterSignals(signals, SignalPermit); len(permits) > 0 {
		chosen := pickPermit(permits, reference)
		return &Estimate{Date: chosen.Date, Method: MethodDirectPermit, Reference: chosen.Date}
	}

	if transfers := filterSignals(signals, SignalTransfer); len(transfers) > 0 {
		latest := transfers[len(transfers)-1]
		return &Estimate{
			Date:      projectAnnual(latest.Date, transferCycleYears, reference),
			Method:    MethodTransferCycle,
			Reference: latest.Date,
		}
	}

	if assessments := filterSignals(signals, SignalAssessment); len(assessments) > 0 {
		latest := assessments[len(assessments)-1]
		return &Estimate{
			Date:      projectAssessment(latest.Date, reference),
			Method:    MethodAssessmentCycle,
			Reference: latest.Date,
		}
	}

	if updates := filterSignals(signals, SignalUpdate); len(updates) > 0 {
		latest := updates[len(updates)-1]
		return &Estimate{
			Date:      projectAnnual(latest.Date, updateCycleYears, reference),
			Method:    MethodUpdateCycle,
			Reference: latest.Date,
		}
	}

	latest := signals[len(signals)-1]
	return &Estimate{
		Date:      projectAnnual(latest.Date, genericCycleYears, reference),
		Method:    MethodGenericCycle,
		Reference: latest.Date,
	}
}

// pickPermit prefers the earliest permit dated on or after the reference
// date; with only past permits, the latest one stands.
func pickPermit(permits []Signal, reference time.Time) Signal {
	for _, signal := range permits {
		if !signal.Date.Before(reference) {
			return signal
		}
	}
	return permits[len(permits)-1]
}

// projectAnnual steps a signal date forward in whole-year increments until
// strictly after the reference date.
func projectAnnual(date time.Time, stepYears int, reference time.Time) time.Time {
	candidate := date
	for !candidate.After(reference) {
		candidate = candidate.AddDate(stepYears, 0, 0)
	}
	return candidate
}

// projectAssessment rounds the signal year up to the next odd year, anchors
// to May 1 UTC, then steps in two-year increments until strictly after the
// reference date.
func projectAssessment(date time.Time, reference time.Time) time.Time {
	year := date.UTC().Year()
	if year%2 == 0 {
		year++
	}
	candidate := time.Date(year, assessmentAnchorMonth, assessmentAnchorDay, 0, 0, 0, 0, time.UTC)
	for !candidate.After(reference) {
		year += assessmentCycleYears
		candidate = time.Date(year, assessmentAnchorMonth, assessmentAnchorDay, 0, 0, 0, 0, time.UTC)
	}
	return candidate
}

// ResolveCategory buckets an estimate relative to the reference date using
// UTC-midnight day comparisons: overdue before today, then due_30/60/90
// inclusive bounds, else future. A nil or invalid estimate is missing.
// A zero reference date means "now".
func ResolveCategory(estimate *Estimate, reference time.Time) Resolution {
	if estimate == nil || estimate.Date.IsZero() {
		return Resolution{Estimate: estimate, Category: CategoryMissing}
	}
	reference = orNow(reference)

	today := utcMidnight(reference)
	due := utcMidnight(estimate.Date)
	res := Resolution{
		Estimate: estimate,
		MonthKey: estimate.Date.UTC().Format("2006-01"),
	}

	switch days := int(due.Sub(today).Hours() / 24); {
	case due.Before(today):
		res.Category = CategoryOverdue
	case days <= 30:
		res.Category = CategoryDue30
	case days <= 60:
		res.Category = CategoryDue60
	case days <= 90:
		res.Category = CategoryDue90
	default:
		res.Category = CategoryFuture
	}
	return res
}

// Categorise composes EstimateRenewal and ResolveCategory.
func Categorise(record map[string]any, reference time.Time) Resolution {
	reference = orNow(reference)
	return ResolveCategory(EstimateRenewal(record, reference), reference)
}

// CategoriseDate resolves a category for an already-known renewal date,
// used when re-bucketing stored estimates against a fresh "today".
func CategoriseDate(date time.Time, method Method, reference time.Time) Resolution {
	if date.IsZero() {
		return Resolution{Category: CategoryMissing}
	}
	return ResolveCategory(&Estimate{Date: date, Method: method, Reference: date}, reference)
}

func filterSignals(signals []Signal, typ SignalType) []Signal {
	var out []Signal
	for _, signal := range signals {
		if signal.Type == typ {
			out = append(out, signal)
		}
	}
	return out
}

func orNow(reference time.Time) time.Time {
	if reference.IsZero() {
		return clock.Now()
	}
	return reference
}

func utcMidnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
