// Package filter evaluates lead criteria, phone search and sort keys.
// Every function returns a new slice and leaves its input untouched.
package filter

import (
	"math"
	"strings"

	"github.com/nimasrn/lead-desk/internal/model"
)

// Criteria is a conjunction of field equalities keyed by wire field name.
// A nil value stands for null.
type Criteria map[string]any

// Matches reports whether lead satisfies every criterion. With negate set
// every criterion is flipped to an inequality; the flag is never applied
// per field. A field the lead does not have never equals anything.
func Matches(lead *model.Lead, criteria Criteria, negate bool) bool {
	for field, want := range criteria {
		got, ok := lead.Value(field)
		eq := ok && got == normalize(want)
		if eq == negate {
			return false
		}
	}
	return true
}

// Apply keeps the leads that match criteria.
func Apply(leads []model.Lead, criteria Criteria, negate bool) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for i := range leads {
		if Matches(&leads[i], criteria, negate) {
			out = append(out, leads[i])
		}
	}
	return out
}

// Exclude drops the leads that match every criterion and keeps the rest.
// A lead survives when at least one field differs.
func Exclude(leads []model.Lead, criteria Criteria) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for i := range leads {
		if !Matches(&leads[i], criteria, false) {
			out = append(out, leads[i])
		}
	}
	return out
}

// ByPhone keeps the leads whose phone contains substr. The match is case
// sensitive. An empty substr keeps every lead.
func ByPhone(leads []model.Lead, substr string) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if substr == "" || strings.Contains(l.LeadPhone, substr) {
			out = append(out, l)
		}
	}
	return out
}

// OptedOut reports whether the lead asked not to be contacted.
func OptedOut(l *model.Lead) bool {
	return l.OptedOut
}

// NeedsFollowUp reports whether a lead that has not opted out still has a
// BOM follow-up to send or confirm, or a dated BIT stage without a follow-up.
func NeedsFollowUp(l *model.Lead) bool {
	if l.OptedOut {
		return false
	}
	return !l.FuBomSent ||
		(l.FuBomSent && !l.FuBomConfirmed && !l.Fu2BomSent) ||
		(!l.FuBitSent && l.BitDate != nil)
}

// Where keeps the leads for which keep returns true.
func Where(leads []model.Lead, keep func(*model.Lead) bool) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for i := range leads {
		if keep(&leads[i]) {
			out = append(out, leads[i])
		}
	}
	return out
}

// normalize maps a criteria value onto the dynamic types Lead.Value returns,
// so that int 5 and int64 5 compare equal. Anything else maps to noMatch,
// which no lead value equals. Comparing interfaces holding slices or maps
// would panic, so they never reach the == in Matches.
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return noMatch{}
		}
		return int64(x)
	case float32:
		return floatToInt(float64(x))
	case float64:
		return floatToInt(x)
	case int64, string, bool:
		return x
	}
	return noMatch{}
}

// floatToInt covers criteria decoded from JSON, where every number is float64.
func floatToInt(f float64) any {
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return noMatch{}
	}
	return int64(f)
}

type noMatch struct{}
