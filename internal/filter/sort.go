package filter

import (
	"slices"
	"strconv"
	"time"

	"github.com/nimasrn/lead-desk/internal/model"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts "asc" and "desc". Anything else is ascending.
func ParseOrder(s string) Order {
	if Order(s) == Desc {
		return Desc
	}
	return Asc
}

var dateFields = map[string]bool{
	model.FieldCreatedAt: true,
	model.FieldBomDate:   true,
	model.FieldBitDate:   true,
	model.FieldPtDate:    true,
	model.FieldWgDate:    true,
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDate parses the timestamp formats the lead service emits.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Sort returns leads ordered by field. The sort is stable. Null values go
// last in both orders, and so do dates that fail to parse. Date fields
// compare as timestamps, id compares numerically, and every other field
// compares as English collated text.
func Sort(leads []model.Lead, field string, order Order) []model.Lead {
	entries := make([]sortEntry, len(leads))
	for i := range leads {
		entries[i] = sortEntry{lead: leads[i], key: keyOf(&leads[i], field)}
	}

	col := collate.New(language.English)
	slices.SortStableFunc(entries, func(a, b sortEntry) int {
		ka, kb := a.key, b.key
		switch {
		case ka.null && kb.null:
			return 0
		case ka.null:
			return 1
		case kb.null:
			return -1
		}
		var c int
		switch {
		case ka.isTime:
			c = ka.t.Compare(kb.t)
		case ka.isNum:
			c = cmpInt(ka.n, kb.n)
		default:
			c = col.CompareString(ka.s, kb.s)
		}
		if order == Desc {
			return -c
		}
		return c
	})

	out := make([]model.Lead, len(entries))
	for i := range entries {
		out[i] = entries[i].lead
	}
	return out
}

type sortEntry struct {
	lead model.Lead
	key  sortKey
}

type sortKey struct {
	null   bool
	isTime bool
	isNum  bool
	t      time.Time
	n      int64
	s      string
}

func keyOf(l *model.Lead, field string) sortKey {
	v, ok := l.Value(field)
	if !ok || v == nil {
		return sortKey{null: true}
	}
	if dateFields[field] {
		s, _ := v.(string)
		t, ok := ParseDate(s)
		if !ok {
			return sortKey{null: true}
		}
		return sortKey{isTime: true, t: t}
	}
	switch x := v.(type) {
	case int64:
		return sortKey{isNum: true, n: x}
	case bool:
		return sortKey{s: strconv.FormatBool(x)}
	case string:
		return sortKey{s: x}
	}
	return sortKey{null: true}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
