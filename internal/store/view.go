package store

import (
	"slices"

	"github.com/nimasrn/lead-desk/internal/filter"
	"github.com/nimasrn/lead-desk/internal/model"
)

// Sorting never reorders leads. The view is rebuilt from leads and the
// current query every time either changes.

// FilterLeads replaces the active predicate with criteria and returns the
// new view. An active sort is kept.
func (s *Store) FilterLeads(criteria filter.Criteria, negate bool) []model.Lead {
	return s.setCriteria(criteria, negate, false)
}

// ExcludeLeads replaces the active predicate with one that drops the leads
// matching every criterion. An active sort is kept.
func (s *Store) ExcludeLeads(criteria filter.Criteria) []model.Lead {
	return s.setCriteria(criteria, false, true)
}

func (s *Store) setCriteria(criteria filter.Criteria, negate, exclude bool) []model.Lead {
	var out []model.Lead
	s.commit(func() Change {
		c := make(filter.Criteria, len(criteria))
		for k, v := range criteria {
			c[k] = v
		}
		s.query.criteria = c
		s.query.negate = negate
		s.query.exclude = exclude
		s.query.phone = ""
		s.recompute()
		out = slices.Clone(s.filtered)
		return ChangeView
	})
	return out
}

// FilterByPhone replaces the active predicate with a phone substring
// search. An empty substring resets the view to the full list, dropping
// any sort as well.
func (s *Store) FilterByPhone(substr string) {
	if substr == "" {
		s.ResetFilters()
		return
	}
	s.commit(func() Change {
		s.query.criteria = nil
		s.query.negate = false
		s.query.exclude = false
		s.query.phone = substr
		s.recompute()
		return ChangeView
	})
}

// SortLeads orders the view by field. The active predicate is kept.
func (s *Store) SortLeads(field string, order filter.Order) {
	if field == "" {
		field = model.FieldID
	}
	s.commit(func() Change {
		s.query.sorted = true
		s.query.field = field
		s.query.order = order
		s.recompute()
		return ChangeView
	})
}

// ResetFilters clears the predicate and the sort.
func (s *Store) ResetFilters() {
	s.commit(func() Change {
		s.query = viewQuery{}
		s.filtered = nil
		return ChangeView
	})
}

// recompute rebuilds filtered from leads. Callers hold mu.
func (s *Store) recompute() {
	if s.query.empty() {
		s.filtered = nil
		return
	}
	out := s.leads
	switch {
	case s.query.criteria != nil && s.query.exclude:
		out = filter.Exclude(out, s.query.criteria)
	case s.query.criteria != nil:
		out = filter.Apply(out, s.query.criteria, s.query.negate)
	case s.query.phone != "":
		out = filter.ByPhone(out, s.query.phone)
	}
	if s.query.sorted {
		out = filter.Sort(out, s.query.field, s.query.order)
	}
	s.filtered = out
}
