// Package store holds the client-side lead cache: the authoritative lead
// list, the current selection, request status and the derived view that
// filtering, phone search and sorting produce.
package store

import (
	"context"
	"slices"
	"sync"

	"github.com/nimasrn/lead-desk/internal/api"
	"github.com/nimasrn/lead-desk/internal/filter"
	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/nimasrn/lead-desk/pkg/logger"
)

const (
	msgFetchFailed  = "Failed to fetch leads"
	msgCreateFailed = "Failed to create lead"
	msgUpdateFailed = "Failed to update lead"
	msgDeleteFailed = "Failed to delete lead"
	msgSwitchFailed = "Failed to switch attention"
)

// LeadService is the remote side of the store.
type LeadService interface {
	GetLeads(ctx context.Context) ([]model.Lead, error)
	CreateLead(ctx context.Context, in model.LeadInput) (model.Lead, error)
	UpdateLead(ctx context.Context, id int64, updates model.LeadUpdate) (model.Lead, error)
	DeleteLead(ctx context.Context, id int64) (api.Ack, error)
	SwitchAttention(ctx context.Context, identifier string) (api.Ack, error)
}

// viewQuery describes how the derived view is computed from leads. At most
// one predicate is active; the sort is independent of it.
type viewQuery struct {
	criteria filter.Criteria
	negate   bool
	exclude  bool
	phone    string
	sorted   bool
	field    string
	order    filter.Order
}

func (v viewQuery) empty() bool {
	return v.criteria == nil && v.phone == "" && !v.sorted
}

// Store is safe for concurrent use. No lock is held while a request is in
// flight, so overlapping operations commit in completion order and the last
// one wins.
type Store struct {
	svc LeadService
	log logger.Logger

	mu       sync.RWMutex
	leads    []model.Lead
	filtered []model.Lead
	query    viewQuery
	selected *model.Lead
	loading  bool
	err      string

	subs listeners
}

func New(svc LeadService) *Store {
	return &Store{
		svc:   svc,
		log:   logger.With("component", "lead_store"),
		leads: []model.Lead{},
	}
}

// Subscribe registers fn for change notifications. The returned func
// unsubscribes and may be called more than once.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	return s.subs.add(fn)
}

// commit runs fn under the write lock and then notifies listeners.
func (s *Store) commit(fn func() Change) {
	s.mu.Lock()
	c := fn()
	s.mu.Unlock()
	s.subs.publish(c)
}

// begin marks the start of a network operation.
func (s *Store) begin(setLoading bool) {
	s.commit(func() Change {
		if setLoading {
			s.loading = true
		}
		s.err = ""
		return ChangeStatus
	})
}

func errMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}

// Leads returns a copy of the authoritative list in fetch order.
func (s *Store) Leads() []model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.leads)
}

// Filtered returns a copy of the derived view. With no filter or sort
// active it is the full list in fetch order.
func (s *Store) Filtered() []model.Lead {
	return s.View()
}

// Filtering reports whether the view is narrowed or reordered.
func (s *Store) Filtering() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filtered != nil
}

// View returns the derived view, falling back to the full list.
func (s *Store) View() []model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.filtered == nil {
		return slices.Clone(s.leads)
	}
	return slices.Clone(s.filtered)
}

// SelectedLead returns a copy of the selection, or nil.
func (s *Store) SelectedLead() *model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == nil {
		return nil
	}
	l := *s.selected
	return &l
}

func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Error returns the last operation error, or "".
func (s *Store) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

func (s *Store) SetError(msg string) {
	s.commit(func() Change {
		s.err = msg
		return ChangeStatus
	})
}

// GetLeadByID looks id up in the authoritative list.
func (s *Store) GetLeadByID(id int64) (model.Lead, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i != -1 {
		return s.leads[i], true
	}
	return model.Lead{}, false
}

// indexOf returns the position of id in leads, or -1. Callers hold mu.
func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.leads, func(l model.Lead) bool { return l.ID == id })
}

// FetchLeads replaces the cache with the server list and resets the view.
// On failure the previous leads stay in place.
func (s *Store) FetchLeads(ctx context.Context) error {
	s.begin(true)

	leads, err := s.svc.GetLeads(ctx)

	s.commit(func() Change {
		s.loading = false
		if err != nil {
			s.err = errMessage(err, msgFetchFailed)
			return ChangeStatus
		}
		if leads == nil {
			leads = []model.Lead{}
		}
		for i := range leads {
			leads[i].NormalizePhone()
		}
		s.leads = leads
		s.query = viewQuery{}
		s.filtered = nil
		c := ChangeLeads | ChangeView | ChangeStatus
		if s.selected != nil {
			if i := s.indexOf(s.selected.ID); i != -1 {
				fresh := s.leads[i]
				s.selected = &fresh
				c |= ChangeSelection
			}
		}
		return c
	})

	if err != nil {
		s.log.Warn("fetch leads failed", "error", err)
		return err
	}
	s.log.Debug("leads fetched", "count", len(leads))
	return nil
}

// SelectLead selects the lead with id, or deselects when id is nil or not
// in the cache.
func (s *Store) SelectLead(id *int64) {
	s.commit(func() Change {
		s.selected = nil
		if id != nil {
			if i := s.indexOf(*id); i != -1 {
				l := s.leads[i]
				s.selected = &l
			}
		}
		return ChangeSelection
	})
}

func (s *Store) SelectLeadByID(id int64) {
	s.SelectLead(&id)
}

func (s *Store) ClearSelectedLead() {
	s.SelectLead(nil)
}

// CreateLead appends the server-confirmed lead and selects it. Nothing is
// inserted before the server answers.
func (s *Store) CreateLead(ctx context.Context, in model.LeadInput) (model.Lead, error) {
	s.begin(true)

	created, err := s.svc.CreateLead(ctx, in)

	s.commit(func() Change {
		s.loading = false
		if err != nil {
			s.err = errMessage(err, msgCreateFailed)
			return ChangeStatus
		}
		created.NormalizePhone()
		s.leads = append(s.leads, created)
		l := created
		s.selected = &l
		s.recompute()
		return ChangeLeads | ChangeView | ChangeSelection | ChangeStatus
	})

	if err != nil {
		s.log.Warn("create lead failed", "error", err)
		return model.Lead{}, err
	}
	s.log.Debug("lead created", "id", created.ID)
	return created, nil
}

// UpdateLead replaces the cached lead with the server's copy, including the
// selection when it is the same lead.
func (s *Store) UpdateLead(ctx context.Context, id int64, updates model.LeadUpdate) (model.Lead, error) {
	s.begin(true)

	updated, err := s.svc.UpdateLead(ctx, id, updates)

	s.commit(func() Change {
		s.loading = false
		if err != nil {
			s.err = errMessage(err, msgUpdateFailed)
			return ChangeStatus
		}
		updated.NormalizePhone()
		c := ChangeStatus
		if i := s.indexOf(id); i != -1 {
			s.leads[i] = updated
			s.recompute()
			c |= ChangeLeads | ChangeView
		}
		if s.selected != nil && s.selected.ID == id {
			l := updated
			s.selected = &l
			c |= ChangeSelection
		}
		return c
	})

	if err != nil {
		s.log.Warn("update lead failed", "id", id, "error", err)
		return model.Lead{}, err
	}
	s.log.Debug("lead updated", "id", id)
	return updated, nil
}

// DeleteLead drops the lead from the cache and deselects it if selected.
func (s *Store) DeleteLead(ctx context.Context, id int64) error {
	s.begin(true)

	_, err := s.svc.DeleteLead(ctx, id)

	s.commit(func() Change {
		s.loading = false
		if err != nil {
			s.err = errMessage(err, msgDeleteFailed)
			return ChangeStatus
		}
		s.leads = slices.DeleteFunc(s.leads, func(l model.Lead) bool { return l.ID == id })
		s.recompute()
		c := ChangeLeads | ChangeView | ChangeStatus
		if s.selected != nil && s.selected.ID == id {
			s.selected = nil
			c |= ChangeSelection
		}
		return c
	})

	if err != nil {
		s.log.Warn("delete lead failed", "id", id, "error", err)
		return err
	}
	s.log.Debug("lead deleted", "id", id)
	return nil
}

// SwitchAttention flips the needs-attention flag on the server and then
// refetches everything, since the server computes the flag. It does not
// raise the loading flag itself; the refetch does.
func (s *Store) SwitchAttention(ctx context.Context, identifier string) error {
	s.begin(false)

	if _, err := s.svc.SwitchAttention(ctx, identifier); err != nil {
		s.SetError(errMessage(err, msgSwitchFailed))
		s.log.Warn("switch attention failed", "identifier", identifier, "error", err)
		return err
	}
	return s.FetchLeads(ctx)
}

// OptedOutLeads is recomputed on every call.
func (s *Store) OptedOutLeads() []model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter.Where(s.leads, filter.OptedOut)
}

// NeedsFollowUpLeads is recomputed on every call.
func (s *Store) NeedsFollowUpLeads() []model.Lead {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter.Where(s.leads, filter.NeedsFollowUp)
}
