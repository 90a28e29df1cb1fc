package store

import (
	"errors"
	"sync"

	"github.com/nimasrn/lead-desk/internal/filter"
)

var ErrUnknownPreset = errors.New("unknown filter preset")

// PresetSelector is a single-select toggle over named presets. At most one
// preset is active; it is re-applied whenever the lead list changes.
type PresetSelector struct {
	store   *Store
	presets map[string]filter.Preset

	mu     sync.Mutex
	active string
	cancel func()
}

func NewPresetSelector(s *Store, presets []filter.Preset) *PresetSelector {
	p := &PresetSelector{
		store:   s,
		presets: make(map[string]filter.Preset, len(presets)),
	}
	for _, preset := range presets {
		p.presets[preset.Key] = preset
	}
	p.cancel = s.Subscribe(func(c Change) {
		if c.Has(ChangeLeads) {
			p.reapply()
		}
	})
	return p
}

// Toggle deactivates key when it is active and otherwise makes it the only
// active preset.
func (p *PresetSelector) Toggle(key string) error {
	preset, ok := p.presets[key]
	if !ok {
		return ErrUnknownPreset
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == key {
		p.active = ""
		p.store.ResetFilters()
		return nil
	}
	p.active = key
	p.apply(preset)
	return nil
}

// Active returns the active preset key, or "".
func (p *PresetSelector) Active() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Close stops following lead changes.
func (p *PresetSelector) Close() {
	p.cancel()
}

func (p *PresetSelector) reapply() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == "" {
		return
	}
	p.filter(p.presets[p.active])
}

// apply resets first so a stale sort or phone search never survives a
// preset switch. Callers hold mu.
func (p *PresetSelector) apply(preset filter.Preset) {
	p.store.ResetFilters()
	p.filter(preset)
}

// filter swaps in the preset predicate and keeps the current sort.
func (p *PresetSelector) filter(preset filter.Preset) {
	if preset.Exclude {
		p.store.ExcludeLeads(preset.Criteria)
		return
	}
	p.store.FilterLeads(preset.Criteria, preset.Negate)
}
