package store

import (
	"context"
	"testing"

	"github.com/nimasrn/lead-desk/internal/api"
	"github.com/nimasrn/lead-desk/internal/filter"
	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bomLeads() []model.Lead {
	return []model.Lead{
		{ID: 1, LeadPhone: "555-0001", OptedOut: false, BomText: nil},
		{ID: 2, LeadPhone: "555-0002", OptedOut: true, BomText: nil},
	}
}

func TestPresetSelector_BOMScenario(t *testing.T) {
	svc := new(MockLeadService)
	svc.On("GetLeads", mock.Anything).Return(bomLeads(), nil).Once()
	s := New(svc)
	require.NoError(t, s.FetchLeads(context.Background()))

	p := NewPresetSelector(s, filter.Presets())
	defer p.Close()

	require.NoError(t, p.Toggle(filter.PresetBOM))
	assert.Equal(t, filter.PresetBOM, p.Active())
	assert.Equal(t, []int64{1}, ids(s.View()))
}

func TestPresetSelector_ToggleTwiceRestoresLeads(t *testing.T) {
	s, _ := loadedStore(t)
	p := NewPresetSelector(s, filter.Presets())
	defer p.Close()

	require.NoError(t, p.Toggle(filter.PresetOptedOut))
	assert.Equal(t, []int64{2}, ids(s.View()))

	require.NoError(t, p.Toggle(filter.PresetOptedOut))
	assert.Empty(t, p.Active())
	assert.False(t, s.Filtering())
	assert.Equal(t, s.Leads(), s.View())
}

func TestPresetSelector_SecondPresetReplacesFirst(t *testing.T) {
	s, _ := loadedStore(t)
	p := NewPresetSelector(s, filter.Presets())
	defer p.Close()

	require.NoError(t, p.Toggle(filter.PresetOptedOut))
	require.NoError(t, p.Toggle(filter.PresetNeedsAttention))
	assert.Equal(t, filter.PresetNeedsAttention, p.Active())
	assert.Equal(t, []int64{3}, ids(s.View()))
}

func TestPresetSelector_ResetsSortOnSwitch(t *testing.T) {
	s, _ := loadedStore(t)
	p := NewPresetSelector(s, filter.Presets())
	defer p.Close()

	s.SortLeads(model.FieldID, filter.Desc)
	require.NoError(t, p.Toggle(filter.PresetNeedsAttention))
	s.SortLeads(model.FieldID, filter.Desc)
	require.NoError(t, p.Toggle(filter.PresetOptedOut))
	assert.Equal(t, []int64{2}, ids(s.View()))
}

func TestPresetSelector_ReappliesAfterFetch(t *testing.T) {
	s, svc := loadedStore(t)
	p := NewPresetSelector(s, filter.Presets())
	defer p.Close()

	require.NoError(t, p.Toggle(filter.PresetOptedOut))

	fresh := sampleLeads()
	fresh[0].OptedOut = true
	svc.On("GetLeads", mock.Anything).Return(fresh, nil).Once()
	require.NoError(t, s.FetchLeads(context.Background()))

	assert.Equal(t, []int64{1, 2}, ids(s.View()))
}

func TestPresetSelector_CloseStopsReapplying(t *testing.T) {
	s, svc := loadedStore(t)
	p := NewPresetSelector(s, filter.Presets())
	require.NoError(t, p.Toggle(filter.PresetOptedOut))
	p.Close()

	svc.On("GetLeads", mock.Anything).Return(sampleLeads(), nil).Once()
	require.NoError(t, s.FetchLeads(context.Background()))
	assert.False(t, s.Filtering())
}

func TestPresetSelector_UnknownKey(t *testing.T) {
	s, _ := loadedStore(t)
	p := NewPresetSelector(s, filter.Presets())
	defer p.Close()

	assert.ErrorIs(t, p.Toggle("Nope"), ErrUnknownPreset)
	assert.Empty(t, p.Active())
}

func TestPresetSelector_LeadChangesKeepSort(t *testing.T) {
	ctx := context.Background()
	s, svc := loadedStore(t)
	p := NewPresetSelector(s, []filter.Preset{
		{Key: "active", Name: "Active", Criteria: filter.Criteria{model.FieldOptedOut: false}},
	})
	defer p.Close()

	require.NoError(t, p.Toggle("active"))
	s.SortLeads(model.FieldID, filter.Desc)
	require.Equal(t, []int64{3, 1}, ids(s.View()))

	var unfiltered bool
	cancel := s.Subscribe(func(Change) {
		if !s.Filtering() {
			unfiltered = true
		}
	})
	defer cancel()

	upd := model.LeadUpdate{model.FieldLeadName: "Annie"}
	svc.On("UpdateLead", mock.Anything, int64(1), upd).
		Return(model.Lead{ID: 1, LeadName: "Annie", LeadPhone: "555-0001"}, nil).Once()
	_, err := s.UpdateLead(ctx, 1, upd)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(s.View()))

	svc.On("CreateLead", mock.Anything, mock.Anything).
		Return(model.Lead{ID: 4, LeadName: "Dee", LeadPhone: "555-0004"}, nil).Once()
	_, err = s.CreateLead(ctx, model.LeadInput{LeadName: "Dee", LeadPhone: "555-0004"})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 1}, ids(s.View()))

	svc.On("DeleteLead", mock.Anything, int64(3)).Return(api.Ack{Success: true}, nil).Once()
	require.NoError(t, s.DeleteLead(ctx, 3))
	assert.Equal(t, []int64{4, 1}, ids(s.View()))

	assert.False(t, unfiltered, "listeners never observe the view without the preset")
	assert.Equal(t, "active", p.Active())
}
