package filter

import (
	"testing"

	"github.com/nimasrn/lead-desk/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestSort_ByID(t *testing.T) {
	leads := []model.Lead{{ID: 10}, {ID: 2}, {ID: 33}}

	assert.Equal(t, []int64{2, 10, 33}, ids(Sort(leads, model.FieldID, Asc)))
	assert.Equal(t, []int64{33, 10, 2}, ids(Sort(leads, model.FieldID, Desc)))
	assert.Equal(t, []int64{10, 2, 33}, ids(leads), "input untouched")
}

func TestSort_NullsLastBothOrders(t *testing.T) {
	leads := []model.Lead{
		{ID: 1, BomDate: nil},
		{ID: 2, BomDate: strPtr("2024-03-01T10:00:00Z")},
		{ID: 3, BomDate: strPtr("2024-01-01T10:00:00Z")},
		{ID: 4, BomDate: nil},
	}

	assert.Equal(t, []int64{3, 2, 1, 4}, ids(Sort(leads, model.FieldBomDate, Asc)))
	assert.Equal(t, []int64{2, 3, 1, 4}, ids(Sort(leads, model.FieldBomDate, Desc)))
}

func TestSort_DatesCompareAsTime(t *testing.T) {
	leads := []model.Lead{
		{ID: 1, CreatedAt: "2024-01-02 00:00:00"},
		{ID: 2, CreatedAt: "2023-12-31T23:00:00Z"},
		{ID: 3, CreatedAt: "2024-01-01"},
	}
	assert.Equal(t, []int64{2, 3, 1}, ids(Sort(leads, model.FieldCreatedAt, Asc)))
}

func TestSort_UnparsableDateSortsAsNull(t *testing.T) {
	leads := []model.Lead{
		{ID: 1, PtDate: strPtr("soon")},
		{ID: 2, PtDate: strPtr("2024-01-01")},
	}
	assert.Equal(t, []int64{2, 1}, ids(Sort(leads, model.FieldPtDate, Desc)))
}

func TestSort_StringsAreCollated(t *testing.T) {
	leads := []model.Lead{
		{ID: 1, LeadName: "bob"},
		{ID: 2, LeadName: "Ann"},
		{ID: 3, LeadName: "Émile"},
		{ID: 4, LeadName: "carl"},
	}
	// byte order would put "Ann" and "Émile" at the extremes
	assert.Equal(t, []int64{2, 1, 4, 3}, ids(Sort(leads, model.FieldLeadName, Asc)))
	assert.Equal(t, []int64{3, 4, 1, 2}, ids(Sort(leads, model.FieldLeadName, Desc)))
}

func TestSort_Stable(t *testing.T) {
	leads := []model.Lead{
		{ID: 1, LeadName: "same"},
		{ID: 2, LeadName: "same"},
		{ID: 3, LeadName: "same"},
	}
	assert.Equal(t, []int64{1, 2, 3}, ids(Sort(leads, model.FieldLeadName, Asc)))
	assert.Equal(t, []int64{1, 2, 3}, ids(Sort(leads, model.FieldLeadName, Desc)))
}

func TestSort_Booleans(t *testing.T) {
	leads := []model.Lead{{ID: 1, OptedOut: true}, {ID: 2, OptedOut: false}}
	assert.Equal(t, []int64{2, 1}, ids(Sort(leads, model.FieldOptedOut, Asc)))
}

func TestSort_UnknownFieldKeepsOrder(t *testing.T) {
	leads := []model.Lead{{ID: 3}, {ID: 1}}
	assert.Equal(t, []int64{3, 1}, ids(Sort(leads, "nope", Asc)))
}

func TestSort_Empty(t *testing.T) {
	assert.Empty(t, Sort(nil, model.FieldID, Asc))
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, Desc, ParseOrder("desc"))
	assert.Equal(t, Asc, ParseOrder("asc"))
	assert.Equal(t, Asc, ParseOrder("sideways"))
}
