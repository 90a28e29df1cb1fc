package mockapi

import "github.com/nimasrn/lead-desk/internal/model"

func ptr(s string) *string { return &s }

// DemoLeads is the data the development server starts with. It covers every
// built-in preset at least once.
func DemoLeads() []model.Lead {
	return []model.Lead{
		{ID: 1, LeadName: "Ann Keller", LeadPhone: "+15550001", NeedsAttention: true, CreatedAt: "2024-03-01T09:00:00Z"},
		{ID: 2, LeadName: "Bob Otieno", LeadPhone: "+15550002", BomText: ptr("BOM link sent"), BomDate: ptr("2024-03-02T10:00:00Z"), FuBomSent: true, CreatedAt: "2024-03-02T09:30:00Z"},
		{ID: 3, LeadName: "Carla Núñez", LeadPhone: "+15550003", BitText: ptr("BIT booked"), BitDate: ptr("2024-03-05"), FuBomSent: true, FuBomConfirmed: true, CreatedAt: "2024-03-03T14:00:00Z"},
		{ID: 4, LeadName: "Dmitri Volkov", LeadPhone: "", TgUsername: ptr("@dvolkov"), PtText: ptr("PT scheduled"), CreatedAt: "2024-03-04T08:15:00Z"},
		{ID: 5, LeadName: "Émile Laurent", LeadPhone: "+15550005", WgText: ptr("Joined WG"), WgDate: ptr("2024-03-06 18:00:00"), FuBomSent: true, FuBomConfirmed: true, FuBitSent: true, CreatedAt: "2024-03-05T11:45:00Z"},
		{ID: 6, LeadName: "Farah Hadid", LeadPhone: "+15550006", OptedOut: true, BomText: ptr("BOM link sent"), CreatedAt: "2024-03-06T16:20:00Z"},
	}
}
