package filter

import "github.com/nimasrn/lead-desk/internal/model"

// Preset is a named, reusable criteria set. With Exclude set the preset
// drops the leads matching all of Criteria instead of keeping them, and
// Negate is ignored.
type Preset struct {
	Key      string
	Name     string
	Criteria Criteria
	Negate   bool
	Exclude  bool
}

const (
	PresetNeedsAttention = "NeedsAttention"
	PresetBOM            = "BOM"
	PresetBIT            = "BIT"
	PresetPT             = "PT"
	PresetWG             = "WG"
	PresetOptedOut       = "OptedOut"
)

// The stage presets exclude leads that lack the stage text and have opted
// out, so a lead stays when it has the text or has not opted out.
var presets = []Preset{
	{
		Key:      PresetNeedsAttention,
		Name:     "Needs Attention",
		Criteria: Criteria{model.FieldNeedsAttention: true, model.FieldOptedOut: false},
	},
	{
		Key:      PresetBOM,
		Name:     "BOM",
		Criteria: Criteria{model.FieldBomText: nil, model.FieldOptedOut: true},
		Exclude:  true,
	},
	{
		Key:      PresetBIT,
		Name:     "BIT",
		Criteria: Criteria{model.FieldBitText: nil, model.FieldOptedOut: true},
		Exclude:  true,
	},
	{
		Key:      PresetPT,
		Name:     "PT",
		Criteria: Criteria{model.FieldPtText: nil, model.FieldOptedOut: true},
		Exclude:  true,
	},
	{
		Key:      PresetWG,
		Name:     "WG",
		Criteria: Criteria{model.FieldWgText: nil, model.FieldOptedOut: true},
		Exclude:  true,
	},
	{
		Key:      PresetOptedOut,
		Name:     "Not Interested",
		Criteria: Criteria{model.FieldOptedOut: true},
	},
}

// Presets returns the built-in presets in display order. The returned
// slice and its criteria are copies.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	for i, p := range presets {
		out[i] = p.clone()
	}
	return out
}

// PresetByKey looks up a built-in preset.
func PresetByKey(key string) (Preset, bool) {
	for _, p := range presets {
		if p.Key == key {
			return p.clone(), true
		}
	}
	return Preset{}, false
}

// Apply returns the leads the preset keeps.
func (p Preset) Apply(leads []model.Lead) []model.Lead {
	if p.Exclude {
		return Exclude(leads, p.Criteria)
	}
	return Apply(leads, p.Criteria, p.Negate)
}

func (p Preset) clone() Preset {
	c := make(Criteria, len(p.Criteria))
	for k, v := range p.Criteria {
		c[k] = v
	}
	p.Criteria = c
	return p
}
