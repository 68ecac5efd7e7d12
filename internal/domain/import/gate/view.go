package gate

import (
	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
)

// SampleSize is how many data rows a View carries.
const SampleSize = 5

// PresetOption is what a bank selector shows for one preset.
type PresetOption struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Label string `json:"label"`
}

// View is the batch as a confirmation screen renders it.
type View struct {
	ID              string               `json:"id"`
	Filename        string               `json:"filename"`
	State           string               `json:"state"`
	Reason          Reason               `json:"reason,omitempty"`
	Headers         []string             `json:"headers"`
	Samples         [][]string           `json:"samples"`
	RowCount        int                  `json:"rowCount"`
	Headerless      bool                 `json:"headerless"`
	Mapping         layout.ColumnMapping `json:"mapping"`
	PresetKey       string               `json:"presetKey,omitempty"`
	SuggestedPreset string               `json:"suggestedPreset,omitempty"`
	Presets         []PresetOption       `json:"presets"`
}

// View renders the gate for a confirmation UI.
func (g *Gate) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := min(SampleSize, len(g.batch.Rows))
	v := View{
		ID:              g.batch.ID,
		Filename:        g.batch.Filename,
		State:           g.state.String(),
		Reason:          g.reason,
		Headers:         append([]string(nil), g.batch.Headers...),
		Samples:         append([][]string(nil), g.batch.Rows[:n]...),
		RowCount:        len(g.batch.Rows),
		Headerless:      g.batch.Headerless,
		Mapping:         g.batch.Mapping,
		PresetKey:       g.batch.PresetKey,
		SuggestedPreset: g.batch.SuggestedPreset,
		Presets:         []PresetOption{},
	}
	if g.registry != nil {
		for _, p := range g.registry.List() {
			v.Presets = append(v.Presets, PresetOption{Key: p.Key, Name: p.Name, Label: p.Label})
		}
	}
	return v
}
