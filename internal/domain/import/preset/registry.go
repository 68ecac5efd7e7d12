// Package preset holds named bank statement layouts and the registry that
// resolves them by key, by header signature and by fuzzy name lookup.
package preset

import (
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/FACorreiaa/budget-dashboard/internal/domain/import/layout"
)

// Preset is an immutable column layout for one bank export.
// Header-based presets name their columns; positional presets (HasHeader false)
// fix indices instead.
type Preset struct {
	Key       string
	Name      string
	Label     string // short badge shown next to the name in selectors
	HasHeader bool

	Headers   map[layout.Role]string
	Positions map[layout.Role]int

	// Signature lists headers that together identify the bank. ColumnCount
	// identifies headerless exports.
	Signature   []string
	ColumnCount int
}

// Apply resolves the preset against a header row. Named columns that are not
// present stay unset.
func (p Preset) Apply(headers []string) layout.ColumnMapping {
	m := layout.NewMapping()
	if !p.HasHeader {
		for role, idx := range p.Positions {
			m.Set(role, idx)
		}
		return m
	}

	for role, name := range p.Headers {
		m.Set(role, indexOf(headers, name))
	}
	return m
}

// matches reports whether the preset's signature fits the file.
func (p Preset) matches(headers []string, headerless bool) bool {
	if headerless {
		return !p.HasHeader && p.ColumnCount > 0 && p.ColumnCount == len(headers)
	}
	if !p.HasHeader || len(p.Signature) == 0 {
		return false
	}
	for _, s := range p.Signature {
		if indexOf(headers, s) < 0 {
			return false
		}
	}
	return true
}

// clone copies the preset's maps and signature so callers never share them.
func (p Preset) clone() Preset {
	p.Headers = maps.Clone(p.Headers)
	p.Positions = maps.Clone(p.Positions)
	p.Signature = slices.Clone(p.Signature)
	return p
}

// Registry holds presets in registration order. Presets are copied on the way
// in and out, so a registered layout cannot be changed afterwards.
type Registry struct {
	mu      sync.RWMutex
	presets map[string]Preset
	order   []string
}

// NewRegistry creates an empty preset registry.
func NewRegistry() *Registry {
	return &Registry{presets: make(map[string]Preset)}
}

// Register adds a preset. Panics on a duplicate key.
func (r *Registry) Register(p Preset) {
	key := strings.ToLower(p.Key)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.presets[key]; ok {
		panic("duplicate layout preset: " + key)
	}
	p = p.clone()
	p.Key = key
	r.presets[key] = p
	r.order = append(r.order, key)
}

// Get returns the preset for key.
func (r *Registry) Get(key string) (Preset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.presets[strings.ToLower(strings.TrimSpace(key))]
	return p.clone(), ok
}

// List returns all presets in registration order.
func (r *Registry) List() []Preset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Preset, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.presets[k].clone())
	}
	return out
}

// Detect returns the first registered preset whose signature fits the file.
// For headerless files headers are the positional labels of the first row.
func (r *Registry) Detect(headers []string, headerless bool) (Preset, bool) {
	for _, p := range r.List() {
		if p.matches(headers, headerless) {
			return p, true
		}
	}
	return Preset{}, false
}

// Find resolves loosely typed bank names ("wellsfargo", "boa credit") to
// presets, best match first. An exact key wins outright.
func (r *Registry) Find(query string) []Preset {
	if p, ok := r.Get(query); ok {
		return []Preset{p}
	}

	q := strings.ToLower(strings.Join(strings.Fields(query), ""))
	if q == "" {
		return nil
	}

	type candidate struct {
		preset Preset
		rank   int
	}
	var found []candidate
	for _, p := range r.List() {
		best := -1
		for _, target := range []string{p.Key, p.Name} {
			t := strings.ToLower(strings.ReplaceAll(target, " ", ""))
			if rank := fuzzy.RankMatchNormalizedFold(q, t); rank >= 0 && (best < 0 || rank < best) {
				best = rank
			}
		}
		if best >= 0 {
			found = append(found, candidate{preset: p, rank: best})
		}
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].rank < found[j].rank })
	out := make([]Preset, len(found))
	for i, c := range found {
		out[i] = c.preset
	}
	return out
}

func indexOf(headers []string, name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, h := range headers {
		if strings.ToLower(strings.TrimSpace(h)) == name {
			return i
		}
	}
	return layout.Unset
}
