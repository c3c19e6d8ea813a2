package registry

import (
	"maps"
	"slices"
)

// Registry is the read-only collection catalog.
type Registry struct {
	descriptors map[string]Descriptor
	byName      map[string]string
	models      map[string]Model
	labels      map[string]string
}

// New builds a registry from the built-in catalog. overrides is merged into the
// export label table when it is a valid sequence of (string, string) pairs and
// is ignored otherwise.
func New(overrides any) *Registry {
	r := &Registry{
		descriptors: make(map[string]Descriptor),
		byName:      make(map[string]string),
		models:      make(map[string]Model),
		labels:      make(map[string]string),
	}
	for _, d := range builtinDescriptors() {
		r.descriptors[d.Method] = d
		r.byName[d.Name] = d.Method
	}
	for _, m := range builtinModels() {
		r.models[m.Name] = m
	}
	for _, l := range builtinLabels() {
		r.labels[l[0]] = l[1]
	}
	if pairs, ok := ParseOverrides(overrides); ok {
		for _, p := range pairs {
			r.labels[p[0]] = p[1]
		}
	}
	return r
}

// Descriptors returns a copy of every descriptor keyed by reporting method.
func (r *Registry) Descriptors() map[string]Descriptor {
	out := make(map[string]Descriptor, len(r.descriptors))
	for k, d := range r.descriptors {
		out[k] = d.Clone()
	}
	return out
}

// Descriptor returns a copy of the descriptor served by method.
func (r *Registry) Descriptor(method string) (Descriptor, bool) {
	d, ok := r.descriptors[method]
	if !ok {
		return Descriptor{}, false
	}
	return d.Clone(), true
}

// DescriptorByName returns a copy of the descriptor of the named collection.
func (r *Registry) DescriptorByName(name string) (Descriptor, bool) {
	method, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.Descriptor(method)
}

// Synced returns copies of all descriptors in a stable order: private
// collections first, then public ones, each sorted by name.
func (r *Registry) Synced() []Descriptor {
	out := make([]Descriptor, 0, len(r.descriptors))
	for _, d := range r.descriptors {
		out = append(out, d.Clone())
	}
	slices.SortFunc(out, func(a, b Descriptor) int {
		if a.Type.Visibility != b.Type.Visibility {
			return int(a.Type.Visibility) - int(b.Type.Visibility)
		}
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// Schemas returns a copy of every model keyed by table name.
func (r *Registry) Schemas() map[string]Model {
	out := make(map[string]Model, len(r.models))
	for k, m := range r.models {
		out[k] = m.Clone()
	}
	return out
}

// Schema returns a copy of the named model.
func (r *Registry) Schema(name string) (Model, bool) {
	m, ok := r.models[name]
	if !ok {
		return Model{}, false
	}
	return m.Clone(), true
}

// Labels returns a copy of the export label table.
func (r *Registry) Labels() map[string]string {
	return maps.Clone(r.labels)
}

// ResolveLabel returns the export file label for method. Special cases are
// checked in order: public trades without a trading pair, movements limited
// to deposits or withdrawals, then multi-collection exports. Methods missing
// from the table fall back to FallbackLabel.
func (r *Registry) ResolveLabel(method string, flags LabelFlags) string {
	return resolveLabel(r.labels, method, flags)
}

// WithOverrides returns a new registry sharing the catalog of r with extra
// label overrides applied on top of the current table. A malformed override
// table leaves the labels unchanged.
func (r *Registry) WithOverrides(overrides any) *Registry {
	pairs, ok := ParseOverrides(overrides)
	if !ok || len(pairs) == 0 {
		return r
	}
	labels := maps.Clone(r.labels)
	for _, p := range pairs {
		labels[p[0]] = p[1]
	}
	return &Registry{
		descriptors: r.descriptors,
		byName:      r.byName,
		models:      r.models,
		labels:      labels,
	}
}
