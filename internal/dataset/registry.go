package dataset

import (
	"github.com/rotisserie/eris"
)

// Registry maps dataset names to their implementations.
type Registry struct {
	datasets map[string]Dataset
	order    []string // insertion order for deterministic iteration
}

// NewRegistry creates a registry populated with all datasets.
func NewRegistry() *Registry {
	r := &Registry{
		datasets: make(map[string]Dataset),
	}

	// ACS 5-year estimates
	r.Register(&PRPop{})
	r.Register(&PRPopCounty{})
	r.Register(&Poverty{})
	r.Register(&Housing{})
	r.Register(&Language{})
	r.Register(&Commuting{})
	r.Register(&Insurance{})
	r.Register(&Mobility{})
	r.Register(&Occupation{})
	r.Register(&Hispanic{})

	// Other sources
	r.Register(&Economy{})
	r.Register(&Shapes{})
	r.Register(&Timeline{})

	return r
}

// Register adds a dataset to the registry.
func (r *Registry) Register(d Dataset) {
	name := d.Name()
	r.datasets[name] = d
	r.order = append(r.order, name)
}

// Get returns a dataset by name.
func (r *Registry) Get(name string) (Dataset, error) {
	d, ok := r.datasets[name]
	if !ok {
		return nil, eris.Errorf("dataset: unknown dataset %q", name)
	}
	return d, nil
}

// Select returns the named datasets, or all of them when names is empty.
func (r *Registry) Select(names []string) ([]Dataset, error) {
	if len(names) == 0 {
		return r.All(), nil
	}
	var result []Dataset
	for _, name := range names {
		d, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	return result, nil
}

// All returns all datasets in registration order.
func (r *Registry) All() []Dataset {
	result := make([]Dataset, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.datasets[name])
	}
	return result
}

// AllNames returns all registered dataset names in registration order.
func (r *Registry) AllNames() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
