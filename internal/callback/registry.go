package callback

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps class names to contracts. It is safe for concurrent use;
// tasks assemble in parallel against one registry.
type Registry struct {
	mu        sync.RWMutex
	contracts map[string]*Contract
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{contracts: map[string]*Contract{}}
}

// Register adds a contract. Registering a class name twice is an error.
func (r *Registry) Register(c Contract) error {
	if err := c.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.contracts[c.ClassName]; dup {
		return fmt.Errorf("callback class %q already registered", c.ClassName)
	}
	r.contracts[c.ClassName] = &c
	return nil
}

// MustRegister is Register for static contracts; it panics on error.
func (r *Registry) MustRegister(cs ...Contract) {
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			panic(err)
		}
	}
}

// Lookup returns the contract of className.
func (r *Registry) Lookup(className string) (*Contract, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[className]
	return c, ok
}

// Contracts returns every contract ordered by class name.
func (r *Registry) Contracts() []*Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Contract, 0, len(r.contracts))
	for _, c := range r.contracts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClassName < out[j].ClassName })
	return out
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contracts)
}
