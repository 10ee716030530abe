package sources

import "github.com/stacklok/plugin-updater/internal/placeholder"

// Parameters is an immutable, ordered set of plugin parameters.
// Methods that change the set return a copy.
type Parameters struct {
	keys   []string
	values map[string]string
}

// NewParameters creates Parameters from alternating key/value pairs. A later
// value for the same key replaces the earlier one in place.
func NewParameters(pairs ...string) Parameters {
	p := Parameters{values: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		p.set(pairs[i], pairs[i+1])
	}
	return p
}

// Get returns the value of key
func (p Parameters) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Value returns the value of key, or "" when it is not set
func (p Parameters) Value(key string) string {
	return p.values[key]
}

// Has reports whether key is set
func (p Parameters) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Keys returns the keys in insertion order
func (p Parameters) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Len returns the number of parameters
func (p Parameters) Len() int {
	return len(p.keys)
}

// Map returns a copy of the parameters as a map
func (p Parameters) Map() map[string]string {
	m := make(map[string]string, len(p.values))
	for k, v := range p.values {
		m[k] = v
	}
	return m
}

// With returns a copy with key set to value
func (p Parameters) With(key, value string) Parameters {
	c := p.clone()
	c.set(key, value)
	return c
}

// WithDefault returns p unchanged when key is set, otherwise a copy with key set to value
func (p Parameters) WithDefault(key, value string) Parameters {
	if p.Has(key) {
		return p
	}
	return p.With(key, value)
}

// Missing returns the entries of required that are not set, in order
func (p Parameters) Missing(required []string) []string {
	var missing []string
	for _, key := range required {
		if !p.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}

// Replacer returns a placeholder replacer over the parameters
func (p Parameters) Replacer() *placeholder.Replacer {
	return placeholder.New().WithMap(p.values)
}

func (p *Parameters) set(key, value string) {
	if p.values == nil {
		p.values = make(map[string]string)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p Parameters) clone() Parameters {
	c := Parameters{
		keys:   make([]string, len(p.keys), len(p.keys)+1),
		values: make(map[string]string, len(p.values)+1),
	}
	copy(c.keys, p.keys)
	for k, v := range p.values {
		c.values[k] = v
	}
	return c
}
