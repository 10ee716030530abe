// Package placeholder expands %key% tokens inside URL, path and file name templates.
package placeholder

import "strings"

// Replacer holds a set of placeholder values. The zero value is ready to use.
// A Replacer is immutable once built; With and WithMap return copies.
type Replacer struct {
	values map[string]string
}

// New creates a Replacer from alternating key/value pairs. A trailing key
// without a value is ignored.
func New(pairs ...string) *Replacer {
	r := &Replacer{values: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.values[pairs[i]] = pairs[i+1]
	}
	return r
}

// With returns a copy of the Replacer with key set to value.
func (r *Replacer) With(key, value string) *Replacer {
	c := r.clone(1)
	c.values[key] = value
	return c
}

// WithMap returns a copy of the Replacer with all entries of values added.
// Entries in values win over existing ones.
func (r *Replacer) WithMap(values map[string]string) *Replacer {
	c := r.clone(len(values))
	for k, v := range values {
		c.values[k] = v
	}
	return c
}

// Value returns the value registered for key.
func (r *Replacer) Value(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	v, ok := r.values[key]
	return v, ok
}

// Replace expands every %key% token of template that has a registered value.
// Tokens without a value are left verbatim. Substituted values are never
// expanded again.
func (r *Replacer) Replace(template string) string {
	if r == nil || len(r.values) == 0 || !strings.Contains(template, "%") {
		return template
	}

	var sb strings.Builder
	sb.Grow(len(template))

	rest := template
	for {
		start := strings.IndexByte(rest, '%')
		if start < 0 {
			sb.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start+1:], '%')
		if end < 0 {
			sb.WriteString(rest)
			break
		}
		end += start + 1

		key := rest[start+1 : end]
		if value, ok := r.values[key]; ok {
			sb.WriteString(rest[:start])
			sb.WriteString(value)
			rest = rest[end+1:]
			continue
		}

		// The closing '%' may open the next token.
		sb.WriteString(rest[:end])
		rest = rest[end:]
	}

	return sb.String()
}

func (r *Replacer) clone(extra int) *Replacer {
	size := extra
	if r != nil {
		size += len(r.values)
	}
	c := &Replacer{values: make(map[string]string, size)}
	if r != nil {
		for k, v := range r.values {
			c.values[k] = v
		}
	}
	return c
}

// Replace expands the tokens of template using values.
func Replace(template string, values map[string]string) string {
	return (&Replacer{values: values}).Replace(template)
}
