package vaultenv

import "sort"

// Bundle is the complete set of secret key/value pairs stored for one project.
type Bundle map[string]string

// Clone returns a copy of the bundle. A nil bundle clones to an empty one.
func (b Bundle) Clone() Bundle {
	out := make(Bundle, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Keys returns the bundle keys in lexical order.
func (b Bundle) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present.
func (b Bundle) Has(key string) bool {
	_, ok := b[key]
	return ok
}
