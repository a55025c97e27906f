package httpcore

import "strings"

// headerField is one k/v pair in insertion order.
type headerField struct {
	Key   string
	Value string
}

// Headers is an ordered mapping with case-insensitive lookup. Insertion
// order is preserved for diagnostics and for re-serialization; duplicate
// keys append rather than overwrite, matching spec section 3.
type Headers struct {
	fields []headerField
}

// Add appends a key/value pair, allowing duplicate keys.
func (h *Headers) Add(key, value string) {
	h.fields = append(h.fields, headerField{Key: key, Value: value})
}

// Get returns the first value for key (case-insensitive), or "" if absent.
func (h *Headers) Get(key string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.Key, key) {
			return f.Value
		}
	}
	return ""
}

// Has reports whether key is present (case-insensitive).
func (h *Headers) Has(key string) bool {
	for _, f := range h.fields {
		if strings.EqualFold(f.Key, key) {
			return true
		}
	}
	return false
}

// All returns the fields in insertion order.
func (h *Headers) All() []headerField {
	return h.fields
}

// Len reports the number of header fields, including duplicates.
func (h *Headers) Len() int {
	return len(h.fields)
}
