// Package ordered provides a map that preserves insertion order.
// Program tables use it because declaration order drives both emission
// order and forward-only visibility.
package ordered

// Map is an insertion-ordered string-keyed map. The zero value is
// ready to use.
type Map[V any] struct {
	keys   []string
	values []V
	index  map[string]int
}

func (m *Map[V]) init() {
	if m.index == nil {
		m.index = make(map[string]int)
	}
}

// Len returns the number of entries.
func (m *Map[V]) Len() int { return len(m.keys) }

// Get returns the value for key.
func (m *Map[V]) Get(key string) (V, bool) {
	var zero V
	if m.index == nil {
		return zero, false
	}
	i, ok := m.index[key]
	if !ok {
		return zero, false
	}
	return m.values[i], true
}

// Set inserts or replaces the value for key. A replaced key keeps its
// original position.
func (m *Map[V]) Set(key string, value V) {
	m.init()
	if i, ok := m.index[key]; ok {
		m.values[i] = value
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// Keys returns the keys in insertion order. The slice is shared; do
// not mutate it.
func (m *Map[V]) Keys() []string { return m.keys }

// At returns the i-th entry in insertion order.
func (m *Map[V]) At(i int) (string, V) { return m.keys[i], m.values[i] }

// Range calls fn for each entry in insertion order until fn returns
// false.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for i, k := range m.keys {
		if !fn(k, m.values[i]) {
			return
		}
	}
}
