package scene

import (
	"cmp"
	"iter"
	"slices"
	"sort"

	"golang.org/x/exp/constraints"
)

// sortedMap is an ordered map backed by a sorted slice. Iteration yields
// entries in ascending key order, which gives the deterministic layer order
// the renderers rely on.
type sortedMap[K constraints.Ordered, V any] struct {
	entries []sortedMapEntry[K, V]
}

type sortedMapEntry[K constraints.Ordered, V any] struct {
	key   K
	value V
}

func (m *sortedMap[K, V]) find(key K) (*sortedMapEntry[K, V], bool) {
	idx, ok := sort.Find(len(m.entries), func(i int) int {
		return cmp.Compare(key, m.entries[i].key)
	})
	if !ok {
		return nil, false
	}
	return &m.entries[idx], true
}

func (m *sortedMap[K, V]) Insert(key K, value V) {
	idx := sort.Search(len(m.entries), func(i int) bool {
		return key <= m.entries[i].key
	})
	if idx == len(m.entries) || m.entries[idx].key != key {
		m.entries = slices.Insert(m.entries, idx, sortedMapEntry[K, V]{key, value})
	} else {
		m.entries[idx].value = value
	}
}

func (m *sortedMap[K, V]) Get(key K) (V, bool) {
	if e, ok := m.find(key); ok {
		return e.value, true
	}
	return *new(V), false
}

func (m *sortedMap[K, V]) Len() int {
	return len(m.entries)
}

func (m *sortedMap[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, e := range m.entries {
			if !yield(e.key) {
				return
			}
		}
	}
}
