package memory

// table is a map with an optional write overlay. A table without writes is a
// committed view; a transaction layers its writes over the committed map
// until commit. A nil write is a deletion.
type table[K comparable, V any] struct {
	base   map[K]V
	writes map[K]*V
}

func newTable[K comparable, V any]() table[K, V] {
	return table[K, V]{base: make(map[K]V)}
}

// overlay returns a view that records writes instead of applying them.
func (t table[K, V]) overlay() table[K, V] {
	return table[K, V]{base: t.base, writes: make(map[K]*V)}
}

func (t table[K, V]) get(k K) (V, bool) {
	if t.writes != nil {
		if w, ok := t.writes[k]; ok {
			if w == nil {
				var zero V
				return zero, false
			}
			return *w, true
		}
	}
	v, ok := t.base[k]
	return v, ok
}

func (t table[K, V]) each(fn func(K, V)) {
	for k, v := range t.base {
		if t.writes != nil {
			if _, overwritten := t.writes[k]; overwritten {
				continue
			}
		}
		fn(k, v)
	}
	for k, w := range t.writes {
		if w != nil {
			fn(k, *w)
		}
	}
}

// overwritten reports whether the overlay already holds a write for k.
func (t table[K, V]) overwritten(k K) bool {
	if t.writes == nil {
		return false
	}
	_, ok := t.writes[k]
	return ok
}

func (t table[K, V]) put(k K, v V) {
	if t.writes == nil {
		t.base[k] = v
		return
	}
	t.writes[k] = &v
}

func (t table[K, V]) del(k K) {
	if t.writes == nil {
		delete(t.base, k)
		return
	}
	t.writes[k] = nil
}

// apply folds the overlay into the base map.
func (t table[K, V]) apply() {
	for k, w := range t.writes {
		if w == nil {
			delete(t.base, k)
			continue
		}
		t.base[k] = *w
	}
}
