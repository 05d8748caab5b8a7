package memory

import "github.com/jhoicas/taller-stock/internal/domain"

// table filas confirmadas de una entidad, en orden de inserción.
type table[T any] struct {
	name      string
	rows      map[string]T
	order     []string
	uniqueKey func(T) string
	index     map[string]string // clave única -> id
	clone     func(T) T
}

func newTable[T any](name string, uniqueKey func(T) string) *table[T] {
	return &table[T]{name: name, rows: map[string]T{}, uniqueKey: uniqueKey, index: map[string]string{}}
}

// withClone fija la copia profunda para entidades con slices.
func (t *table[T]) withClone(fn func(T) T) *table[T] {
	t.clone = fn
	return t
}

func (t *table[T]) copy(v T) T {
	if t.clone == nil {
		return v
	}
	return t.clone(v)
}

func (t *table[T]) key(v T) string {
	if t.uniqueKey == nil {
		return ""
	}
	return t.uniqueKey(v)
}

func (t *table[T]) put(id string, v T) {
	old, exists := t.rows[id]
	if !exists {
		t.order = append(t.order, id)
	} else if k := t.key(old); k != "" && t.index[k] == id {
		delete(t.index, k)
	}
	if k := t.key(v); k != "" {
		t.index[k] = id
	}
	t.rows[id] = t.copy(v)
}

func (t *table[T]) remove(id string) {
	old, ok := t.rows[id]
	if !ok {
		return
	}
	if k := t.key(old); k != "" && t.index[k] == id {
		delete(t.index, k)
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// committer parte de una transacción que se publica en commit.
type committer interface {
	checkUnique() error
	apply()
}

// view lectura/escritura de una tabla desde una transacción: lo escrito en la tx tapa lo confirmado.
type view[T any] struct {
	tx      *tx
	t       *table[T]
	staged  map[string]T
	deleted map[string]bool
	order   []string
}

func newView[T any](tx *tx, t *table[T]) *view[T] {
	return &view[T]{tx: tx, t: t, staged: map[string]T{}, deleted: map[string]bool{}}
}

func (v *view[T]) get(id string) (T, bool) {
	var zero T
	if v.deleted[id] {
		return zero, false
	}
	if x, ok := v.staged[id]; ok {
		return v.t.copy(x), true
	}
	v.tx.s.mu.RLock()
	defer v.tx.s.mu.RUnlock()
	x, ok := v.t.rows[id]
	if !ok {
		return zero, false
	}
	return v.t.copy(x), true
}

// conflict busca otra fila (confirmada o de esta tx) con la misma clave única.
// Se llama con s.mu tomado al menos en lectura.
func (v *view[T]) conflict(id string, x T) bool {
	k := v.t.key(x)
	if k == "" {
		return false
	}
	if other, ok := v.t.index[k]; ok && other != id && !v.deleted[other] {
		if staged, ok := v.staged[other]; !ok || v.t.key(staged) == k {
			return true
		}
	}
	for sid, s := range v.staged {
		if sid != id && v.t.key(s) == k {
			return true
		}
	}
	return false
}

func (v *view[T]) put(id string, x T) error {
	if v.tx.auto {
		v.tx.s.mu.Lock()
		defer v.tx.s.mu.Unlock()
		if v.conflict(id, x) {
			return domain.Duplicate(v.t.name, "clave única repetida")
		}
		v.t.put(id, x)
		return nil
	}
	v.tx.s.mu.RLock()
	dup := v.conflict(id, x)
	v.tx.s.mu.RUnlock()
	if dup {
		return domain.Duplicate(v.t.name, "clave única repetida")
	}
	if _, ok := v.staged[id]; !ok {
		v.order = append(v.order, id)
	}
	delete(v.deleted, id)
	v.staged[id] = v.t.copy(x)
	return nil
}

func (v *view[T]) remove(id string) {
	if v.tx.auto {
		v.tx.s.mu.Lock()
		defer v.tx.s.mu.Unlock()
		v.t.remove(id)
		return
	}
	delete(v.staged, id)
	v.deleted[id] = true
}

// all devuelve las filas visibles que cumplen keep, en orden de inserción.
func (v *view[T]) all(keep func(T) bool) []T {
	v.tx.s.mu.RLock()
	defer v.tx.s.mu.RUnlock()
	out := []T{}
	for _, id := range v.t.order {
		if v.deleted[id] {
			continue
		}
		x, ok := v.staged[id]
		if !ok {
			x = v.t.rows[id]
		}
		if keep == nil || keep(x) {
			out = append(out, v.t.copy(x))
		}
	}
	for _, id := range v.order {
		if _, committed := v.t.rows[id]; committed {
			continue
		}
		x, ok := v.staged[id]
		if ok && (keep == nil || keep(x)) {
			out = append(out, v.t.copy(x))
		}
	}
	return out
}

func (v *view[T]) checkUnique() error {
	for _, id := range v.order {
		x, ok := v.staged[id]
		if !ok {
			continue
		}
		if v.conflict(id, x) {
			return domain.Duplicate(v.t.name, "clave única repetida")
		}
	}
	return nil
}

func (v *view[T]) apply() {
	for id := range v.deleted {
		v.t.remove(id)
	}
	for _, id := range v.order {
		if x, ok := v.staged[id]; ok {
			v.t.put(id, x)
		}
	}
}
