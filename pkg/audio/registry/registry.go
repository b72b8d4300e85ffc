// Package registry keeps the backend factories registered by the backend
// packages.
package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type prioritizedFactory[F any] struct {
	Priority int
	Factory  F
}

// prioritized is a set of factories keyed by their concrete type.
type prioritized[F any] struct {
	kind      string
	locker    sync.Mutex
	factories map[reflect.Type]prioritizedFactory[F]
}

func newPrioritized[F any](kind string) *prioritized[F] {
	return &prioritized[F]{
		kind:      kind,
		factories: map[reflect.Type]prioritizedFactory[F]{},
	}
}

func (r *prioritized[F]) register(priority int, factory F) {
	t := reflect.ValueOf(factory).Type()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	r.locker.Lock()
	defer r.locker.Unlock()
	if _, ok := r.factories[t]; ok {
		panic(fmt.Errorf("there is already registered a factory of %s of type %v", r.kind, t))
	}
	r.factories[t] = prioritizedFactory[F]{
		Priority: priority,
		Factory:  factory,
	}
}

// list returns the factories, the highest priority first.
func (r *prioritized[F]) list() []F {
	r.locker.Lock()
	entries := make([]prioritizedFactory[F], 0, len(r.factories))
	for _, entry := range r.factories {
		entries = append(entries, entry)
	}
	r.locker.Unlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Priority > entries[j].Priority
	})

	result := make([]F, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.Factory)
	}
	return result
}
