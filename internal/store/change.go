package store

import (
	"sort"
	"sync"
)

// Change is the set of state slices a commit touched.
type Change uint8

const (
	ChangeLeads Change = 1 << iota
	ChangeView
	ChangeSelection
	ChangeStatus
)

func (c Change) Has(other Change) bool {
	return c&other != 0
}

func (c Change) String() string {
	names := []struct {
		bit  Change
		name string
	}{
		{ChangeLeads, "leads"},
		{ChangeView, "view"},
		{ChangeSelection, "selection"},
		{ChangeStatus, "status"},
	}
	out := ""
	for _, n := range names {
		if c.Has(n.bit) {
			if out != "" {
				out += "|"
			}
			out += n.name
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

// Listener is called after a commit, outside the store lock, on the
// goroutine that committed.
type Listener func(Change)

type listeners struct {
	mu   sync.Mutex
	next int
	subs map[int]Listener
}

func (l *listeners) add(fn Listener) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.subs == nil {
		l.subs = make(map[int]Listener)
	}
	id := l.next
	l.next++
	l.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		})
	}
}

// snapshot returns the listeners in subscription order.
func (l *listeners) snapshot() []Listener {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]int, 0, len(l.subs))
	for id := range l.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, len(ids))
	for i, id := range ids {
		out[i] = l.subs[id]
	}
	return out
}

func (l *listeners) publish(c Change) {
	if c == 0 {
		return
	}
	for _, fn := range l.snapshot() {
		fn(c)
	}
}
