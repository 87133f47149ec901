package messagebus

import (
	"reflect"
	"slices"
	"sync"

	cbus "github.com/next-trace/scg-mics/contract/bus"
)

// subscribers is the entry for one message type. Its mutex serializes
// subscription changes and dispatch for that type only.
type subscribers struct {
	mu     sync.Mutex
	actors []cbus.Actor
	unique bool // broadcast sets ignore duplicates; event rotations keep them
}

func (s *subscribers) add(a cbus.Actor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.unique && slices.Contains(s.actors, a) {
		return
	}

	s.actors = append(s.actors, a)
}

// remove drops every slot held by a and reports whether any was found.
func (s *subscribers) remove(a cbus.Actor) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.actors)
	s.actors = slices.DeleteFunc(s.actors, func(x cbus.Actor) bool { return x == a })

	return len(s.actors) != n
}

// rotateLocked moves the front actor to the back and returns it.
func (s *subscribers) rotateLocked() cbus.Actor {
	a := s.actors[0]
	copy(s.actors, s.actors[1:])
	s.actors[len(s.actors)-1] = a

	return a
}

func (s *subscribers) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.actors))
	for _, a := range s.actors {
		out = append(out, a.Name())
	}

	return out
}

// registry maps a message type to its subscriber entry. Entries are created
// on first subscription and never removed, so a looked-up entry stays valid.
type registry struct {
	mu      sync.RWMutex
	entries map[reflect.Type]*subscribers
	unique  bool
}

func newRegistry(unique bool) *registry {
	return &registry{entries: make(map[reflect.Type]*subscribers), unique: unique}
}

func (r *registry) lookup(t reflect.Type) *subscribers {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.entries[t]
}

func (r *registry) entry(t reflect.Type) *subscribers {
	if s := r.lookup(t); s != nil {
		return s
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.entries[t]
	if !ok {
		s = &subscribers{unique: r.unique}
		r.entries[t] = s
	}

	return s
}

// purge removes a from every entry, one entry lock at a time.
func (r *registry) purge(a cbus.Actor) {
	r.mu.RLock()
	all := make([]*subscribers, 0, len(r.entries))
	for _, s := range r.entries {
		all = append(all, s)
	}
	r.mu.RUnlock()

	for _, s := range all {
		s.remove(a)
	}
}
