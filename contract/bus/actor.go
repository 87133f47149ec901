package bus

import "github.com/google/uuid"

// Actor is the identity under which a mailbox and subscriptions are held.
// Implementations must be comparable by identity (pointer receivers).
type Actor interface {
	Name() string
}

// Ref is a bare actor handle for callers that drive the bus directly
// instead of through the microservice runtime.
type Ref struct {
	name string
	id   string
}

// NewRef creates a handle with a fresh identity. Two refs with the same name
// are still distinct actors.
func NewRef(name string) *Ref { return &Ref{name: name, id: uuid.NewString()} }

func (r *Ref) Name() string { return r.name }

// ID returns the unique identity assigned at construction.
func (r *Ref) ID() string { return r.id }

func (r *Ref) String() string { return r.name + "#" + r.id }
