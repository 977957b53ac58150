package lifecycle

import (
	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
)

// Actor is the side of the transaction requesting a transition.
type Actor string

const (
	ActorUser  Actor = "user"
	ActorOwner Actor = "owner"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID  string
	OwnerID string
	Role    string
}

// Rule allows Actor to move an aggregate from From to To.
type Rule[S ~string] struct {
	From  S
	To    S
	Actor Actor
}

// Machine is an explicit transition table.
type Machine[S ~string] struct {
	entity   string
	rules    map[Rule[S]]struct{}
	terminal map[S]struct{}
}

func NewMachine[S ~string](entity string, terminal []S, rules ...Rule[S]) *Machine[S] {
	m := &Machine[S]{
		entity:   entity,
		rules:    make(map[Rule[S]]struct{}, len(rules)),
		terminal: make(map[S]struct{}, len(terminal)),
	}
	for _, r := range rules {
		m.rules[r] = struct{}{}
	}
	for _, s := range terminal {
		m.terminal[s] = struct{}{}
	}
	return m
}

func (m *Machine[S]) IsTerminal(s S) bool {
	_, ok := m.terminal[s]
	return ok
}

func (m *Machine[S]) Allowed(from, to S, actor Actor) bool {
	if m.IsTerminal(from) {
		return false
	}
	_, ok := m.rules[Rule[S]{From: from, To: to, Actor: actor}]
	return ok
}

// Check returns an illegal_transition error naming the current state when the
// table has no matching rule.
func (m *Machine[S]) Check(from, to S, actor Actor) error {
	if !m.Allowed(from, to, actor) {
		return httperr.IllegalTransition(m.entity, string(from), string(to))
	}
	return nil
}

// Authorize verifies the identity owns the aggregate for the acting side.
func Authorize(id Identity, actor Actor, userID, ownerID string) error {
	switch actor {
	case ActorUser:
		if id.UserID != "" && id.UserID == userID {
			return nil
		}
	case ActorOwner:
		if id.OwnerID != "" && id.OwnerID == ownerID {
			return nil
		}
	}
	return httperr.NotAuthorized("caller does not own this resource")
}
