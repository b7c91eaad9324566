// Package model defines the indexable entity kinds, their keys and
// document shapes, and the bulk loaders that read current truth from
// the primary database.
package model

import "fmt"

// Kind identifies which class of entity a queue marker or search
// document refers to. The kind set is closed: every dispatch on Kind
// enumerates all values and treats anything else as an error, so adding
// a kind surfaces each site that needs extension (queue partitioning,
// target selection, reconcile dispatch, requeue sources, verify).
type Kind string

const (
	// KindRealm marks pages of the realm tree.
	KindRealm Kind = "realm"

	// KindEvent marks video events.
	KindEvent Kind = "event"
)

// Kinds returns every kind in canonical order. Chunk partitioning,
// requeue and verify iterate kinds in this order so runs are
// deterministic.
func Kinds() []Kind {
	return []Kind{KindRealm, KindEvent}
}

// ParseKind validates a kind read from the queue table or CLI input.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindRealm:
		return KindRealm, nil
	case KindEvent:
		return KindEvent, nil
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	switch k {
	case KindRealm, KindEvent:
		return true
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}
